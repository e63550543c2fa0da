package annotation

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msel-source/mefwriter/section"
	"github.com/msel-source/mefwriter/sessionstate"
)

// TestScenario_AnnotationsRoundTrip writes the four record kinds in order
// and checks ridx's file_offset running-sum invariant against rdat's
// actual (header, body, pad) layout (§8 scenario 6).
func TestScenario_AnnotationsRoundTrip(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	w, err := Open(root, "sess-scenario6", shared)
	require.NoError(t, err)

	note := &NoteBody{Text: "hello"}
	seiz := &SeizBody{OnsetTime: 1_100_000, OffsetTime: 1_200_000, Channel: 3, TypeCode: 1}
	curs := &CursBody{Time: 1_300_000, Name: "marker"}
	epoc := &EpocBody{StartTime: 1_400_000, StopTime: 1_500_000, Text: "epoch"}

	require.NoError(t, w.Write(1_000_000, string(KindNote), note))
	require.NoError(t, w.Write(1_100_000, string(KindSeiz), seiz))
	require.NoError(t, w.Write(1_300_000, string(KindCurs), curs))
	require.NoError(t, w.Write(1_400_000, string(KindEpoc), epoc))
	require.NoError(t, w.Close())

	wantOffsets := make([]int64, 4)
	running := int64(section.UniversalHeaderSize)
	for i, body := range []RecordBody{note, seiz, curs, epoc} {
		wantOffsets[i] = running
		bodyLen := body.Bytes()
		running += int64(section.RecordHeaderSize) + int64(bodyLen) + int64(padLen(bodyLen))
	}

	ridxPath := filepath.Join(root, "sess-scenario6.mefd", "sess-scenario6.ridx")
	ridxFile, err := os.Open(ridxPath)
	require.NoError(t, err)
	defer ridxFile.Close()

	_, err = ridxFile.Seek(section.UniversalHeaderSize, io.SeekStart)
	require.NoError(t, err)

	entryBuf := make([]byte, section.RecordIndexEntrySize)
	for i := range wantOffsets {
		_, err := io.ReadFull(ridxFile, entryBuf)
		require.NoError(t, err)

		gotOffset := int64(littleEndian.Uint64(entryBuf[section.RecordFileOffOff:])) //nolint:gosec
		require.Equalf(t, wantOffsets[i], gotOffset, "record %d file_offset", i)
	}
}
