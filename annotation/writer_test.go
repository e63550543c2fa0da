package annotation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msel-source/mefwriter/sessionstate"
)

func TestWriter_CreatesFreshFiles(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	w, err := Open(root, "sess-001", shared)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	dir := filepath.Join(root, "sess-001.mefd")
	_, err = os.Stat(filepath.Join(dir, "sess-001.rdat"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "sess-001.ridx"))
	require.NoError(t, err)
}

func TestWriter_WritesFourRecordKinds(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	w, err := Open(root, "sess-002", shared)
	require.NoError(t, err)

	require.NoError(t, w.Write(1_000_000, string(KindNote), &NoteBody{Text: "hello"}))
	require.NoError(t, w.Write(1_100_000, string(KindSeiz), &SeizBody{OnsetTime: 1_100_000, OffsetTime: 1_200_000, Channel: 3, TypeCode: 1}))
	require.NoError(t, w.Write(1_300_000, string(KindCurs), &CursBody{Time: 1_300_000, Name: "marker"}))
	require.NoError(t, w.Write(1_400_000, string(KindEpoc), &EpocBody{StartTime: 1_400_000, StopTime: 1_500_000, Text: "epoch"}))

	require.EqualValues(t, 4, w.rdatHeader.NumberOfEntries)
	require.EqualValues(t, 4, w.ridxHeader.NumberOfEntries)
	require.EqualValues(t, 1_000_000, w.rdatHeader.StartTime)
	require.EqualValues(t, 1_400_000, w.rdatHeader.EndTime)

	require.NoError(t, w.Close())
}

func TestWriter_UnknownKindIgnored(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	w, err := Open(root, "sess-003", shared)
	require.NoError(t, err)

	require.NoError(t, w.Write(1_000_000, "Bogus", &NoteBody{Text: "dropped"}))
	require.EqualValues(t, 0, w.rdatHeader.NumberOfEntries)

	require.NoError(t, w.Close())
}

func TestWriter_ReopenAppendsAtEOF(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	w, err := Open(root, "sess-004", shared)
	require.NoError(t, err)
	require.NoError(t, w.Write(1_000_000, string(KindNote), &NoteBody{Text: "first"}))
	require.NoError(t, w.Close())

	reopened, err := Open(root, "sess-004", shared)
	require.NoError(t, err)
	require.EqualValues(t, 1, reopened.rdatHeader.NumberOfEntries)

	require.NoError(t, reopened.Write(1_200_000, string(KindNote), &NoteBody{Text: "second"}))
	require.EqualValues(t, 2, reopened.rdatHeader.NumberOfEntries)
	require.EqualValues(t, 1_200_000, reopened.rdatHeader.EndTime)

	require.NoError(t, reopened.Close())
}

func TestWriter_EmptySessionNameRejected(t *testing.T) {
	shared := sessionstate.New(false, 0)
	_, err := Open(t.TempDir(), "", shared)
	require.Error(t, err)
}

func TestRecord_PadLenAlignsTo16(t *testing.T) {
	require.EqualValues(t, 0, padLen(32))
	require.EqualValues(t, 10, padLen(38)) // NoteBody("a"*5+nul) == 6 -> not this case, just boundary check
	require.EqualValues(t, 15, padLen(1))
}

func TestRecord_ParseRecordKind(t *testing.T) {
	_, ok := ParseRecordKind("Note")
	require.True(t, ok)

	_, ok = ParseRecordKind("bogus")
	require.False(t, ok)
}
