package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msel-source/mefwriter/channel"
	"github.com/msel-source/mefwriter/crc"
	"github.com/msel-source/mefwriter/internal/uuidgen"
	"github.com/msel-source/mefwriter/section"
	"github.com/msel-source/mefwriter/sessionstate"
)

func manifestPath(root, session string) string {
	return filepath.Join(root, session+"."+channel.SessionDirSuffix, session+".mefd")
}

func readManifestHeader(t *testing.T, path string) *section.UniversalHeader {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	h := &section.UniversalHeader{}
	require.NoError(t, h.Parse(data[:section.UniversalHeaderSize], crc.IEEE()))

	return h
}

func TestManifest_CreatesOnFirstRegistration(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	err := Register(root, "sess-001", "chan-A", shared, false, crc.IEEE(), uuidgen.Default())
	require.NoError(t, err)

	header := readManifestHeader(t, manifestPath(root, "sess-001"))
	require.EqualValues(t, 1, header.NumberOfEntries)
	require.Equal(t, section.SessionLevelSegmentNumber, header.SegmentNumber)
}

func TestManifest_IdempotentReRegistration(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	require.NoError(t, Register(root, "sess-002", "chan-A", shared, false, crc.IEEE(), uuidgen.Default()))
	require.NoError(t, Register(root, "sess-002", "chan-A", shared, false, crc.IEEE(), uuidgen.Default()))

	header := readManifestHeader(t, manifestPath(root, "sess-002"))
	require.EqualValues(t, 1, header.NumberOfEntries)
}

func TestManifest_AppendsDistinctChannels(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	require.NoError(t, Register(root, "sess-003", "chan-A", shared, false, crc.IEEE(), uuidgen.Default()))
	require.NoError(t, Register(root, "sess-003", "chan-B", shared, false, crc.IEEE(), uuidgen.Default()))

	header := readManifestHeader(t, manifestPath(root, "sess-003"))
	require.EqualValues(t, 2, header.NumberOfEntries)
}

func TestManifest_SkippedWhenEncrypted(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	require.NoError(t, Register(root, "sess-004", "chan-A", shared, true, crc.IEEE(), uuidgen.Default()))

	_, err := os.Stat(manifestPath(root, "sess-004"))
	require.True(t, os.IsNotExist(err))
}
