// Package manifest implements the session manifest updater (spec §4.5):
// a single append-only file, <session>.mefd, listing every channel
// directory that has been registered under a session, with idempotent
// re-registration and a linear dedup scan grounded on the teacher's
// blob-set entry-matching convention.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/msel-source/mefwriter/channel"
	"github.com/msel-source/mefwriter/crc"
	"github.com/msel-source/mefwriter/errs"
	"github.com/msel-source/mefwriter/internal/uuidgen"
	"github.com/msel-source/mefwriter/section"
	"github.com/msel-source/mefwriter/sessionstate"
)

// EntrySize is the fixed, zero-padded width of one manifest entry.
const EntrySize = 64

// Register appends "<channelName>.<channel.ChannelDirSuffix>" to the
// session's manifest file, creating the file with a fresh session-level
// universal header if it doesn't yet exist. If a byte-exact entry is
// already present, Register returns without modifying the file (§4.5
// idempotence). Register is a no-op when encrypted is true, since
// manifest registration is skipped entirely for encrypted recordings.
func Register(root, session, channelName string, shared *sessionstate.Shared, encrypted bool, checksum crc.CRC32, uuids uuidgen.Generator) error {
	if encrypted {
		return nil
	}
	if session == "" {
		return errs.ErrEmptySessionName
	}

	mu := shared.ManifestMu()
	mu.Lock()
	defer mu.Unlock()

	path := filepath.Join(root, session+"."+channel.SessionDirSuffix, session+".mefd")

	entry := make([]byte, EntrySize)
	text := fmt.Sprintf("%s.%s", channelName, channel.ChannelDirSuffix)
	if len(text) > EntrySize {
		return fmt.Errorf("mefwriter: manifest: entry %q exceeds %d bytes", text, EntrySize)
	}
	copy(entry, text)

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return createManifest(path, entry, checksum, uuids)
	}

	return appendIfMissing(path, entry, checksum)
}

func createManifest(path string, entry []byte, checksum crc.CRC32, uuids uuidgen.Generator) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mefwriter: manifest: create session directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("mefwriter: manifest: create: %w", err)
	}
	defer f.Close()

	fileUUID := uuids.New()
	header := section.NewUniversalHeader(section.SessionLevelSegmentNumber, fileUUID, fileUUID)

	if _, err := f.WriteAt(header.Bytes(checksum), 0); err != nil {
		return fmt.Errorf("mefwriter: manifest: write header: %w", err)
	}
	if _, err := f.WriteAt(entry, section.UniversalHeaderSize); err != nil {
		return fmt.Errorf("mefwriter: manifest: write entry: %w", err)
	}

	header.NumberOfEntries = 1
	header.MaximumEntrySize = EntrySize
	header.BodyCRC = checksum.Calculate(entry)

	if _, err := f.WriteAt(header.Bytes(checksum), 0); err != nil {
		return fmt.Errorf("mefwriter: manifest: rewrite header: %w", err)
	}

	return nil
}

func appendIfMissing(path string, entry []byte, checksum crc.CRC32) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("mefwriter: manifest: open: %w", err)
	}
	defer f.Close()

	headerBytes := make([]byte, section.UniversalHeaderSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, section.UniversalHeaderSize), headerBytes); err != nil {
		return fmt.Errorf("mefwriter: manifest: read header: %w", err)
	}

	header := &section.UniversalHeader{}
	if err := header.Parse(headerBytes, checksum); err != nil {
		return fmt.Errorf("mefwriter: manifest: parse header: %w", err)
	}

	existing := make([]byte, header.NumberOfEntries*EntrySize)
	if _, err := io.ReadFull(io.NewSectionReader(f, section.UniversalHeaderSize, int64(len(existing))), existing); err != nil {
		return fmt.Errorf("mefwriter: manifest: read entries: %w", err)
	}

	for i := uint64(0); i < header.NumberOfEntries; i++ {
		off := i * EntrySize
		if string(existing[off:off+EntrySize]) == string(entry) {
			return nil
		}
	}

	appendOffset := section.UniversalHeaderSize + int64(len(existing))
	if _, err := f.WriteAt(entry, appendOffset); err != nil {
		return fmt.Errorf("mefwriter: manifest: append entry: %w", err)
	}

	header.NumberOfEntries++
	header.BodyCRC = checksum.Update(entry, header.BodyCRC)
	if EntrySize > header.MaximumEntrySize {
		header.MaximumEntrySize = EntrySize
	}

	if _, err := f.WriteAt(header.Bytes(checksum), 0); err != nil {
		return fmt.Errorf("mefwriter: manifest: rewrite header: %w", err)
	}

	return nil
}
