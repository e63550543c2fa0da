package annotation

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-kit/log"

	"github.com/msel-source/mefwriter/channel"
	"github.com/msel-source/mefwriter/crc"
	"github.com/msel-source/mefwriter/endian"
	"github.com/msel-source/mefwriter/errs"
	"github.com/msel-source/mefwriter/internal/options"
	"github.com/msel-source/mefwriter/internal/uuidgen"
	"github.com/msel-source/mefwriter/offset"
	"github.com/msel-source/mefwriter/section"
	"github.com/msel-source/mefwriter/sessionstate"
)

// Config holds the record-writer collaborator overrides, mirroring
// channel.Config's shape for the smaller annotation-writer surface.
type Config struct {
	Engine   endian.EndianEngine
	Checksum crc.CRC32
	UUIDs    uuidgen.Generator
	Logger   log.Logger
}

func newConfig() *Config {
	return &Config{
		Engine:   endian.GetLittleEndianEngine(),
		Checksum: crc.IEEE(),
		UUIDs:    uuidgen.Default(),
		Logger:   log.NewNopLogger(),
	}
}

// Option configures a Writer during Open.
type Option = options.Option[*Config]

// WithChecksum overrides the CRC-32 collaborator.
func WithChecksum(checksum crc.CRC32) Option {
	return options.NoError(func(c *Config) { c.Checksum = checksum })
}

// WithUUIDGenerator overrides the UUID generation collaborator.
func WithUUIDGenerator(gen uuidgen.Generator) Option {
	return options.NoError(func(c *Config) { c.UUIDs = gen })
}

// WithLogger attaches a structured logger.
func WithLogger(logger log.Logger) Option {
	return options.NoError(func(c *Config) { c.Logger = logger })
}

// Writer is the append-only session-level record writer (spec §4.4).
type Writer struct {
	cfg *Config

	session string
	shared  *sessionstate.Shared

	rdatFile, ridxFile     *os.File
	rdatHeader, ridxHeader *section.UniversalHeader

	rdatOffset int64
	ridxOffset int64

	closed bool
}

// Open creates or reopens <root>/<session>.mefd/<session>.rdat and
// <session>.ridx. If rdat already exists, both files are opened and
// positioned at EOF, taking rdatOffset/ridxOffset from each file's
// current end; otherwise fresh headers-only files are created (§4.4
// "Creation").
func Open(root, session string, shared *sessionstate.Shared, opts ...Option) (*Writer, error) {
	if session == "" {
		return nil, errs.ErrEmptySessionName
	}

	cfg := newConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	dir := filepath.Join(root, fmt.Sprintf("%s.%s", session, channel.SessionDirSuffix))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mefwriter: annotation: create session directory: %w", err)
	}

	rdatPath := filepath.Join(dir, session+".rdat")
	ridxPath := filepath.Join(dir, session+".ridx")

	_, statErr := os.Stat(rdatPath)
	fresh := os.IsNotExist(statErr)

	w := &Writer{cfg: cfg, session: session, shared: shared}

	if fresh {
		if err := w.createFresh(rdatPath, ridxPath); err != nil {
			return nil, err
		}

		return w, nil
	}

	if err := w.reopenExisting(rdatPath, ridxPath); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *Writer) createFresh(rdatPath, ridxPath string) error {
	rdatFile, err := os.OpenFile(rdatPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("mefwriter: annotation: create rdat: %w", err)
	}
	ridxFile, err := os.OpenFile(ridxPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		rdatFile.Close()
		return fmt.Errorf("mefwriter: annotation: create ridx: %w", err)
	}

	fileUUID := w.cfg.UUIDs.New()
	rdatHeader := section.NewUniversalHeader(section.SessionLevelSegmentNumber, fileUUID, fileUUID)
	ridxHeader := section.NewUniversalHeader(section.SessionLevelSegmentNumber, fileUUID, fileUUID)
	rdatHeader.SessionName, ridxHeader.SessionName = w.session, w.session

	if _, err := rdatFile.WriteAt(rdatHeader.Bytes(w.cfg.Checksum), 0); err != nil {
		return fmt.Errorf("mefwriter: annotation: write rdat header: %w", err)
	}
	if _, err := ridxFile.WriteAt(ridxHeader.Bytes(w.cfg.Checksum), 0); err != nil {
		return fmt.Errorf("mefwriter: annotation: write ridx header: %w", err)
	}

	if _, err := rdatFile.Seek(section.UniversalHeaderSize, io.SeekStart); err != nil {
		return err
	}
	if _, err := ridxFile.Seek(section.UniversalHeaderSize, io.SeekStart); err != nil {
		return err
	}

	w.rdatFile, w.ridxFile = rdatFile, ridxFile
	w.rdatHeader, w.ridxHeader = rdatHeader, ridxHeader
	w.rdatOffset, w.ridxOffset = section.UniversalHeaderSize, section.UniversalHeaderSize

	return nil
}

func (w *Writer) reopenExisting(rdatPath, ridxPath string) error {
	rdatFile, err := os.OpenFile(rdatPath, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("mefwriter: annotation: open rdat: %w", err)
	}
	ridxFile, err := os.OpenFile(ridxPath, os.O_RDWR, 0o644)
	if err != nil {
		rdatFile.Close()
		return fmt.Errorf("mefwriter: annotation: open ridx: %w", err)
	}

	rdatHeaderBytes := make([]byte, section.UniversalHeaderSize)
	if _, err := io.ReadFull(io.NewSectionReader(rdatFile, 0, section.UniversalHeaderSize), rdatHeaderBytes); err != nil {
		return fmt.Errorf("mefwriter: annotation: read rdat header: %w", err)
	}
	ridxHeaderBytes := make([]byte, section.UniversalHeaderSize)
	if _, err := io.ReadFull(io.NewSectionReader(ridxFile, 0, section.UniversalHeaderSize), ridxHeaderBytes); err != nil {
		return fmt.Errorf("mefwriter: annotation: read ridx header: %w", err)
	}

	rdatHeader := &section.UniversalHeader{}
	if err := rdatHeader.Parse(rdatHeaderBytes, w.cfg.Checksum); err != nil {
		return fmt.Errorf("mefwriter: annotation: parse rdat header: %w", err)
	}
	ridxHeader := &section.UniversalHeader{}
	if err := ridxHeader.Parse(ridxHeaderBytes, w.cfg.Checksum); err != nil {
		return fmt.Errorf("mefwriter: annotation: parse ridx header: %w", err)
	}

	rdatEnd, err := rdatFile.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	ridxEnd, err := ridxFile.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	w.rdatFile, w.ridxFile = rdatFile, ridxFile
	w.rdatHeader, w.ridxHeader = rdatHeader, ridxHeader
	w.rdatOffset, w.ridxOffset = rdatEnd, ridxEnd

	return nil
}

// Write appends one annotation record (spec §4.4 "Per record write").
// Unknown kinds are silently ignored per §7's UnknownRecordKind handling.
func (w *Writer) Write(timestamp int64, kind string, body RecordBody) error {
	if w.closed {
		return errs.ErrChannelClosed
	}

	recordKind, ok := ParseRecordKind(kind)
	if !ok {
		return nil
	}

	bodyLen := body.Bytes()
	pad := padLen(bodyLen)

	outTime := timestamp
	recordingOffset := w.shared.EnsureRecordingTimeOffset(timestamp)
	if w.shared.Anonymized() {
		outTime = offset.Apply(timestamp, recordingOffset)
	}

	headerBuf := make([]byte, 0, section.RecordHeaderSize)
	headerBuf = appendRecordKindTag(headerBuf, recordKind)
	headerBuf = w.cfg.Engine.AppendUint16(headerBuf, 1) // version major
	headerBuf = w.cfg.Engine.AppendUint16(headerBuf, 0) // version minor
	headerBuf = append(headerBuf, 0, 0, 0, 0)           // encryption=0, reserved
	headerBuf = w.cfg.Engine.AppendUint32(headerBuf, uint32(bodyLen+pad)) //nolint:gosec
	headerBuf = w.cfg.Engine.AppendUint64(headerBuf, uint64(outTime))     //nolint:gosec
	crcPos := len(headerBuf)
	headerBuf = w.cfg.Engine.AppendUint32(headerBuf, 0) // record_CRC placeholder
	headerBuf = append(headerBuf, 0, 0, 0, 0)           // reserved

	bodyBuf := make([]byte, 0, bodyLen)
	bodyBuf = body.WriteInto(bodyBuf)
	padBuf := make([]byte, pad)

	recordCRC := w.cfg.Checksum.Calculate(headerBuf[section.RecHdrCRCOff+4:])
	recordCRC = w.cfg.Checksum.Update(bodyBuf, recordCRC)
	recordCRC = w.cfg.Checksum.Update(padBuf, recordCRC)
	w.cfg.Engine.PutUint32(headerBuf[crcPos:], recordCRC)

	entryBuf := make([]byte, 0, section.RecordIndexEntrySize)
	entryBuf = appendRecordKindTag(entryBuf, recordKind)
	entryBuf = w.cfg.Engine.AppendUint16(entryBuf, 1)
	entryBuf = w.cfg.Engine.AppendUint16(entryBuf, 0)
	entryBuf = append(entryBuf, 0, 0, 0, 0, 0, 0, 0, 0) // encryption + reserved
	entryBuf = w.cfg.Engine.AppendUint64(entryBuf, uint64(outTime))      //nolint:gosec
	entryBuf = w.cfg.Engine.AppendUint64(entryBuf, uint64(w.rdatOffset)) //nolint:gosec

	if _, err := w.rdatFile.Write(headerBuf); err != nil {
		return fmt.Errorf("mefwriter: annotation: write record header: %w", err)
	}
	if _, err := w.rdatFile.Write(bodyBuf); err != nil {
		return fmt.Errorf("mefwriter: annotation: write record body: %w", err)
	}
	if _, err := w.rdatFile.Write(padBuf); err != nil {
		return fmt.Errorf("mefwriter: annotation: write record pad: %w", err)
	}
	if _, err := w.ridxFile.Write(entryBuf); err != nil {
		return fmt.Errorf("mefwriter: annotation: write index entry: %w", err)
	}

	recordBytes := len(headerBuf) + len(bodyBuf) + len(padBuf)
	w.rdatOffset += int64(recordBytes)
	w.ridxOffset += section.RecordIndexEntrySize

	all := make([]byte, 0, recordBytes)
	all = append(all, headerBuf...)
	all = append(all, bodyBuf...)
	all = append(all, padBuf...)
	w.rdatHeader.BodyCRC = w.cfg.Checksum.Update(all, w.rdatHeader.BodyCRC)
	w.ridxHeader.BodyCRC = w.cfg.Checksum.Update(entryBuf, w.ridxHeader.BodyCRC)

	w.rdatHeader.NumberOfEntries++
	w.ridxHeader.NumberOfEntries++
	if w.rdatHeader.StartTime == section.StartTimeUnset {
		w.rdatHeader.StartTime = outTime
	}
	w.rdatHeader.EndTime = outTime
	w.ridxHeader.StartTime = w.rdatHeader.StartTime
	w.ridxHeader.EndTime = outTime
	if uint32(recordBytes) > w.rdatHeader.MaximumEntrySize { //nolint:gosec
		w.rdatHeader.MaximumEntrySize = uint32(recordBytes) //nolint:gosec
	}
	w.ridxHeader.MaximumEntrySize = section.RecordIndexEntrySize

	return w.rewriteHeaders()
}

func (w *Writer) rewriteHeaders() error {
	if _, err := w.rdatFile.WriteAt(w.rdatHeader.Bytes(w.cfg.Checksum), 0); err != nil {
		return fmt.Errorf("mefwriter: annotation: rewrite rdat header: %w", err)
	}
	if _, err := w.ridxFile.WriteAt(w.ridxHeader.Bytes(w.cfg.Checksum), 0); err != nil {
		return fmt.Errorf("mefwriter: annotation: rewrite ridx header: %w", err)
	}

	return nil
}

// Close closes both file handles. Record bodies are already durable on
// disk from Write, per §4.4 "Close".
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	var firstErr error
	if err := w.rdatFile.Close(); err != nil {
		firstErr = err
	}
	if err := w.ridxFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	w.closed = true

	return firstErr
}

func appendRecordKindTag(buf []byte, kind RecordKind) []byte {
	var tag [4]byte
	copy(tag[:], kind)

	return append(buf, tag[:]...)
}
