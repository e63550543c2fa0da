package section

import (
	"github.com/msel-source/mefwriter/endian"
	"github.com/msel-source/mefwriter/errs"
)

// IndexEntry is the fixed-width (IndexEntrySize bytes) record a channel's
// index file holds one of per emitted RED block. Unlike the teacher
// package's delta-offset index entries, MEF index entries store absolute
// file_offset and start_sample values, per spec §3's explicit on-disk
// layout table.
type IndexEntry struct {
	FileOffset        int64
	StartTime         int64
	StartSample       int64
	NumberOfSamples   int32
	BlockBytes        int32
	MaximumSampleValue int32
	MinimumSampleValue int32
	Flags             uint8
}

// Bytes serializes the entry into a stack-allocated IndexEntrySize array,
// mirroring the teacher's NumericIndexEntry.Bytes technique.
func (e *IndexEntry) Bytes(engine endian.EndianEngine) []byte {
	var b [IndexEntrySize]byte

	engine.PutUint64(b[IndexFileOffsetOff:], uint64(e.FileOffset))   //nolint:gosec
	engine.PutUint64(b[IndexStartTimeOff:], uint64(e.StartTime))     //nolint:gosec
	engine.PutUint64(b[IndexStartSampleOff:], uint64(e.StartSample)) //nolint:gosec
	engine.PutUint32(b[IndexNumSamplesOff:], uint32(e.NumberOfSamples)) //nolint:gosec
	engine.PutUint32(b[IndexBlockBytesOff:], uint32(e.BlockBytes))      //nolint:gosec
	engine.PutUint32(b[IndexMaxSampleOff:], uint32(e.MaximumSampleValue)) //nolint:gosec
	engine.PutUint32(b[IndexMinSampleOff:], uint32(e.MinimumSampleValue)) //nolint:gosec
	// b[IndexReservedOff:IndexReservedOff+4] left zero.
	b[IndexFlagsOff] = e.Flags
	// remaining IndexEntryReserved bytes left zero.

	return b[:]
}

// ParseIndexEntry decodes a single IndexEntry from exactly IndexEntrySize
// bytes.
func ParseIndexEntry(data []byte, engine endian.EndianEngine) (IndexEntry, error) {
	if len(data) != IndexEntrySize {
		return IndexEntry{}, errs.ErrInvalidIndexEntrySize
	}

	return IndexEntry{
		FileOffset:         int64(engine.Uint64(data[IndexFileOffsetOff:])),  //nolint:gosec
		StartTime:          int64(engine.Uint64(data[IndexStartTimeOff:])),   //nolint:gosec
		StartSample:        int64(engine.Uint64(data[IndexStartSampleOff:])), //nolint:gosec
		NumberOfSamples:    int32(engine.Uint32(data[IndexNumSamplesOff:])), //nolint:gosec
		BlockBytes:         int32(engine.Uint32(data[IndexBlockBytesOff:])), //nolint:gosec
		MaximumSampleValue: int32(engine.Uint32(data[IndexMaxSampleOff:])),  //nolint:gosec
		MinimumSampleValue: int32(engine.Uint32(data[IndexMinSampleOff:])),  //nolint:gosec
		Flags:              data[IndexFlagsOff],
	}, nil
}
