package channel

import (
	"fmt"
	"math"

	"github.com/msel-source/mefwriter/compress"
	"github.com/msel-source/mefwriter/format"
	"github.com/msel-source/mefwriter/section"
)

// freeTextCompressionThreshold is the free-text byte length above which
// the subject section's free text is stored zstd-compressed rather than
// raw (mirrors the compress package's framing for large subject-info
// blobs, see DESIGN.md "compress package").
const freeTextCompressionThreshold = 256

// metadataBytes serializes c.meta into the segment metadata file's body,
// sequentially appended with the configured endian engine rather than at
// fixed offsets, since the subject free-text field is variable length.
func (c *Channel) metadataBytes() ([]byte, error) {
	e := c.cfg.Engine
	id := c.meta.Identity
	ch := c.meta.Channel
	sub := c.meta.Subject

	buf := make([]byte, 0, 256)

	buf = e.AppendUint32(buf, uint32(id.SegmentNumber)) //nolint:gosec
	buf = append(buf, boolByte(id.Level1Encrypted), boolByte(id.Level2Encrypted), 0, 0)

	buf = appendFloat64(e, buf, ch.SamplingFrequency)
	buf = e.AppendUint64(buf, uint64(ch.BlockInterval)) //nolint:gosec
	buf = appendFloat64(e, buf, ch.SecsPerBlock)
	buf = appendFloat64(e, buf, ch.SecsPerSegment)
	buf = append(buf, boolByte(ch.BitShift), 0, 0, 0, 0, 0, 0, 0)
	buf = appendFloat64(e, buf, ch.UnitsConversionFactor)
	buf = appendFloat64(e, buf, ch.LowFilterSetting)
	buf = appendFloat64(e, buf, ch.HighFilterSetting)
	buf = appendFloat64(e, buf, ch.NotchFilterSetting)
	buf = appendFloat64(e, buf, ch.ACLineFrequency)

	buf = e.AppendUint64(buf, uint64(ch.StartSample))     //nolint:gosec
	buf = e.AppendUint64(buf, uint64(ch.NumberOfSamples)) //nolint:gosec
	buf = e.AppendUint64(buf, uint64(ch.NumberOfBlocks))  //nolint:gosec

	buf = e.AppendUint32(buf, uint32(ch.MaximumBlockBytes))      //nolint:gosec
	buf = e.AppendUint32(buf, uint32(ch.MaximumBlockSamples))    //nolint:gosec
	buf = e.AppendUint32(buf, uint32(ch.MaximumDifferenceBytes)) //nolint:gosec

	buf = e.AppendUint64(buf, uint64(ch.NumberOfDiscontinuities)) //nolint:gosec

	buf = e.AppendUint64(buf, uint64(ch.MaximumContiguousBlocks))  //nolint:gosec
	buf = e.AppendUint64(buf, uint64(ch.MaximumContiguousSamples)) //nolint:gosec
	buf = e.AppendUint64(buf, uint64(ch.MaximumContiguousBytes))   //nolint:gosec

	buf = appendFloat64(e, buf, ch.MaximumNativeSampleValue)
	buf = appendFloat64(e, buf, ch.MinimumNativeSampleValue)

	buf = e.AppendUint64(buf, uint64(ch.StartTime))         //nolint:gosec
	buf = e.AppendUint64(buf, uint64(ch.EndTime))           //nolint:gosec
	buf = e.AppendUint64(buf, uint64(ch.RecordingDuration)) //nolint:gosec

	buf = e.AppendUint64(buf, uint64(sub.RecordingTimeOffset)) //nolint:gosec
	buf = e.AppendUint64(buf, uint64(sub.GMTOffset))           //nolint:gosec

	buf = appendLengthPrefixed(e, buf, []byte(sub.SubjectID))

	freeText := []byte(sub.FreeText)
	var flag format.MetadataCompression
	payload := freeText
	if len(freeText) > freeTextCompressionThreshold {
		compressed, err := compress.NewZstdCompressor().Compress(freeText)
		if err != nil {
			return nil, fmt.Errorf("mefwriter: compress subject free text: %w", err)
		}
		flag, payload = format.CompressionZstd, compressed
	} else {
		flag = format.CompressionNone
	}
	buf = append(buf, byte(flag))
	buf = appendLengthPrefixed(e, buf, payload)

	return buf, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}

	return 0
}

func appendFloat64(e interface{ AppendUint64([]byte, uint64) []byte }, buf []byte, f float64) []byte {
	return e.AppendUint64(buf, math.Float64bits(f))
}

func appendLengthPrefixed(e interface{ AppendUint32([]byte, uint32) []byte }, buf, data []byte) []byte {
	buf = e.AppendUint32(buf, uint32(len(data))) //nolint:gosec
	return append(buf, data...)
}

// persistMetadataAndHeaders rewrites the metadata body, recomputes both
// the metadata and data/index header CRCs and entry counts, and rewrites
// all three universal headers in place (§4.2 "update_metadata"). It uses
// WriteAt exclusively for headers and the metadata body, leaving the
// data/index files' append cursors (maintained by sequential Write calls
// in flushBlock) untouched.
func (c *Channel) persistMetadataAndHeaders() error {
	body, err := c.metadataBytes()
	if err != nil {
		return err
	}

	if err := c.metaFile.Truncate(section.UniversalHeaderSize + int64(len(body))); err != nil {
		return fmt.Errorf("mefwriter: truncate metadata file: %w", err)
	}
	if _, err := c.metaFile.WriteAt(body, section.UniversalHeaderSize); err != nil {
		return fmt.Errorf("mefwriter: write metadata body: %w", err)
	}

	anonymizedStart := c.anonymizeTime(c.meta.Channel.StartTime)
	anonymizedEnd := c.anonymizeTime(c.meta.Channel.EndTime)

	c.metaHeader.BodyCRC = c.cfg.Checksum.Calculate(body)
	c.metaHeader.NumberOfEntries = 1
	c.metaHeader.MaximumEntrySize = uint32(len(body)) //nolint:gosec
	c.metaHeader.StartTime = anonymizedStart
	c.metaHeader.EndTime = anonymizedEnd

	c.dataHeader.StartTime = anonymizedStart
	c.dataHeader.EndTime = anonymizedEnd
	c.dataHeader.MaximumEntrySize = uint32(c.meta.Channel.MaximumBlockBytes) //nolint:gosec

	c.indexHeader.StartTime = anonymizedStart
	c.indexHeader.EndTime = anonymizedEnd
	c.indexHeader.MaximumEntrySize = section.IndexEntrySize

	type headerFile struct {
		file   interface{ WriteAt([]byte, int64) (int, error) }
		header *section.UniversalHeader
	}

	for _, hf := range []headerFile{
		{c.metaFile, c.metaHeader},
		{c.dataFile, c.dataHeader},
		{c.indexFile, c.indexHeader},
	} {
		if _, err := hf.file.WriteAt(hf.header.Bytes(c.cfg.Checksum), 0); err != nil {
			return fmt.Errorf("mefwriter: rewrite header: %w", err)
		}
	}

	return nil
}
