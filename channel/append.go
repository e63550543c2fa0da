package channel

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/msel-source/mefwriter/compress"
	"github.com/msel-source/mefwriter/errs"
	"github.com/msel-source/mefwriter/format"
	"github.com/msel-source/mefwriter/internal/options"
	"github.com/msel-source/mefwriter/section"
	"github.com/msel-source/mefwriter/sessionstate"
)

// OpenForAppend resumes writing an existing channel in a new segment
// numbered lastSegmentNumber+1 (§4.3 "Append mode"); the caller supplies
// lastSegmentNumber. It reads that segment's persisted metadata to recover
// the running sample offset,
// then behaves exactly like a freshly initialized channel from that
// point on: the next Write starts a new block, flagged discontinuous.
func OpenForAppend(root, session, baseName string, channelNumber int, anonymizedName string, shared *sessionstate.Shared, lastSegmentNumber int32, opts ...Option) (*Channel, error) {
	if lastSegmentNumber < 0 {
		return nil, errs.ErrInvalidSegmentNumber
	}

	cfg := NewConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	metaPath, _, _ := segmentFilePaths(root, session, baseName, lastSegmentNumber)

	prevMeta, prevLevelUUID, err := readSegmentMetadata(metaPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("mefwriter: append: read prior segment metadata: %w", err)
	}

	// Subject identity is carried forward from the prior segment
	// unconditionally (§4.3): append mode never lets a caller rename the
	// subject mid-session.
	cfg.SubjectID = prevMeta.Subject.SubjectID
	cfg.FreeText = prevMeta.Subject.FreeText

	c := &Channel{
		cfg:            cfg,
		root:           root,
		session:        session,
		baseName:       baseName,
		anonymizedName: anonymizedName,
		channelNumber:  channelNumber,
		shared:         shared,
		segmentNumber:  lastSegmentNumber + 1,
		buf:            make([]int32, 0, cfg.bufferCapacity()),
		levelUUID:      prevLevelUUID,

		segmentRolloverEnabled: cfg.SecsPerSegment > 0,
		segmentBudgetUS:        int64(cfg.SecsPerSegment * 1_000_000),

		discontinuityFlag: true,
	}

	carry := prevMeta.Channel.StartSample + prevMeta.Channel.NumberOfSamples

	if err := c.openFreshSegment(carry); err != nil {
		return nil, fmt.Errorf("mefwriter: append: open continuation segment: %w", err)
	}

	c.initialized = true

	return c, nil
}

// readSegmentMetadata is a minimal reader for a single segment's metadata
// file, sufficient to recover the append-continuation state (§4.3). It is
// not a general MEF reader: it assumes the file was written by this
// package and trusts the stored header/body CRCs rather than attempting
// forward-compatible parsing of unknown metadata layouts.
func readSegmentMetadata(path string, cfg *Config) (section.SegmentMetadata, [16]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return section.SegmentMetadata{}, [16]byte{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(data) < section.UniversalHeaderSize {
		return section.SegmentMetadata{}, [16]byte{}, errs.ErrInvalidHeaderSize
	}

	var header section.UniversalHeader
	if err := header.Parse(data[:section.UniversalHeaderSize], cfg.Checksum); err != nil {
		return section.SegmentMetadata{}, [16]byte{}, err
	}

	e := cfg.Engine
	body := data[section.UniversalHeaderSize:]

	var meta section.SegmentMetadata
	off := 0

	meta.Identity.SegmentNumber = int32(e.Uint32(body[off:])) //nolint:gosec
	off += 4
	meta.Identity.Level1Encrypted = body[off] == 1
	meta.Identity.Level2Encrypted = body[off+1] == 1
	off += 4

	ch := &meta.Channel
	ch.SamplingFrequency = readFloat64(e, body, &off)
	ch.BlockInterval = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8
	ch.SecsPerBlock = readFloat64(e, body, &off)
	ch.SecsPerSegment = readFloat64(e, body, &off)
	ch.BitShift = body[off] == 1
	off += 8
	ch.UnitsConversionFactor = readFloat64(e, body, &off)
	ch.LowFilterSetting = readFloat64(e, body, &off)
	ch.HighFilterSetting = readFloat64(e, body, &off)
	ch.NotchFilterSetting = readFloat64(e, body, &off)
	ch.ACLineFrequency = readFloat64(e, body, &off)

	ch.StartSample = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8
	ch.NumberOfSamples = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8
	ch.NumberOfBlocks = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8

	ch.MaximumBlockBytes = int32(e.Uint32(body[off:])) //nolint:gosec
	off += 4
	ch.MaximumBlockSamples = int32(e.Uint32(body[off:])) //nolint:gosec
	off += 4
	ch.MaximumDifferenceBytes = int32(e.Uint32(body[off:])) //nolint:gosec
	off += 4

	ch.NumberOfDiscontinuities = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8

	ch.MaximumContiguousBlocks = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8
	ch.MaximumContiguousSamples = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8
	ch.MaximumContiguousBytes = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8

	ch.MaximumNativeSampleValue = readFloat64(e, body, &off)
	ch.MinimumNativeSampleValue = readFloat64(e, body, &off)

	ch.StartTime = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8
	ch.EndTime = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8
	ch.RecordingDuration = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8

	meta.Subject.RecordingTimeOffset = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8
	meta.Subject.GMTOffset = int64(e.Uint64(body[off:])) //nolint:gosec
	off += 8

	subjectID, n := readLengthPrefixed(e, body, off)
	meta.Subject.SubjectID = string(subjectID)
	off += n

	flag := format.MetadataCompression(body[off])
	off++

	freeText, n := readLengthPrefixed(e, body, off)
	off += n

	if flag == format.CompressionZstd {
		plain, err := compress.NewZstdCompressor().Decompress(freeText)
		if err != nil {
			return section.SegmentMetadata{}, [16]byte{}, fmt.Errorf("mefwriter: decompress subject free text: %w", err)
		}
		freeText = plain
	}
	meta.Subject.FreeText = string(freeText)

	return meta, header.LevelUUID, nil
}

// readLengthPrefixed reads a uint32-length-prefixed byte slice from body at
// off, mirroring appendLengthPrefixed, and returns it along with the total
// number of bytes consumed (prefix + payload).
func readLengthPrefixed(e interface{ Uint32([]byte) uint32 }, body []byte, off int) ([]byte, int) {
	n := int(e.Uint32(body[off:]))
	start := off + 4

	return body[start : start+n], 4 + n
}

func readFloat64(e interface{ Uint64([]byte) uint64 }, body []byte, off *int) float64 {
	v := math.Float64frombits(e.Uint64(body[*off:]))
	*off += 8

	return v
}
