package channel

import (
	"fmt"

	"github.com/msel-source/mefwriter/section"
)

// flushBlock emits the current accumulation buffer as one compressed RED
// block (§4.1 "Flush (block emission)"). It is called both from the
// per-sample ingest loop, when a boundary condition fires, and from
// Flush/Close to emit a trailing partial block.
func (c *Channel) flushBlock() error {
	n := len(c.buf)
	if n == 0 {
		return nil
	}

	samples := c.buf

	if c.cfg.BitShift {
		for i, s := range samples {
			samples[i] = bitShiftRound(s)
		}
	}

	blockBytes, hdr, err := c.cfg.RedCodec.Encode(samples, n, c.discontinuityFlag, c.blockHdrTime)
	if err != nil {
		return fmt.Errorf("mefwriter: encode block: %w", err)
	}

	if err := c.maybeRollover(); err != nil {
		return fmt.Errorf("mefwriter: segment rollover: %w", err)
	}

	startTimeOut := c.anonymizeTime(c.blockHdrTime)

	if _, err := c.dataFile.Write(blockBytes); err != nil {
		return fmt.Errorf("mefwriter: write data block: %w", err)
	}
	c.dataHeader.BodyCRC = c.cfg.Checksum.Update(blockBytes, c.dataHeader.BodyCRC)

	minRaw, maxRaw := c.cfg.RedCodec.FindExtrema(samples, n)

	entry := section.IndexEntry{
		FileOffset:         c.dataOffset,
		StartTime:          startTimeOut,
		StartSample:        c.blockStartSample,
		NumberOfSamples:    int32(n), //nolint:gosec
		BlockBytes:         int32(len(blockBytes)), //nolint:gosec
		MaximumSampleValue: maxRaw,
		MinimumSampleValue: minRaw,
		Flags:              hdr.Flags,
	}
	entryBytes := entry.Bytes(c.cfg.Engine)

	if _, err := c.indexFile.Write(entryBytes); err != nil {
		return fmt.Errorf("mefwriter: write index entry: %w", err)
	}
	c.indexHeader.BodyCRC = c.cfg.Checksum.Update(entryBytes, c.indexHeader.BodyCRC)

	c.dataOffset += int64(len(blockBytes))
	c.indexOffset += section.IndexEntrySize
	c.dataHeader.NumberOfEntries++
	c.indexHeader.NumberOfEntries++

	c.applyBlockToMetadata(n, len(blockBytes), hdr.DifferenceBytes, minRaw, maxRaw, startTimeOut)

	c.buf = c.buf[:0]

	return c.persistMetadataAndHeaders()
}

// applyBlockToMetadata folds one emitted block's statistics into the
// segment's running aggregate state (§4.1/§4.2).
func (c *Channel) applyBlockToMetadata(n, blockBytes, diffBytes int, minRaw, maxRaw int32, _ int64) {
	ch := &c.meta.Channel

	if ch.NumberOfBlocks == 0 {
		ch.StartTime = c.blockHdrTime
	}

	ch.NumberOfSamples += int64(n)
	ch.NumberOfBlocks++

	if int32(blockBytes) > ch.MaximumBlockBytes { //nolint:gosec
		ch.MaximumBlockBytes = int32(blockBytes) //nolint:gosec
	}
	if int32(n) > ch.MaximumBlockSamples { //nolint:gosec
		ch.MaximumBlockSamples = int32(n) //nolint:gosec
	}
	if int32(diffBytes) > ch.MaximumDifferenceBytes { //nolint:gosec
		ch.MaximumDifferenceBytes = int32(diffBytes) //nolint:gosec
	}

	if c.discontinuityFlag {
		ch.NumberOfDiscontinuities++
		c.contigBlocks, c.contigSamples, c.contigBytes = 1, int64(n), int64(blockBytes)
	} else {
		c.contigBlocks++
		c.contigSamples += int64(n)
		c.contigBytes += int64(blockBytes)
	}

	if c.contigBlocks > ch.MaximumContiguousBlocks {
		ch.MaximumContiguousBlocks = c.contigBlocks
	}
	if c.contigSamples > ch.MaximumContiguousSamples {
		ch.MaximumContiguousSamples = c.contigSamples
	}
	if c.contigBytes > ch.MaximumContiguousBytes {
		ch.MaximumContiguousBytes = c.contigBytes
	}

	nativeMin, nativeMax := applyUnitsFactor(minRaw, maxRaw, c.cfg.UnitsConversionFactor)
	ch.WidenExtrema(nativeMin, nativeMax)

	ch.EndTime = c.blockHdrTime + ceilMicros(n, c.cfg.SamplingFrequency)
	ch.RecordingDuration = ch.EndTime - ch.StartTime

	c.blockStartSample += int64(n)
}

// applyUnitsFactor converts raw extrema into native units. A negative
// factor swaps min/max roles, per spec §4.1 "Extrema and units".
func applyUnitsFactor(minRaw, maxRaw int32, factor float64) (float64, float64) {
	a := float64(minRaw) * factor
	b := float64(maxRaw) * factor

	if a <= b {
		return a, b
	}

	return b, a
}

// ceilMicros computes ceil(n / samplingFreq * 1e6), the end-time
// extrapolation formula from §4.1.
func ceilMicros(n int, samplingFreq float64) int64 {
	if samplingFreq <= 0 {
		return 0
	}

	us := float64(n) / samplingFreq * 1_000_000
	whole := int64(us)
	if float64(whole) < us {
		whole++
	}

	return whole
}

// bitShiftRound applies the /4 half-away-from-zero rounding convention for
// 18-bit acquisition hardware (§6 "bit shift") prior to RED compression.
func bitShiftRound(s int32) int32 {
	if s >= 0 {
		return (s + 2) / 4
	}

	return (s - 2) / 4
}
