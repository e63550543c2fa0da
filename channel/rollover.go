package channel

import (
	"fmt"

	"github.com/go-kit/log/level"
)

// maybeRollover runs the segment-rollover check (§4.1 "Segment rollover")
// ahead of writing the block currently being flushed. On the very first
// block of a segment's lifetime it establishes the next rollover boundary
// without rolling over; on later blocks it rolls the segment over once
// the block's (raw, pre-anonymization) start time reaches that boundary.
func (c *Channel) maybeRollover() error {
	if !c.segmentRolloverEnabled {
		return nil
	}

	if !c.nextBoundaryEstablished {
		c.nextSegmentStartTime = c.blockHdrTime + c.segmentBudgetUS
		c.nextBoundaryEstablished = true

		return nil
	}

	if c.blockHdrTime < c.nextSegmentStartTime {
		return nil
	}

	return c.rollover()
}

// rollover finalizes and closes the current segment's files, opens the
// next segment, propagates the persisted sample offset forward, and
// re-establishes the next rollover boundary from the triggering block's
// start time.
func (c *Channel) rollover() error {
	carry := c.meta.Channel.StartSample + c.meta.Channel.NumberOfSamples

	if err := c.persistMetadataAndHeaders(); err != nil {
		return fmt.Errorf("finalize segment %d: %w", c.segmentNumber, err)
	}

	var firstErr error
	for _, f := range []interface{ Close() error }{c.metaFile, c.dataFile, c.indexFile} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}

	c.segmentNumber++

	if err := c.openFreshSegment(carry); err != nil {
		return fmt.Errorf("open segment %d: %w", c.segmentNumber, err)
	}

	c.nextSegmentStartTime = c.blockHdrTime + c.segmentBudgetUS
	c.nextBoundaryEstablished = true

	level.Info(c.cfg.Logger).Log("msg", "segment rollover", //nolint:errcheck
		"session", c.session, "channel", c.baseName, "segment", c.segmentNumber, "start_sample", carry)

	return nil
}
