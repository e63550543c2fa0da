// Package channel implements the channel writer state machine (spec §4.1):
// the central component that accumulates raw samples, decides per-sample
// whether to flush a RED block, rolls segments over on time boundaries,
// and maintains the aggregate statistics written atomically at close.
package channel

import (
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log/level"

	"github.com/msel-source/mefwriter/errs"
	"github.com/msel-source/mefwriter/internal/options"
	"github.com/msel-source/mefwriter/offset"
	"github.com/msel-source/mefwriter/section"
	"github.com/msel-source/mefwriter/sessionstate"
)

// DiscontinuityThresholdUS is the minimum timestamp gap, in microseconds,
// that forces a block flush and marks the next block discontinuous
// (spec §6: 100,000 µs = 0.1s).
const DiscontinuityThresholdUS int64 = 100_000

// Channel is the streaming writer for one channel segment sequence. It is
// not thread-safe: all operations on a given Channel must be driven from
// a single goroutine at a time (spec §5 "Scheduling model"). Multiple
// Channels may be driven concurrently provided their underlying files are
// disjoint.
type Channel struct {
	cfg *Config

	root, session, baseName, anonymizedName string
	channelNumber                            int

	shared *sessionstate.Shared

	levelUUID [16]byte

	segmentNumber int32

	metaFile, dataFile, indexFile       *os.File
	metaHeader, dataHeader, indexHeader *section.UniversalHeader

	dataOffset  int64
	indexOffset int64

	meta section.SegmentMetadata

	// blockStartSample is the cumulative sample count within the current
	// segment, reset to zero on every rollover (§4.1 rollover step).
	// It is distinct from meta.Channel.StartSample, the segment's
	// persisted global sample offset, which is never reset, only
	// propagated forward (§4.3, §3 Segment invariant).
	blockStartSample int64

	// raw sample accumulation buffer, sized 2x the nominal block sample
	// count (§4.1 "Initialization" (b)).
	buf []int32

	blockHdrTimeSet bool
	blockHdrTime    int64
	blockBoundary   int64

	hasLastTimestamp bool
	lastTimestamp    int64

	discontinuityFlag bool

	contigBlocks, contigSamples, contigBytes int64

	segmentRolloverEnabled  bool
	segmentBudgetUS         int64
	nextBoundaryEstablished bool
	nextSegmentStartTime    int64

	initialized bool
	closed      bool
}

// NewChannel performs the §4.1 "Initialization" operation: it establishes
// the session/channel/segment directory hierarchy, allocates the raw
// sample buffer, constructs the three universal-headered files with
// fresh file UUIDs and a shared level UUID, and marks the channel
// discontinuous so its first written block is labelled discontinuous.
func NewChannel(root, session, baseName string, channelNumber int, anonymizedName string, shared *sessionstate.Shared, opts ...Option) (*Channel, error) {
	if session == "" || baseName == "" {
		return nil, errs.ErrEmptySessionName
	}

	cfg := NewConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	c := &Channel{
		cfg:            cfg,
		root:           root,
		session:        session,
		baseName:       baseName,
		anonymizedName: anonymizedName,
		channelNumber:  channelNumber,
		shared:         shared,
		segmentNumber:  0,
		buf:            make([]int32, 0, cfg.bufferCapacity()),

		segmentRolloverEnabled: cfg.SecsPerSegment > 0,
		segmentBudgetUS:        int64(cfg.SecsPerSegment * 1_000_000),

		discontinuityFlag: true,
	}

	c.levelUUID = cfg.UUIDs.New()

	if err := c.openFreshSegment(0); err != nil {
		return nil, fmt.Errorf("mefwriter: initialize channel %s: %w", baseName, err)
	}

	c.initialized = true
	level.Info(cfg.Logger).Log("msg", "channel initialized", "session", session, "channel", baseName, "segment", 0) //nolint:errcheck

	return c, nil
}

// anonymizeTime subtracts the session's recording-time offset from t when
// time anonymization is active, deriving the offset (once, process-wide)
// from t if this is the very first block ever written across the
// session's channels.
func (c *Channel) anonymizeTime(t int64) int64 {
	recordingOffset := c.shared.EnsureRecordingTimeOffset(t)
	if !c.shared.Anonymized() {
		return t
	}

	return offset.Apply(t, recordingOffset)
}

// Write ingests sorted (timestamp, sample) pairs for this channel,
// running the per-sample loop described in spec §4.1 "Ingest". The
// caller guarantees packetTimes is monotone non-decreasing; Write does
// not resort or reorder input.
func (c *Channel) Write(packetTimes []int64, samples []int32) error {
	if !c.initialized {
		return errs.ErrNotInitialized
	}
	if c.closed {
		return errs.ErrChannelClosed
	}
	if len(packetTimes) != len(samples) {
		return fmt.Errorf("mefwriter: write: %d timestamps but %d samples", len(packetTimes), len(samples))
	}
	if len(packetTimes) == 0 {
		return nil
	}

	for i, t := range packetTimes {
		if !c.blockHdrTimeSet {
			c.blockHdrTime = t
			c.blockBoundary = t
			c.blockHdrTimeSet = true
		}

		triggerDisc := c.hasLastTimestamp && absInt64(t-c.lastTimestamp) >= DiscontinuityThresholdUS
		triggerBlk := t-c.blockBoundary >= c.cfg.BlockIntervalUS

		if triggerDisc || triggerBlk {
			if len(c.buf) >= 1 {
				if err := c.flushBlock(); err != nil {
					return err
				}
			}

			if triggerDisc {
				c.discontinuityFlag = true
				c.blockBoundary = t
			} else {
				c.discontinuityFlag = false
				c.blockBoundary += c.cfg.BlockIntervalUS
			}

			c.blockHdrTime = t
			c.buf = c.buf[:0]
		}

		c.buf = append(c.buf, samples[i])
		c.lastTimestamp = t
		c.hasLastTimestamp = true
	}

	return nil
}

// Flush force-emits the buffered samples (if any) as a block, marks the
// next block discontinuous, and resets the block schedule so the next
// Write treats its first sample as a fresh block origin. Safe to call
// multiple times: a second consecutive call is a no-op (§8 idempotence).
func (c *Channel) Flush() error {
	if !c.initialized {
		return errs.ErrNotInitialized
	}
	if c.closed {
		return errs.ErrChannelClosed
	}

	if len(c.buf) >= 1 {
		if err := c.flushBlock(); err != nil {
			return err
		}
	}

	c.discontinuityFlag = true
	c.blockHdrTimeSet = false
	c.buf = c.buf[:0]

	return nil
}

// Close emits any trailing buffered samples as a final block, persists
// metadata and all three universal headers one last time, and closes the
// three file handles.
func (c *Channel) Close() error {
	if !c.initialized {
		return errs.ErrNotInitialized
	}
	if c.closed {
		return nil
	}

	if len(c.buf) >= 1 {
		if err := c.flushBlock(); err != nil {
			return err
		}
	}

	if err := c.persistMetadataAndHeaders(); err != nil {
		return err
	}

	var firstErr error
	for _, f := range []*os.File{c.metaFile, c.dataFile, c.indexFile} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	c.closed = true

	level.Info(c.cfg.Logger).Log("msg", "channel closed", //nolint:errcheck
		"session", c.session, "channel", c.baseName,
		"samples", c.meta.Channel.NumberOfSamples,
		"blocks", c.meta.Channel.NumberOfBlocks,
		"discontinuities", c.meta.Channel.NumberOfDiscontinuities,
	)

	return firstErr
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}

var _ io.Closer = (*Channel)(nil)
