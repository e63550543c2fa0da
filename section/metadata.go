package section

import "math"

// SegmentMetadata is the in-memory, then persisted, aggregate state for
// one channel segment (§4.2). It mirrors the three metadata sections
// described in spec §6: identity/encryption flags, channel parameters,
// subject info.
type SegmentMetadata struct {
	Identity   IdentitySection
	Channel    ChannelSection
	Subject    SubjectSection
}

// IdentitySection holds section-1 identity and encryption flags.
type IdentitySection struct {
	SessionName    string
	ChannelName    string
	AnonymizedName string
	SegmentNumber  int32

	// Level1Encrypted/Level2Encrypted are true iff the corresponding
	// password was supplied at channel initialization (§4.1 password
	// discipline: L2 requires L1).
	Level1Encrypted bool
	Level2Encrypted bool
}

// ChannelSection holds section-2 channel parameters and the per-segment
// aggregate statistics updated on every emitted block (§4.2).
type ChannelSection struct {
	SamplingFrequency float64
	BlockInterval     int64 // µs
	SecsPerBlock      float64
	SecsPerSegment    float64
	BitShift          bool
	UnitsConversionFactor float64

	LowFilterSetting  float64
	HighFilterSetting float64
	NotchFilterSetting float64
	ACLineFrequency    float64

	StartSample     int64
	NumberOfSamples int64
	NumberOfBlocks  int64

	MaximumBlockBytes      int32
	MaximumBlockSamples    int32
	MaximumDifferenceBytes int32

	NumberOfDiscontinuities int64

	MaximumContiguousBlocks  int64
	MaximumContiguousSamples int64
	MaximumContiguousBytes   int64

	MaximumNativeSampleValue float64
	MinimumNativeSampleValue float64

	StartTime        int64
	EndTime          int64
	RecordingDuration int64
}

// SubjectSection holds section-3 subject identity and recording metadata.
type SubjectSection struct {
	SubjectID       string
	RecordingTimeOffset int64
	GMTOffset       int64
	FreeText        string // may be compressed on disk when large; see compress package
}

// NewChannelSection returns a ChannelSection with extrema initialized to
// the "no entry yet" sentinels per §4.2/§4.1.
func NewChannelSection() ChannelSection {
	return ChannelSection{
		MaximumNativeSampleValue: math.NaN(),
		MinimumNativeSampleValue: math.NaN(),
	}
}

// WidenExtrema folds a block's native (units-converted) min/max into the
// running segment extrema, applying the NaN-sentinel / monotonic-widen
// rule described in spec §4.1 "Extrema and units".
func (c *ChannelSection) WidenExtrema(nativeMin, nativeMax float64) {
	if math.IsNaN(c.MinimumNativeSampleValue) || nativeMin < c.MinimumNativeSampleValue {
		c.MinimumNativeSampleValue = nativeMin
	}
	if math.IsNaN(c.MaximumNativeSampleValue) || nativeMax > c.MaximumNativeSampleValue {
		c.MaximumNativeSampleValue = nativeMax
	}
}

// ResetPerSegmentCounters zeroes the counters that reset on segment
// rollover (§4.1 "Segment rollover" procedure), leaving channel
// configuration (sampling frequency, filters, units factor, ...) intact.
func (c *ChannelSection) ResetPerSegmentCounters() {
	c.StartSample = 0
	c.NumberOfSamples = 0
	c.NumberOfBlocks = 0
	c.MaximumBlockBytes = 0
	c.MaximumBlockSamples = 0
	c.MaximumDifferenceBytes = 0
	c.NumberOfDiscontinuities = 0
	c.MaximumContiguousBlocks = 0
	c.MaximumContiguousSamples = 0
	c.MaximumContiguousBytes = 0
	c.MaximumNativeSampleValue = math.NaN()
	c.MinimumNativeSampleValue = math.NaN()
	c.StartTime = 0
	c.EndTime = 0
	c.RecordingDuration = 0
}
