package channel

import (
	"github.com/go-kit/log"

	"github.com/msel-source/mefwriter/codec"
	"github.com/msel-source/mefwriter/crc"
	"github.com/msel-source/mefwriter/endian"
	"github.com/msel-source/mefwriter/internal/options"
	"github.com/msel-source/mefwriter/internal/uuidgen"
	"github.com/msel-source/mefwriter/password"
)

// Config holds the channel parameters recognized by NewChannel, per spec
// §6's configuration table, plus the collaborator overrides (§6 external
// interfaces) a caller may substitute for testing or alternate backends.
type Config struct {
	SamplingFrequency float64 // Hz
	BlockIntervalUS   int64   // µs of wall-clock per RED block
	SecsPerBlock      float64 // nominal samples per block = ceil(SecsPerBlock * SamplingFrequency)
	SecsPerSegment    float64 // 0 = unlimited, disables segment rollover
	BitShift          bool    // enable /4 rounding before compression

	UnitsConversionFactor float64

	LowFilterHz   float64
	HighFilterHz  float64
	NotchFilterHz float64
	ACLineFreqHz  float64

	Password1 string
	Password2 string

	SubjectID string
	FreeText  string

	GMTOffsetSeconds int64

	ByteOrderBig bool

	Engine   endian.EndianEngine
	Checksum crc.CRC32
	RedCodec codec.RedCodec
	UUIDs    uuidgen.Generator
	Logger   log.Logger
}

// NewConfig returns a Config with the defaults a freshly initialized
// channel needs before options are applied.
func NewConfig() *Config {
	return &Config{
		SamplingFrequency:     1000,
		BlockIntervalUS:       1_000_000,
		SecsPerBlock:          1.0,
		SecsPerSegment:        0,
		UnitsConversionFactor: 1.0,
		Engine:                endian.GetLittleEndianEngine(),
		Checksum:              crc.IEEE(),
		RedCodec:              codec.NewReferenceCodec(),
		UUIDs:                 uuidgen.Default(),
		Logger:                log.NewNopLogger(),
	}
}

// Option configures a Config during NewChannel.
type Option = options.Option[*Config]

// WithSamplingFrequency sets the channel's sampling frequency in Hz,
// stored in metadata and used for end-time extrapolation.
func WithSamplingFrequency(hz float64) Option {
	return options.NoError(func(c *Config) { c.SamplingFrequency = hz })
}

// WithBlockInterval sets the scheduling period, in µs, for block flush.
func WithBlockInterval(us int64) Option {
	return options.NoError(func(c *Config) { c.BlockIntervalUS = us })
}

// WithSecsPerBlock sets the nominal seconds of samples per block, used to
// size the raw accumulation buffer (2x margin, per §4.1).
func WithSecsPerBlock(s float64) Option {
	return options.NoError(func(c *Config) { c.SecsPerBlock = s })
}

// WithSecsPerSegment sets the per-session segment time budget. 0 disables
// rollover.
func WithSecsPerSegment(s float64) Option {
	return options.NoError(func(c *Config) { c.SecsPerSegment = s })
}

// WithBitShift enables the /4 half-away-from-zero rounding convention for
// 18-bit acquisition hardware before RED compression.
func WithBitShift(enabled bool) Option {
	return options.NoError(func(c *Config) { c.BitShift = enabled })
}

// WithUnitsConversionFactor sets the factor applied to native extrema. A
// negative factor swaps min/max roles (§4.1 "Extrema and units").
func WithUnitsConversionFactor(f float64) Option {
	return options.NoError(func(c *Config) { c.UnitsConversionFactor = f })
}

// WithFilterSettings records the low/high/notch filter settings. Stored
// as metadata only; unused by core logic.
func WithFilterSettings(low, high, notch float64) Option {
	return options.NoError(func(c *Config) {
		c.LowFilterHz = low
		c.HighFilterHz = high
		c.NotchFilterHz = notch
	})
}

// WithACLineFrequency records the AC line frequency (50/60 Hz), stored
// as metadata only.
func WithACLineFrequency(hz float64) Option {
	return options.NoError(func(c *Config) { c.ACLineFreqHz = hz })
}

// WithGMTOffset records a GMT offset in seconds in Config.GMTOffsetSeconds.
// The channel writer does not read this field: the GMT offset stored in
// segment metadata and used to derive the recording-time offset is the
// one held by the sessionstate.Shared passed to NewChannel.
func WithGMTOffset(seconds int64) Option {
	return options.NoError(func(c *Config) { c.GMTOffsetSeconds = seconds })
}

// WithPasswords sets the level-1/level-2 passwords, routed through the
// password collaborator (§6) for L1/L2 validation at apply time.
func WithPasswords(level1, level2 string) Option {
	return options.New(func(c *Config) error {
		if _, err := password.Build(level1, level2); err != nil {
			return err
		}

		c.Password1 = level1
		c.Password2 = level2

		return nil
	})
}

// WithSubjectID sets the subject section's subject identifier, carried
// forward unchanged across append-mode opens (§4.3).
func WithSubjectID(id string) Option {
	return options.NoError(func(c *Config) { c.SubjectID = id })
}

// WithFreeText sets the subject section's free-text field, carried
// forward unchanged across append-mode opens (§4.3). Large values are
// stored zstd-compressed on disk; see metadataBytes.
func WithFreeText(text string) Option {
	return options.NoError(func(c *Config) { c.FreeText = text })
}

// WithLittleEndian selects little-endian byte order for every file this
// channel writes (the default).
func WithLittleEndian() Option {
	return options.NoError(func(c *Config) {
		c.Engine = endian.GetLittleEndianEngine()
		c.ByteOrderBig = false
	})
}

// WithBigEndian selects big-endian byte order for every file this
// channel writes.
func WithBigEndian() Option {
	return options.NoError(func(c *Config) {
		c.Engine = endian.GetBigEndianEngine()
		c.ByteOrderBig = true
	})
}

// WithRedCodec overrides the RED compression collaborator (§6). Defaults
// to codec.NewReferenceCodec(), a deterministic stand-in for the real
// entropy codec, which is out of scope (spec §1).
func WithRedCodec(c2 codec.RedCodec) Option {
	return options.NoError(func(c *Config) { c.RedCodec = c2 })
}

// WithChecksum overrides the CRC-32 collaborator. Defaults to crc.IEEE().
func WithChecksum(checksum crc.CRC32) Option {
	return options.NoError(func(c *Config) { c.Checksum = checksum })
}

// WithUUIDGenerator overrides the UUID generation collaborator. Defaults
// to uuidgen.Default(), backed by google/uuid.
func WithUUIDGenerator(gen uuidgen.Generator) Option {
	return options.NoError(func(c *Config) { c.UUIDs = gen })
}

// WithLogger attaches a structured logger used for info-level lifecycle
// events (channel initialized, segment rollover, channel closed). I/O
// errors are returned to the caller, not logged.
func WithLogger(logger log.Logger) Option {
	return options.NoError(func(c *Config) { c.Logger = logger })
}

// maxSamplesPerBlock returns the nominal samples-per-block count,
// ceil(SecsPerBlock * SamplingFrequency).
func (c *Config) maxSamplesPerBlock() int {
	return ceilPositive(c.SecsPerBlock * c.SamplingFrequency)
}

// bufferCapacity returns the raw accumulation buffer size, 2x the nominal
// block sample count (margin for sample-rate drift and residual samples
// near a forced flush, per §4.1).
func (c *Config) bufferCapacity() int {
	return 2 * c.maxSamplesPerBlock()
}

func ceilPositive(f float64) int {
	n := int(f)
	if float64(n) < f {
		n++
	}

	return n
}
