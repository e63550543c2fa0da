// Package codec defines the RED (Range Encoded Differences) compression
// collaborator interface assumed by the channel writer. The codec itself
// is out of scope for this module (spec §1): this package only specifies
// the interface the channel writer drives, plus a deterministic reference
// implementation used by tests and a decorator that runs a secondary LZ4
// pass over already-compressed blocks.
package codec

// BlockHeader carries the RED-codec-populated fields of a compressed
// block. The channel writer copies Flags into the block's index entry and
// DifferenceBytes into segment metadata; the index entry's start time and
// block byte count come from the writer itself.
type BlockHeader struct {
	StartTime        int64 // start time passed to Encode (the channel writer passes the raw, pre-offset time)
	SampleCount      int   // number of samples represented by this block
	BlockBytes       int   // total compressed byte length of the block (header + payload)
	DifferenceBytes  int   // byte length of the difference-encoded payload
	Flags            uint8
	Discontinuity    bool
}

// RedCodec compresses a vector of int32 samples into a self-describing
// compressed block. Implementations own their own scratch buffers; the
// channel writer calls Allocate each time it opens a segment and reuses
// the same codec for every block.
type RedCodec interface {
	// Allocate prepares codec-internal scratch space sized for up to
	// maxSamples samples per block. Called once during channel
	// initialization (or segment rollover, if per-segment state is kept).
	Allocate(maxSamples int) error

	// Encode compresses samples[:n] into a block, tagging it with
	// discontinuity and startTime. It returns the compressed block bytes
	// (header-prefixed, ready to append to the data file) and the
	// populated BlockHeader describing it.
	Encode(samples []int32, n int, discontinuity bool, startTime int64) ([]byte, BlockHeader, error)

	// FindExtrema returns the minimum and maximum of samples[:n].
	FindExtrema(samples []int32, n int) (min, max int32)
}

// LZ4PrePass decorates a RedCodec, running a secondary LZ4 compression
// pass over the already-RED-compressed block bytes. It is opt-in for
// channels whose units_conversion_factor indicates already-noisy signals,
// where RED alone under-compresses and a general-purpose pass still
// recovers space.
//
// The decorator never changes BlockHeader.BlockBytes, which keeps the
// inner RED block size. The channel writer, however, records the length
// of the returned (LZ4-compressed) bytes as the index entry's block_bytes
// and advances its data-file offset by that length. FindExtrema and the
// header fields are passed through unchanged.
type LZ4PrePass struct {
	inner      RedCodec
	compressor lz4Compressor
}

// lz4Compressor is the minimal subset of compress.Compressor this
// decorator needs, kept narrow to avoid importing the compress package's
// full surface (including zstd/s2) for a single LZ4 call site.
type lz4Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// NewLZ4PrePass wraps inner with an LZ4 post-compression pass using comp
// as the LZ4 compressor (typically compress.NewLZ4Compressor()).
func NewLZ4PrePass(inner RedCodec, comp lz4Compressor) *LZ4PrePass {
	return &LZ4PrePass{inner: inner, compressor: comp}
}

func (d *LZ4PrePass) Allocate(maxSamples int) error { return d.inner.Allocate(maxSamples) }

func (d *LZ4PrePass) Encode(samples []int32, n int, discontinuity bool, startTime int64) ([]byte, BlockHeader, error) {
	block, hdr, err := d.inner.Encode(samples, n, discontinuity, startTime)
	if err != nil {
		return nil, BlockHeader{}, err
	}

	compressed, err := d.compressor.Compress(block)
	if err != nil {
		return nil, BlockHeader{}, err
	}

	return compressed, hdr, nil
}

func (d *LZ4PrePass) FindExtrema(samples []int32, n int) (int32, int32) {
	return d.inner.FindExtrema(samples, n)
}

// blockFlags, bit layout of BlockHeader.Flags.
const (
	FlagDiscontinuity uint8 = 0x01 // block was forced by a timestamp discontinuity
	FlagBitShifted    uint8 = 0x02 // samples were bit-shifted (/4) before compression
)
