package codec

import (
	"encoding/binary"
)

// ReferenceCodec is a deterministic, dependency-free RedCodec used by
// tests and examples. It is not the production RED entropy codec (out of
// scope per spec §1) — it stores a block header followed by the raw
// difference-encoded samples (first sample absolute, rest as int32
// deltas), so callers can exercise the full channel writer state machine
// without the real collaborator.
type ReferenceCodec struct {
	scratch []byte
}

var _ RedCodec = (*ReferenceCodec)(nil)

// NewReferenceCodec returns a ready-to-allocate ReferenceCodec.
func NewReferenceCodec() *ReferenceCodec {
	return &ReferenceCodec{}
}

// refBlockHeaderSize is the size in bytes of the reference codec's
// self-describing block header prefix, preceding the difference payload.
const refBlockHeaderSize = 21 // start_time(8) + sample_count(4) + flags(1) + difference_bytes(4) + reserved(4)

func (c *ReferenceCodec) Allocate(maxSamples int) error {
	need := refBlockHeaderSize + maxSamples*5 // worst case: 4-byte delta + 1 tag byte is not used; keep generous
	if cap(c.scratch) < need {
		c.scratch = make([]byte, 0, need)
	}

	return nil
}

func (c *ReferenceCodec) Encode(samples []int32, n int, discontinuity bool, startTime int64) ([]byte, BlockHeader, error) {
	c.scratch = c.scratch[:0]

	// Difference-encode: first sample absolute, remainder as deltas.
	diff := make([]byte, 0, n*4)
	var prev int32
	for i := 0; i < n; i++ {
		var v int32
		if i == 0 {
			v = samples[0]
		} else {
			v = samples[i] - prev
		}
		prev = samples[i]

		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(v))
		diff = append(diff, tmp[:]...)
	}

	var flags uint8
	if discontinuity {
		flags |= FlagDiscontinuity
	}

	hdrBuf := make([]byte, refBlockHeaderSize)
	binary.LittleEndian.PutUint64(hdrBuf[0:8], uint64(startTime))
	binary.LittleEndian.PutUint32(hdrBuf[8:12], uint32(n)) //nolint:gosec
	hdrBuf[12] = flags
	binary.LittleEndian.PutUint32(hdrBuf[13:17], uint32(len(diff))) //nolint:gosec
	// bytes 17:21 reserved, left zero

	block := append(c.scratch, hdrBuf...)
	block = append(block, diff...)

	header := BlockHeader{
		StartTime:       startTime,
		SampleCount:     n,
		BlockBytes:      len(block),
		DifferenceBytes: len(diff),
		Flags:           flags,
		Discontinuity:   discontinuity,
	}

	return block, header, nil
}

func (c *ReferenceCodec) FindExtrema(samples []int32, n int) (int32, int32) {
	if n == 0 {
		return 0, 0
	}

	min, max := samples[0], samples[0]
	for i := 1; i < n; i++ {
		if samples[i] < min {
			min = samples[i]
		}
		if samples[i] > max {
			max = samples[i]
		}
	}

	return min, max
}

// DecodeReferenceBlock reverses ReferenceCodec.Encode, returning the
// samples it encoded. Provided for tests that need to verify round-trip
// fidelity of a channel's written data file.
func DecodeReferenceBlock(block []byte) ([]int32, BlockHeader, error) {
	startTime := int64(binary.LittleEndian.Uint64(block[0:8])) //nolint:gosec
	n := int(binary.LittleEndian.Uint32(block[8:12]))
	flags := block[12]
	diffBytes := int(binary.LittleEndian.Uint32(block[13:17]))

	payload := block[refBlockHeaderSize : refBlockHeaderSize+diffBytes]
	samples := make([]int32, n)

	var cur int32
	for i := 0; i < n; i++ {
		v := int32(binary.LittleEndian.Uint32(payload[i*4 : i*4+4])) //nolint:gosec
		if i == 0 {
			cur = v
		} else {
			cur += v
		}
		samples[i] = cur
	}

	return samples, BlockHeader{
		StartTime:       startTime,
		SampleCount:     n,
		BlockBytes:      len(block),
		DifferenceBytes: diffBytes,
		Flags:           flags,
		Discontinuity:   flags&FlagDiscontinuity != 0,
	}, nil
}
