// Package crc provides the CRC-32 collaborator interface used to maintain
// the header and body checksums of every file the writer produces.
//
// MEF universal headers carry two running checksums: header_CRC, computed
// once over the header bytes after the CRC field itself, and body_CRC,
// an incremental checksum folded over every payload byte written after
// the header. CRC32 exposes both the one-shot and incremental forms.
package crc

import "hash/crc32"

// CRC32 computes CRC-32 checksums, either in one shot over a complete
// buffer or incrementally as bytes are appended to a growing body.
type CRC32 interface {
	// Start returns the initial accumulator value for an empty body.
	Start() uint32

	// Update folds buf into the running checksum prev and returns the new
	// accumulator value.
	Update(buf []byte, prev uint32) uint32

	// Calculate computes the checksum of buf in isolation, equivalent to
	// Update(buf, Start()).
	Calculate(buf []byte) uint32
}

// ieee implements CRC32 using the IEEE polynomial (the standard
// zlib/gzip polynomial), matching the default table used throughout the
// retrieved corpus for generic file checksums.
type ieee struct{}

// IEEE returns a CRC32 using the IEEE 802.3 polynomial.
func IEEE() CRC32 { return ieee{} }

func (ieee) Start() uint32 { return 0 }

func (ieee) Update(buf []byte, prev uint32) uint32 {
	return crc32.Update(prev, crc32.IEEETable, buf)
}

func (ieee) Calculate(buf []byte) uint32 {
	return crc32.ChecksumIEEE(buf)
}

// castagnoli implements CRC32 using the Castagnoli polynomial, the
// convention used by segment-oriented storage formats (e.g. Prometheus's
// TSDB chunk segments) for faster hardware-accelerated checksums.
type castagnoli struct {
	table *crc32.Table
}

// Castagnoli returns a CRC32 using the Castagnoli polynomial. Prefer this
// constructor when the target platform has SSE4.2/ARM CRC32 instructions,
// since crc32.MakeTable(crc32.Castagnoli) is hardware-accelerated on amd64
// and arm64 by the standard library.
func Castagnoli() CRC32 {
	return castagnoli{table: crc32.MakeTable(crc32.Castagnoli)}
}

func (c castagnoli) Start() uint32 { return 0 }

func (c castagnoli) Update(buf []byte, prev uint32) uint32 {
	return crc32.Update(prev, c.table, buf)
}

func (c castagnoli) Calculate(buf []byte) uint32 {
	return crc32.Checksum(buf, c.table)
}
