// Package section defines the fixed-size, byte-packed on-disk structures
// shared by every MEF 3.0 file the writer produces: the universal header
// preamble, the index entry, and the three-section segment metadata
// record. All multi-byte fields are written through an endian.EndianEngine
// so the writer can target either byte order, mirroring the teacher
// package's header (de)serialization convention.
package section
