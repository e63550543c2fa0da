package section

import (
	"time"

	"github.com/msel-source/mefwriter/crc"
	"github.com/msel-source/mefwriter/endian"
	"github.com/msel-source/mefwriter/errs"
)

// UniversalHeader is the fixed-size preamble attached to every on-disk
// file: segment metadata, data, index, session record data/index, and
// the session manifest.
type UniversalHeader struct {
	ByteOrderBig bool // false = little-endian (default), true = big-endian

	SegmentNumber int32 // segment number, or a session-level sentinel

	HeaderCRC uint32 // CRC over bytes [HeaderCRCFieldEnd:UniversalHeaderSize) of the serialized header
	BodyCRC   uint32 // incremental CRC over every payload byte written after the header

	StartTime       int64 // µs since Unix epoch; sentinel math.MaxInt64 means "unset"
	EndTime         int64
	NumberOfEntries uint64
	MaximumEntrySize uint32

	FileUUID  [16]byte
	LevelUUID [16]byte

	SessionName    string
	ChannelName    string
	AnonymizedName string
}

// StartTimeUnset and EndTimeUnset are the "no entry yet" sentinels for a
// freshly initialized header, matching the NaN-sentinel convention used
// for native sample extrema (§4.1) but for int64 time fields.
const (
	StartTimeUnset int64 = 1<<63 - 1 // math.MaxInt64, avoids importing math for one constant
	EndTimeUnset   int64 = -(1<<63 - 1) - 1
)

// NewUniversalHeader creates a fresh header for a newly created file.
func NewUniversalHeader(segmentNumber int32, fileUUID, levelUUID [16]byte) *UniversalHeader {
	return &UniversalHeader{
		SegmentNumber:  segmentNumber,
		StartTime:      StartTimeUnset,
		EndTime:        EndTimeUnset,
		FileUUID:       fileUUID,
		LevelUUID:      levelUUID,
	}
}

func (h *UniversalHeader) engine() endian.EndianEngine {
	if h.ByteOrderBig {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// Bytes serializes the header, computing and storing HeaderCRC over the
// bytes that follow the CRC field, per spec §3: "header_CRC =
// CRC(header_bytes_after_CRC_field) computed last".
func (h *UniversalHeader) Bytes(checksum crc.CRC32) []byte {
	b := make([]byte, UniversalHeaderSize)
	e := h.engine()

	if h.ByteOrderBig {
		b[ByteOrderCodeOffset] = 1
	}
	b[VersionMajorOffset] = MefVersionMajor
	b[VersionMinorOffset] = MefVersionMinor
	e.PutUint32(b[SegmentNumberOffset:], uint32(h.SegmentNumber)) //nolint:gosec

	e.PutUint64(b[StartTimeOffset:], uint64(h.StartTime)) //nolint:gosec
	e.PutUint64(b[EndTimeOffset:], uint64(h.EndTime))     //nolint:gosec
	e.PutUint64(b[NumberOfEntriesOff:], h.NumberOfEntries)
	e.PutUint32(b[MaximumEntrySizeOff:], h.MaximumEntrySize)
	e.PutUint32(b[BodyCRCOffset:], h.BodyCRC)

	copy(b[FileUUIDOffset:FileUUIDOffset+16], h.FileUUID[:])
	copy(b[LevelUUIDOffset:LevelUUIDOffset+16], h.LevelUUID[:])

	putFixedString(b[SessionNameOffset:SessionNameOffset+NameFieldSize], h.SessionName)
	putFixedString(b[ChannelNameOffset:ChannelNameOffset+NameFieldSize], h.ChannelName)
	putFixedString(b[AnonymizedNameOffset:AnonymizedNameOffset+NameFieldSize], h.AnonymizedName)

	h.HeaderCRC = checksum.Calculate(b[HeaderCRCFieldEnd:])
	e.PutUint32(b[HeaderCRCOffset:], h.HeaderCRC)

	return b
}

// Parse decodes a UniversalHeader from exactly UniversalHeaderSize bytes
// and verifies its HeaderCRC.
func (h *UniversalHeader) Parse(data []byte, checksum crc.CRC32) error {
	if len(data) != UniversalHeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	h.ByteOrderBig = data[ByteOrderCodeOffset] == 1
	e := h.engine()

	h.SegmentNumber = int32(e.Uint32(data[SegmentNumberOffset:])) //nolint:gosec
	h.HeaderCRC = e.Uint32(data[HeaderCRCOffset:])

	want := checksum.Calculate(data[HeaderCRCFieldEnd:])
	if want != h.HeaderCRC {
		return errs.ErrHeaderCRCMismatch
	}

	h.StartTime = int64(e.Uint64(data[StartTimeOffset:])) //nolint:gosec
	h.EndTime = int64(e.Uint64(data[EndTimeOffset:]))      //nolint:gosec
	h.NumberOfEntries = e.Uint64(data[NumberOfEntriesOff:])
	h.MaximumEntrySize = e.Uint32(data[MaximumEntrySizeOff:])
	h.BodyCRC = e.Uint32(data[BodyCRCOffset:])

	copy(h.FileUUID[:], data[FileUUIDOffset:FileUUIDOffset+16])
	copy(h.LevelUUID[:], data[LevelUUIDOffset:LevelUUIDOffset+16])

	h.SessionName = getFixedString(data[SessionNameOffset : SessionNameOffset+NameFieldSize])
	h.ChannelName = getFixedString(data[ChannelNameOffset : ChannelNameOffset+NameFieldSize])
	h.AnonymizedName = getFixedString(data[AnonymizedNameOffset : AnonymizedNameOffset+NameFieldSize])

	return nil
}

// StartTimeAsTime converts StartTime to a time.Time, or the zero Time if unset.
func (h *UniversalHeader) StartTimeAsTime() time.Time {
	if h.StartTime == StartTimeUnset {
		return time.Time{}
	}

	return time.UnixMicro(h.StartTime)
}

func putFixedString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}

	n := copy(dst, s)
	_ = n
}

func getFixedString(src []byte) string {
	end := 0
	for end < len(src) && src[end] != 0 {
		end++
	}

	return string(src[:end])
}
