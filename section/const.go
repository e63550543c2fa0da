package section

// Universal header layout. Every on-disk file (segment metadata, data,
// index, session record data/index, manifest) begins with exactly
// UniversalHeaderSize bytes laid out below, little- or big-endian per
// ByteOrderCode.
//
//	off  len  field
//	0    1    byte_order_code   (0 = little-endian, 1 = big-endian)
//	1    1    mef_version_major
//	2    1    mef_version_minor
//	3    1    reserved
//	4    4    segment_number    (int32; session-level sentinel = SessionLevelSegmentNumber)
//	8    4    header_CRC        (CRC over bytes [HeaderCRCFieldEnd:UniversalHeaderSize))
//	12   8    start_time        (int64 µs)
//	20   8    end_time          (int64 µs)
//	28   8    number_of_entries (uint64)
//	36   4    maximum_entry_size(uint32)
//	40   4    body_CRC          (uint32)
//	44   16   file_UUID
//	60   16   level_UUID
//	76   32   session_name      (null-padded)
//	108  32   channel_name      (null-padded)
//	140  32   anonymized_name   (null-padded)
//	172  84   reserved
const (
	ByteOrderCodeOffset  = 0
	VersionMajorOffset   = 1
	VersionMinorOffset   = 2
	SegmentNumberOffset  = 4
	HeaderCRCOffset      = 8
	HeaderCRCFieldEnd    = HeaderCRCOffset + 4
	StartTimeOffset      = 12
	EndTimeOffset        = 20
	NumberOfEntriesOff   = 28
	MaximumEntrySizeOff  = 36
	BodyCRCOffset        = 40
	FileUUIDOffset       = 44
	LevelUUIDOffset      = 60
	SessionNameOffset    = 76
	ChannelNameOffset    = 108
	AnonymizedNameOffset = 140

	NameFieldSize = 32

	// UniversalHeaderSize is the total fixed size of every file's preamble.
	UniversalHeaderSize = 256

	// MefVersionMajor/Minor identify the on-disk format version this
	// writer emits.
	MefVersionMajor = 3
	MefVersionMinor = 0

	// SessionLevelSegmentNumber is the sentinel segment_number written
	// into session-level files (record data/index, manifest) that are not
	// associated with any single channel segment.
	SessionLevelSegmentNumber int32 = -3

	// UnsetSegmentNumber marks a header that has not yet been assigned a
	// concrete segment (used transiently before the first rollover).
	UnsetSegmentNumber int32 = -1
)

// IndexEntry layout (§3 of the specification): 45 bytes of defined
// fields followed by IndexEntryReserved bytes of protected/discretionary
// padding, little-endian.
//
//	off  len  field
//	0    8    file_offset
//	8    8    start_time
//	16   8    start_sample
//	24   4    number_of_samples
//	28   4    block_bytes
//	32   4    maximum_sample_value (signed)
//	36   4    minimum_sample_value (signed)
//	40   4    reserved, zero
//	44   1    flags
//	45   R    reserved
const (
	IndexEntryDefinedSize = 45
	IndexEntryReserved    = 3
	IndexEntrySize        = IndexEntryDefinedSize + IndexEntryReserved // 48, 8-byte aligned

	IndexFileOffsetOff  = 0
	IndexStartTimeOff   = 8
	IndexStartSampleOff = 16
	IndexNumSamplesOff  = 24
	IndexBlockBytesOff  = 28
	IndexMaxSampleOff   = 32
	IndexMinSampleOff   = 36
	IndexReservedOff    = 40
	IndexFlagsOff       = 44
)

// RecordIndexEntry layout: fixed-width entry mirroring a record header,
// 32 bytes.
//
//	off  len  field
//	0    4    type_string (4-char kind tag, e.g. "Note")
//	4    4    version (major uint16, minor uint16)
//	8    1    encryption
//	9    7    reserved
//	16   8    time
//	24   8    file_offset
const (
	RecordIndexEntrySize = 32

	RecordKindOff      = 0
	RecordVersionOff   = 4
	RecordEncryptOff   = 8
	RecordTimeOff      = 16
	RecordFileOffOff   = 24
)

// RecordHeader layout: fixed-width header preceding every record body.
//
//	off  len  field
//	0    4    type_string
//	4    4    version
//	8    1    encryption
//	9    3    reserved
//	12   4    bytes (body_len + pad)
//	16   8    time
//	24   4    record_CRC
//	28   4    reserved
const (
	RecordHeaderSize = 32

	RecHdrKindOff    = 0
	RecHdrVersionOff = 4
	RecHdrEncryptOff = 8
	RecHdrBytesOff   = 12
	RecHdrTimeOff    = 16
	RecHdrCRCOff     = 24

	// RecordPadAlignment is the byte multiple every record body is padded
	// to, reserving room for optional body encryption blocks.
	RecordPadAlignment = 16
)
