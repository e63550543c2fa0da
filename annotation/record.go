// Package annotation implements the session-level record writer state
// machine (spec §4.4): an append-only pair of files, <session>.rdat and
// <session>.ridx, holding free-text notes, seizure markers, cursors, and
// epochs alongside one fixed-width index entry per record.
package annotation

import (
	"github.com/msel-source/mefwriter/endian"
	"github.com/msel-source/mefwriter/section"
)

var littleEndian = endian.GetLittleEndianEngine()

// RecordKind is one of the four accepted annotation record type tags.
type RecordKind string

// The four accepted record kinds (spec §3 "Annotation Record", §4.4 step 1).
// Any other kind is rejected by ParseRecordKind and silently ignored by
// Writer.Write, per §7's UnknownRecordKind handling.
const (
	KindNote RecordKind = "Note"
	KindSeiz RecordKind = "Seiz"
	KindCurs RecordKind = "Curs"
	KindEpoc RecordKind = "Epoc"
)

// ParseRecordKind validates s against the four accepted kinds. The second
// return value is false for any other string, including the empty string
// — callers must check it explicitly rather than rely on a zero-value
// RecordKind, since §9 calls out the source's kind-acceptance predicate as
// ambiguous and directs implementations to accept exactly this set.
func ParseRecordKind(s string) (RecordKind, bool) {
	switch RecordKind(s) {
	case KindNote, KindSeiz, KindCurs, KindEpoc:
		return RecordKind(s), true
	default:
		return "", false
	}
}

// RecordBody is implemented by the four record payload types. Bytes
// returns the body's unpadded serialized length; WriteInto appends the
// serialized body to buf (which has at least Bytes() spare capacity) and
// returns the result.
type RecordBody interface {
	Bytes() int
	WriteInto(buf []byte) []byte
}

// Record is a tagged union: exactly one of Note/Seiz/Curs/Epoc is non-nil,
// selected by Kind. This mirrors the teacher's preference for small,
// explicit interfaces over reflection-driven dispatch, generalized here
// to a closed four-member union instead of open-ended polymorphism.
type Record struct {
	Kind RecordKind
	Note *NoteBody
	Seiz *SeizBody
	Curs *CursBody
	Epoc *EpocBody
}

// Body returns the field selected by Kind as a RecordBody, or nil if Kind
// is not one of the four accepted kinds. If the selected field is unset,
// the result wraps a nil pointer and is not itself a nil interface.
func (r Record) Body() RecordBody {
	switch r.Kind {
	case KindNote:
		return r.Note
	case KindSeiz:
		return r.Seiz
	case KindCurs:
		return r.Curs
	case KindEpoc:
		return r.Epoc
	default:
		return nil
	}
}

// NoteBody is a null-terminated free-text note.
type NoteBody struct {
	Text string
}

func (b *NoteBody) Bytes() int { return len(b.Text) + 1 } // +1 for the null terminator

func (b *NoteBody) WriteInto(buf []byte) []byte {
	buf = append(buf, []byte(b.Text)...)
	return append(buf, 0)
}

// cursTextFieldLen and epocTextFieldLen are the zero-padded name/text
// field widths for Curs and Epoc bodies, chosen to comfortably hold a
// short human-readable label while keeping the record fixed-width (§4.4:
// "zero-pads the embedded name/text strings so that no uninitialized
// bytes are written").
const (
	seizBodySize     = 32
	cursBodySize     = 40
	cursTextFieldLen = 24
	epocBodySize     = 48
	epocTextFieldLen = 24
)

// SeizBody is a fixed-layout seizure marker: onset/offset timestamps plus
// a numeric severity/type code.
type SeizBody struct {
	OnsetTime  int64
	OffsetTime int64
	Channel    int32
	TypeCode   int32
	Reserved   int64
}

func (b *SeizBody) Bytes() int { return seizBodySize }

func (b *SeizBody) WriteInto(buf []byte) []byte {
	var tmp [seizBodySize]byte
	littleEndian.PutUint64(tmp[0:8], uint64(b.OnsetTime))   //nolint:gosec
	littleEndian.PutUint64(tmp[8:16], uint64(b.OffsetTime)) //nolint:gosec
	littleEndian.PutUint32(tmp[16:20], uint32(b.Channel))   //nolint:gosec
	littleEndian.PutUint32(tmp[20:24], uint32(b.TypeCode))  //nolint:gosec
	littleEndian.PutUint64(tmp[24:32], uint64(b.Reserved))  //nolint:gosec

	return append(buf, tmp[:]...)
}

// CursBody is a named time cursor marker.
type CursBody struct {
	Time int64
	Name string // truncated/zero-padded to cursTextFieldLen bytes
}

func (b *CursBody) Bytes() int { return cursBodySize }

func (b *CursBody) WriteInto(buf []byte) []byte {
	var tmp [cursBodySize]byte
	littleEndian.PutUint64(tmp[0:8], uint64(b.Time)) //nolint:gosec
	putZeroPaddedText(tmp[8:8+cursTextFieldLen], b.Name)

	return append(buf, tmp[:]...)
}

// EpocBody marks a labeled time epoch (start/stop pair with a text label).
type EpocBody struct {
	StartTime int64
	StopTime  int64
	Text      string // truncated/zero-padded to epocTextFieldLen bytes
}

func (b *EpocBody) Bytes() int { return epocBodySize }

func (b *EpocBody) WriteInto(buf []byte) []byte {
	var tmp [epocBodySize]byte
	littleEndian.PutUint64(tmp[0:8], uint64(b.StartTime)) //nolint:gosec
	littleEndian.PutUint64(tmp[8:16], uint64(b.StopTime)) //nolint:gosec
	putZeroPaddedText(tmp[16:16+epocTextFieldLen], b.Text)

	return append(buf, tmp[:]...)
}

func putZeroPaddedText(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}

	copy(dst, s)
}

// padLen returns (-bodyLen) mod 16, the padding needed to align a record
// body to the next 16-byte multiple for optional body encryption (§4.4
// step 3).
func padLen(bodyLen int) int {
	r := bodyLen % section.RecordPadAlignment
	if r == 0 {
		return 0
	}

	return section.RecordPadAlignment - r
}
