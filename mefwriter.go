// Package mefwriter provides a streaming writer for MEF 3.0 (Multiscale
// Electrophysiology Format) recordings: per-channel RED-compressed block
// storage with time-budgeted segment rollover, session-level free-text
// and event annotations, and a session manifest tying channels together.
//
// # Core Features
//
//   - Streaming, low-memory channel ingest: samples are RED-encoded and
//     flushed in blocks as they arrive, never buffered for a whole session
//   - Automatic segment rollover on a configurable wall-clock budget
//   - Discontinuity detection on timestamp gaps, independent of rollover
//   - Append mode: resume writing a channel across process restarts
//   - Session-level annotation records (notes, seizure markers, cursors,
//     labeled epochs) in a compact append-only pair of files
//   - Idempotent session manifest registration
//   - Optional time anonymization, derived once per session
//
// # Basic Usage
//
// Writing a channel:
//
//	import "github.com/msel-source/mefwriter"
//
//	shared := sessionstate.New(false, 0) // no anonymization, UTC
//	ch, err := mefwriter.NewChannel(root, "patient-001", "eeg-fp1", 0, "anon-fp1", shared,
//	    mefwriter.WithSamplingFrequency(256),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ch.Close()
//
//	err = ch.Write(packetTimes, samples)
//
// Recording an annotation:
//
//	notes, err := mefwriter.NewAnnotationWriter(root, "patient-001", shared)
//	defer notes.Close()
//	err = notes.Write(timestamp, string(annotation.KindNote), &annotation.NoteBody{Text: "lights off"})
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the
// channel, annotation, and manifest packages. For advanced usage and
// fine-grained control over collaborators (codec, checksum, UUIDs,
// logger), use those packages directly.
package mefwriter

import (
	"github.com/msel-source/mefwriter/annotation"
	"github.com/msel-source/mefwriter/channel"
	"github.com/msel-source/mefwriter/crc"
	"github.com/msel-source/mefwriter/internal/uuidgen"
	"github.com/msel-source/mefwriter/manifest"
	"github.com/msel-source/mefwriter/sessionstate"
)

// Channel is the streaming per-channel writer. See channel.Channel.
type Channel = channel.Channel

// ChannelOption configures a Channel. See channel.Option.
type ChannelOption = channel.Option

// Re-exported channel options, so callers configuring a Channel need
// only import this package for the common case.
var (
	WithSamplingFrequency     = channel.WithSamplingFrequency
	WithBlockInterval         = channel.WithBlockInterval
	WithSecsPerBlock          = channel.WithSecsPerBlock
	WithSecsPerSegment        = channel.WithSecsPerSegment
	WithBitShift              = channel.WithBitShift
	WithUnitsConversionFactor = channel.WithUnitsConversionFactor
	WithFilterSettings        = channel.WithFilterSettings
	WithACLineFrequency       = channel.WithACLineFrequency
	WithGMTOffset             = channel.WithGMTOffset
	WithPasswords             = channel.WithPasswords
	WithLittleEndian          = channel.WithLittleEndian
	WithBigEndian             = channel.WithBigEndian
)

// NewChannel performs §4.1-style channel initialization: it creates the
// session/channel/segment directory hierarchy and opens the first
// segment's three files, ready for Write.
func NewChannel(root, session, baseName string, channelNumber int, anonymizedName string, shared *sessionstate.Shared, opts ...ChannelOption) (*Channel, error) {
	return channel.NewChannel(root, session, baseName, channelNumber, anonymizedName, shared, opts...)
}

// OpenChannelForAppend resumes writing a channel whose most recent
// segment is lastSegmentNumber, carrying forward its sample count into a
// freshly opened next segment.
func OpenChannelForAppend(root, session, baseName string, channelNumber int, anonymizedName string, shared *sessionstate.Shared, lastSegmentNumber int32, opts ...ChannelOption) (*Channel, error) {
	return channel.OpenForAppend(root, session, baseName, channelNumber, anonymizedName, shared, lastSegmentNumber, opts...)
}

// AnnotationWriter is the session-level record writer. See
// annotation.Writer.
type AnnotationWriter = annotation.Writer

// AnnotationOption configures an AnnotationWriter. See annotation.Option.
type AnnotationOption = annotation.Option

// NewAnnotationWriter opens (creating if necessary) the session's
// <session>.rdat/<session>.ridx record files.
func NewAnnotationWriter(root, session string, shared *sessionstate.Shared, opts ...AnnotationOption) (*AnnotationWriter, error) {
	return annotation.Open(root, session, shared, opts...)
}

// RegisterChannel idempotently registers channelName in the session's
// manifest (<session>.mefd), skipping the write entirely when encrypted
// is true.
func RegisterChannel(root, session, channelName string, shared *sessionstate.Shared, encrypted bool) error {
	return manifest.Register(root, session, channelName, shared, encrypted, crc.IEEE(), uuidgen.Default())
}

// NewSharedState constructs the process-wide session state governing
// time anonymization and manifest-write serialization. Call this once
// per session and pass the result to every Channel/AnnotationWriter/
// RegisterChannel call for that session.
func NewSharedState(anonymize bool, gmtOffsetSeconds int64) *sessionstate.Shared {
	return sessionstate.New(anonymize, gmtOffsetSeconds)
}
