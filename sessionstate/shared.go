// Package sessionstate holds the process-global state shared by every
// channel writer within a session: the recording-time anonymization
// offset and the session's GMT offset (§5, §9 "Process-global time
// offset").
package sessionstate

import "sync"

// Shared is the one process-global structure referenced by every channel
// writer driven against the same session. Because multiple channels may
// be driven concurrently (§5), its lazy initialization is guarded by a
// sync.Once rather than left to a data race.
type Shared struct {
	mu sync.Mutex // guards recordingTimeOffset reads after Once fires

	once                sync.Once
	recordingTimeOffset int64
	gmtOffsetSeconds    int64
	anonymize           bool

	manifestMu sync.Mutex // guards session-wide manifest file writes
}

// New returns a Shared for a session. anonymize controls whether
// EnsureRecordingTimeOffset ever derives a non-zero offset; when false,
// the recording-time offset stays zero for the session's lifetime.
func New(anonymize bool, gmtOffsetSeconds int64) *Shared {
	return &Shared{anonymize: anonymize, gmtOffsetSeconds: gmtOffsetSeconds}
}

// EnsureRecordingTimeOffset derives the session's recording-time offset
// from the first block timestamp ever written across all channels, if
// anonymization is active and no offset has been derived yet. Safe for
// concurrent callers; only the first call's firstTimestamp has any
// effect.
func (s *Shared) EnsureRecordingTimeOffset(firstTimestamp int64) int64 {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.anonymize {
			s.recordingTimeOffset = firstTimestamp
		}
	})

	return s.RecordingTimeOffset()
}

// RecordingTimeOffset returns the currently derived offset (zero if
// EnsureRecordingTimeOffset has not yet been called, or anonymization is
// disabled).
func (s *Shared) RecordingTimeOffset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.recordingTimeOffset
}

// GMTOffsetSeconds returns the session-wide GMT offset.
func (s *Shared) GMTOffsetSeconds() int64 {
	return s.gmtOffsetSeconds
}

// Anonymized reports whether time anonymization is active for this
// session.
func (s *Shared) Anonymized() bool {
	return s.anonymize
}

// ManifestMu guards concurrent channel-creation writes to the session's
// manifest file (§4.5, §5 "The manifest file is similarly a session-wide
// resource").
func (s *Shared) ManifestMu() *sync.Mutex {
	return &s.manifestMu
}
