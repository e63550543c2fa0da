// Package offset is the time-offset arithmetic collaborator (§6 external
// interfaces, §9 "process-global time offset"): deriving and applying the
// session-wide recording-time anonymization offset against raw sample and
// record timestamps.
package offset

// Apply subtracts offset from t, per §4.1/§4.4's anonymization rule:
// anonymized timestamps are always recorded relative to the session's
// first block, never to wall-clock time.
func Apply(t, offset int64) int64 {
	return t - offset
}
