package sessionstate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShared_AnonymizationDisabled_OffsetStaysZero(t *testing.T) {
	s := New(false, 0)

	offset := s.EnsureRecordingTimeOffset(1_700_000_000)
	require.Equal(t, int64(0), offset)
	require.Equal(t, int64(0), s.RecordingTimeOffset())
	require.False(t, s.Anonymized())
}

func TestShared_AnonymizationEnabled_DerivesOffsetFromFirstCall(t *testing.T) {
	s := New(true, 0)

	first := s.EnsureRecordingTimeOffset(1_700_000_000)
	require.Equal(t, int64(1_700_000_000), first)

	// A later call with a different timestamp must not re-derive the offset.
	second := s.EnsureRecordingTimeOffset(1_800_000_000)
	require.Equal(t, int64(1_700_000_000), second)
	require.Equal(t, int64(1_700_000_000), s.RecordingTimeOffset())
}

func TestShared_EnsureRecordingTimeOffset_ConcurrentCallersAgreeOnFirstWriter(t *testing.T) {
	s := New(true, 0)

	const goroutines = 50
	results := make([]int64, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := range goroutines {
		go func(i int) {
			defer wg.Done()
			results[i] = s.EnsureRecordingTimeOffset(int64(1000 + i))
		}(i)
	}
	wg.Wait()

	want := results[0]
	for _, got := range results {
		require.Equal(t, want, got)
	}
	require.Equal(t, want, s.RecordingTimeOffset())
}

func TestShared_GMTOffsetSeconds(t *testing.T) {
	s := New(false, -6*3600)
	require.Equal(t, int64(-6*3600), s.GMTOffsetSeconds())
}

func TestShared_ManifestMu_SameInstanceAcrossCalls(t *testing.T) {
	s := New(false, 0)
	require.Same(t, s.ManifestMu(), s.ManifestMu())
}
