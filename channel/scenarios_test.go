package channel

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msel-source/mefwriter/section"
	"github.com/msel-source/mefwriter/sessionstate"
)

// sineWaveSamples generates n samples of floor(20000*sin(2*pi*10*i/1000))
// starting at startTime with a 1000us step, per §8 scenario 1/2.
func sineWaveSamples(n int, startTime int64) ([]int64, []int32) {
	times := make([]int64, n)
	samples := make([]int32, n)
	for i := 0; i < n; i++ {
		times[i] = startTime + int64(i)*1000
		samples[i] = int32(math.Floor(20000 * math.Sin(2*math.Pi*10*float64(i)/1000)))
	}

	return times, samples
}

// readIndexEntries reads every IndexEntry currently persisted in path's
// index file, skipping the universal header.
func readIndexEntries(t *testing.T, path string) []section.IndexEntry {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec
	require.NoError(t, err)

	body := data[section.UniversalHeaderSize:]
	require.Zero(t, len(body)%section.IndexEntrySize)

	engine := NewConfig().Engine

	entries := make([]section.IndexEntry, 0, len(body)/section.IndexEntrySize)
	for off := 0; off < len(body); off += section.IndexEntrySize {
		entry, err := section.ParseIndexEntry(body[off:off+section.IndexEntrySize], engine)
		require.NoError(t, err)
		entries = append(entries, entry)
	}

	return entries
}

// TestScenario_SineSingleBlock covers §8 scenario 1: 1000 samples of a
// sine wave at 1000Hz fit in exactly one block.
func TestScenario_SineSingleBlock(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	c, err := NewChannel(root, "sess-scenario1", "chan-A", 0, "anon", shared,
		WithSamplingFrequency(1000), WithBlockInterval(1_000_000), WithSecsPerBlock(1.0))
	require.NoError(t, err)

	times, samples := sineWaveSamples(1000, 946_684_800_000_000)
	require.NoError(t, c.Write(times, samples))
	require.NoError(t, c.Close())

	require.EqualValues(t, 1, c.meta.Channel.NumberOfBlocks)
	require.EqualValues(t, 1000, c.meta.Channel.NumberOfSamples)
	require.EqualValues(t, 1, c.meta.Channel.NumberOfDiscontinuities)
	require.InDelta(t, 1_000_000, c.meta.Channel.RecordingDuration, 1000)

	_, _, indexPath := segmentFilePaths(root, "sess-scenario1", "chan-A", 0)
	entries := readIndexEntries(t, indexPath)
	require.Len(t, entries, 1)
	require.EqualValues(t, 1000, entries[0].NumberOfSamples)
}

// TestScenario_SineTenBlocks covers §8 scenario 2: 10,000 samples split
// into exactly 10 contiguous blocks, start_sample chained 0,1000,...,9000,
// only the first flagged discontinuous.
func TestScenario_SineTenBlocks(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	c, err := NewChannel(root, "sess-scenario2", "chan-A", 0, "anon", shared,
		WithSamplingFrequency(1000), WithBlockInterval(1_000_000), WithSecsPerBlock(1.0))
	require.NoError(t, err)

	times, samples := sineWaveSamples(10_000, 946_684_800_000_000)
	require.NoError(t, c.Write(times, samples))
	require.NoError(t, c.Close())

	require.EqualValues(t, 10, c.meta.Channel.NumberOfBlocks)
	require.EqualValues(t, 1, c.meta.Channel.NumberOfDiscontinuities)
	require.EqualValues(t, 10, c.meta.Channel.MaximumContiguousBlocks)

	_, _, indexPath := segmentFilePaths(root, "sess-scenario2", "chan-A", 0)
	entries := readIndexEntries(t, indexPath)
	require.Len(t, entries, 10)
	for i, entry := range entries {
		require.EqualValuesf(t, i*1000, entry.StartSample, "entry %d start_sample", i)
	}
}

// TestScenario_DiscontinuityMidStream covers §8 scenario 3: a mid-stream
// timestamp jump splits the run into two discontinuous blocks.
func TestScenario_DiscontinuityMidStream(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	c, err := NewChannel(root, "sess-scenario3", "chan-A", 0, "anon", shared,
		WithSamplingFrequency(1000), WithBlockInterval(1_000_000), WithSecsPerBlock(1.0))
	require.NoError(t, err)

	base := int64(946_684_800_000_000)
	times1 := make([]int64, 500)
	samples1 := make([]int32, 500)
	for i := range times1 {
		times1[i] = base + int64(i)*1000
		samples1[i] = int32(i)
	}

	jumpStart := times1[499] + 1000 + 500_000
	times2 := make([]int64, 500)
	samples2 := make([]int32, 500)
	for i := range times2 {
		times2[i] = jumpStart + int64(i)*1000
		samples2[i] = int32(i)
	}

	require.NoError(t, c.Write(times1, samples1))
	require.NoError(t, c.Write(times2, samples2))
	require.NoError(t, c.Close())

	require.EqualValues(t, 2, c.meta.Channel.NumberOfBlocks)
	require.EqualValues(t, 2, c.meta.Channel.NumberOfDiscontinuities)

	_, _, indexPath := segmentFilePaths(root, "sess-scenario3", "chan-A", 0)
	entries := readIndexEntries(t, indexPath)
	require.Len(t, entries, 2)
	for i, entry := range entries {
		require.NotZerof(t, entry.Flags, "entry %d must be flagged discontinuous", i)
	}
}

// TestScenario_SegmentRollover covers §8 scenario 4: a 2-second segment
// budget rolls 5000 samples at 1000Hz over after the first two blocks.
func TestScenario_SegmentRollover(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	c, err := NewChannel(root, "sess-scenario4", "chan-A", 0, "anon", shared,
		WithSamplingFrequency(1000), WithBlockInterval(1_000_000), WithSecsPerBlock(1.0),
		WithSecsPerSegment(2.0))
	require.NoError(t, err)

	times, samples := sineWaveSamples(5000, 946_684_800_000_000)
	require.NoError(t, c.Write(times, samples))
	require.NoError(t, c.Close())

	require.EqualValues(t, 1, c.segmentNumber)
	require.EqualValues(t, 2000, c.meta.Channel.StartSample)

	_, _, firstIndexPath := segmentFilePaths(root, "sess-scenario4", "chan-A", 0)
	entries := readIndexEntries(t, firstIndexPath)
	require.Len(t, entries, 2)
	require.EqualValues(t, 0, entries[0].StartSample)
	require.EqualValues(t, 1000, entries[1].StartSample)
}

// TestScenario_Append covers §8 scenario 5: appending after scenario 2's
// 10,000 samples opens segment 1 with start_sample 10000 and carries the
// session name and level UUID forward.
func TestScenario_Append(t *testing.T) {
	root := t.TempDir()
	shared := sessionstate.New(false, 0)

	opts := []Option{
		WithSamplingFrequency(1000), WithBlockInterval(1_000_000), WithSecsPerBlock(1.0),
	}

	c, err := NewChannel(root, "sess-scenario5", "chan-A", 0, "anon", shared, opts...)
	require.NoError(t, err)

	times, samples := sineWaveSamples(10_000, 946_684_800_000_000)
	require.NoError(t, c.Write(times, samples))
	require.NoError(t, c.Close())

	appended, err := OpenForAppend(root, "sess-scenario5", "chan-A", 0, "anon", shared, 0, opts...)
	require.NoError(t, err)

	require.EqualValues(t, 1, appended.segmentNumber)
	require.EqualValues(t, 10_000, appended.meta.Channel.StartSample)
	require.Equal(t, c.session, appended.session)
	require.Equal(t, c.levelUUID, appended.levelUUID)

	moreTimes, moreSamples := sineWaveSamples(1000, 946_684_800_000_000+10_000_000)
	require.NoError(t, appended.Write(moreTimes, moreSamples))
	require.NoError(t, appended.Close())
}
