package warp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenarioS1IdentityClip reproduces the concrete scenario: a ~4-second
// clip with default endpoints (0,0)/(duration,duration) plus user markers
// (1,2) and (2,4). duration is a hair over 4.0 rather than exactly 4.0 —
// see DESIGN.md's "S1 duration" note: an exact 4.0 would make the default
// endpoint's beat time collide exactly with the user marker (2.0, 4.0),
// which the beat-time key-uniqueness rule (step 6) would reject outright.
// A duration a few sample-periods beyond 4.0 keeps the two distinct while
// still rendering sampleToBeatTime(3.0) as "approximately 4.0".
func TestScenarioS1IdentityClip(t *testing.T) {
	m := NewMap()
	const duration = 4.0 + 10.0/44100.0

	require.True(t, m.Add(0.0, 0.0, duration))
	require.True(t, m.Add(duration, duration, duration))
	require.True(t, m.Add(1.0, 2.0, duration))
	require.True(t, m.Add(2.0, 4.0, duration))

	require.False(t, m.Add(3.0, 6.0, duration))

	require.InDelta(t, 1.0, m.SampleToBeatTime(0.5), 1e-9)
	require.InDelta(t, 3.0, m.SampleToBeatTime(1.5), 1e-9)
	require.InDelta(t, 4.0, m.SampleToBeatTime(3.0), 1e-3)
	require.InDelta(t, 1.5, m.BeatToSampleTime(3.0), 1e-9)
}

// TestScenarioS2EmptyMap checks the 0.0 sentinel on an empty map.
func TestScenarioS2EmptyMap(t *testing.T) {
	m := NewMap()
	require.Equal(t, 0.0, m.SampleToBeatTime(0.0))
	require.Equal(t, 0.0, m.BeatToSampleTime(0.0))
}

// TestScenarioS4DuplicateAdd checks exact and near-duplicate rejection.
func TestScenarioS4DuplicateAdd(t *testing.T) {
	m := NewMap()
	const duration = 10.0
	require.True(t, m.Add(0.0, 0.0, duration))
	require.True(t, m.Add(10.0, 10.0, duration))

	require.True(t, m.Add(1.0, 2.0, duration))
	require.False(t, m.Add(1.0, 2.0, duration))
	require.False(t, m.Add(1.0+1e-8, 2.0+1e-8, duration))
}

func TestAddRejectsNegativeSampleTime(t *testing.T) {
	m := NewMap()
	require.False(t, m.Add(-1.0, 0.0, 10.0))
}

func TestAddRejectsNegativeBeatTime(t *testing.T) {
	m := NewMap()
	require.False(t, m.Add(0.0, -1.0, 10.0))
}

func TestAddRejectsBeyondDuration(t *testing.T) {
	m := NewMap()
	require.False(t, m.Add(100.0, 1.0, 10.0))
}

func TestAddAllowsEqualToDurationWithinTolerance(t *testing.T) {
	m := NewMap()
	require.True(t, m.Add(10.0, 10.0, 10.0))
}

func TestMapSymmetry(t *testing.T) {
	m := NewMap()
	const duration = 10.0
	require.True(t, m.Add(0.0, 0.0, duration))
	require.True(t, m.Add(10.0, 10.0, duration))
	require.True(t, m.Add(5.0, 5.0, duration))
	require.Equal(t, 3, m.Len())
	require.Equal(t, 3, len(m.beatOrder))
}

func TestRoundTripIdentity(t *testing.T) {
	m := NewMap()
	const duration = 10.0
	require.True(t, m.Add(0.0, 0.0, duration))
	require.True(t, m.Add(10.0, 10.0, duration))
	require.True(t, m.Add(3.0, 6.0, duration))

	require.InDelta(t, 6.0, m.SampleToBeatTime(3.0), 1e-9)
	require.InDelta(t, 3.0, m.BeatToSampleTime(6.0), 1e-9)
}

func TestCacheEquivalence(t *testing.T) {
	warm := NewMap()
	cold := NewMap()
	const duration = 10.0
	for _, mm := range []*Map{warm, cold} {
		require.True(t, mm.Add(0.0, 0.0, duration))
		require.True(t, mm.Add(10.0, 10.0, duration))
		require.True(t, mm.Add(5.0, 7.0, duration))
	}

	// Warm the cache on `warm` with an irrelevant prior query.
	_ = warm.SampleToBeatTime(1.0)

	require.Equal(t, cold.SampleToBeatTime(6.0), warm.SampleToBeatTime(6.0))
}

func TestFirstLast(t *testing.T) {
	m := NewMap()
	const duration = 10.0
	require.True(t, m.Add(0.0, 0.0, duration))
	require.True(t, m.Add(10.0, 10.0, duration))
	require.True(t, m.Add(4.0, 5.0, duration))

	first, ok := m.First()
	require.True(t, ok)
	require.Equal(t, 0.0, first.SampleTime)

	last, ok := m.Last()
	require.True(t, ok)
	require.Equal(t, 10.0, last.SampleTime)
}

func TestFindBoundingFailsWithFewerThanTwoMarkers(t *testing.T) {
	m := NewMap()
	require.True(t, m.Add(0.0, 0.0, 10.0))
	_, _, ok := m.FindBoundingBySampleTime(0.0)
	require.False(t, ok)
}

func TestQueryBeyondLastFails(t *testing.T) {
	m := NewMap()
	const duration = 10.0
	require.True(t, m.Add(0.0, 0.0, duration))
	require.True(t, m.Add(10.0, 10.0, duration))

	require.Equal(t, 0.0, m.SampleToBeatTime(20.0))
}
