package warp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/misterdjules/soundbox/internal/numeric"
)

// Test_SampleToBeatTime_RoundTrip checks that converting a sample time to
// a beat time and back lands within tolerance of the original, for any
// monotonically increasing pair of marker endpoints and any query inside
// that segment.
func Test_SampleToBeatTime_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		duration := rapid.Float64Range(1.0, 600.0).Draw(t, "duration")
		beatDuration := rapid.Float64Range(0.5, 600.0).Draw(t, "beatDuration")
		frac := rapid.Float64Range(0.0, 1.0).Draw(t, "frac")

		m := NewMap()
		if !m.Add(0, 0, duration) {
			t.Skip("rejected start marker")
		}
		if !m.Add(duration, beatDuration, duration) {
			t.Skip("rejected end marker")
		}

		sampleTime := duration * frac
		beatTime := m.SampleToBeatTime(sampleTime)
		roundTripped := m.BeatToSampleTime(beatTime)

		assert.InDelta(t, sampleTime, roundTripped, 1e-6*duration+numeric.TimeTolerance)
	})
}

// Test_Map_MonotonicIncreasingBeatTime checks that SampleToBeatTime never
// decreases as sampleTime increases across a randomly built, validated
// marker map.
func Test_Map_MonotonicIncreasingBeatTime(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		duration := rapid.Float64Range(1.0, 600.0).Draw(t, "duration")
		m := NewMap()
		assert.True(t, m.Add(0, 0, duration))
		assert.True(t, m.Add(duration, duration, duration))

		n := rapid.IntRange(0, 6).Draw(t, "n")
		for i := 0; i < n; i++ {
			sampleTime := rapid.Float64Range(0, duration).Draw(t, "sampleTime")
			beatTime := rapid.Float64Range(0, duration*2).Draw(t, "beatTime")
			m.Add(sampleTime, beatTime, duration)
		}

		samples := make([]float64, 0, 20)
		for i := 0; i <= 20; i++ {
			samples = append(samples, duration*float64(i)/20.0)
		}

		prevBeat := -1.0
		for _, s := range samples {
			beat := m.SampleToBeatTime(s)
			assert.GreaterOrEqual(t, beat, prevBeat-numeric.TimeTolerance)
			prevBeat = beat
		}
	})
}

// Test_Map_AddRejectsNonFiniteInputs checks that Add never accepts NaN or
// Inf for either time axis, regardless of the map's existing contents.
func Test_Map_AddRejectsNonFiniteInputs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		duration := rapid.Float64Range(1.0, 600.0).Draw(t, "duration")
		m := NewMap()
		m.Add(0, 0, duration)
		m.Add(duration, duration, duration)

		nonFinite := rapid.SampledFrom([]float64{
			math.NaN(), math.Inf(1), math.Inf(-1),
		}).Draw(t, "nonFinite")
		useSampleAxis := rapid.Bool().Draw(t, "useSampleAxis")

		var ok bool
		if useSampleAxis {
			ok = m.Add(nonFinite, duration/2, duration)
		} else {
			ok = m.Add(duration/2, nonFinite, duration)
		}
		assert.False(t, ok)
	})
}

// Test_Map_LenMatchesBeatOrderLen checks the map-symmetry invariant: the
// beat-ordered view always has exactly as many entries as the owning
// sample-ordered slice, for any sequence of adds (accepted or rejected).
func Test_Map_LenMatchesBeatOrderLen(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		duration := rapid.Float64Range(1.0, 600.0).Draw(t, "duration")
		m := NewMap()

		n := rapid.IntRange(0, 10).Draw(t, "n")
		for i := 0; i < n; i++ {
			sampleTime := rapid.Float64Range(0, duration).Draw(t, "sampleTime")
			beatTime := rapid.Float64Range(0, duration*2).Draw(t, "beatTime")
			m.Add(sampleTime, beatTime, duration)
		}

		assert.Equal(t, m.Len(), len(m.beatOrder))
	})
}
