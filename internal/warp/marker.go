// Package warp implements the warp-marker map: a dual-indexed ordered
// collection of (sampleTime, beatTime) anchors defining a monotonic
// piecewise-linear function in both directions, with validated insertion
// and a one-segment cache for hot lookups.
package warp

import "github.com/misterdjules/soundbox/internal/numeric"

// Marker anchors a sample time to a beat time. SampleIndex is derived from
// SampleTime by quantizing against numeric.DefaultSampleRate, independent
// of any clip's actual sample rate: two sample times that round to the
// same index at that rate share a key, whatever the clip's own rate.
type Marker struct {
	SampleTime  float64
	BeatTime    float64
	SampleIndex uint64
}

// NewMarker builds a Marker from a sample time and beat time, deriving the
// sample index.
func NewMarker(sampleTime, beatTime float64) Marker {
	return Marker{
		SampleTime:  sampleTime,
		BeatTime:    beatTime,
		SampleIndex: uint64(numeric.Round(sampleTime * numeric.DefaultSampleRate)),
	}
}

// Equal reports whether two markers match in all three fields exactly.
// Used only by internal bounding-segment consistency checks, never for
// tolerance-aware comparisons.
func (m Marker) Equal(other Marker) bool {
	return m.SampleIndex == other.SampleIndex &&
		m.BeatTime == other.BeatTime &&
		m.SampleTime == other.SampleTime
}
