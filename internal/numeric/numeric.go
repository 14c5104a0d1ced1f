// Package numeric provides the small set of floating-point helpers the
// rest of the module leans on: tolerance-aware comparison, linear
// remapping between two ranges, half-up rounding, and a finite-time
// predicate.
package numeric

import "math"

// DefaultSampleRate (SR₀) is the fixed quantization key used to derive a
// warp marker's sample index from its sample time, and to calibrate the
// peak detector's filter coefficients. It is deliberately independent of
// any clip's actual sample rate — see internal/warp and internal/peak.
const DefaultSampleRate = 44100

// TimeTolerance is the relative and absolute tolerance used for every
// inter-marker time comparison: 1 / (SR₀ · 10), about 2.27 microseconds.
const TimeTolerance = 1.0 / (DefaultSampleRate * 10)

// AlmostEqual reports whether a and b are close enough to be treated as
// the same instant. The absolute check runs first so that comparisons
// near zero aren't dominated by the relative term's division.
func AlmostEqual(a, b, relTol, absTol float64) bool {
	if math.Abs(a-b) < absTol {
		return true
	}

	var relativeError float64
	if math.Abs(a) > math.Abs(b) {
		relativeError = math.Abs((a - b) / a)
	} else {
		relativeError = math.Abs((a - b) / b)
	}

	return relativeError < relTol
}

// LinearMap rescales x from [loSrc, hiSrc] to [loDst, hiDst]. A degenerate
// source range (loSrc == hiSrc) returns 0 — callers (internal/warp,
// internal/clip) rely on this as a sentinel rather than treating it as an
// error.
func LinearMap(x, loSrc, hiSrc, loDst, hiDst float64) float64 {
	divisor := hiSrc - loSrc
	if divisor == 0 {
		return 0
	}

	num := (x - loSrc) * (hiDst - loDst)
	return loDst + num/divisor
}

// Round rounds half up (not banker's rounding) and clamps to the int64
// range, mirroring the original C++ implementation's clamp-to-long
// behavior.
func Round(value float64) int64 {
	if value < math.MinInt64 {
		return math.MinInt64
	}
	if value > math.MaxInt64 {
		return math.MaxInt64
	}

	floor := math.Floor(value)
	if value-floor < 0.5 {
		return int64(floor)
	}
	return int64(math.Ceil(value))
}

// IsValidTime reports whether t can be used as a sample or beat time: not
// infinite, not NaN, not the smallest representable denormal.
func IsValidTime(t float64) bool {
	if math.IsInf(t, 0) || math.IsNaN(t) {
		return false
	}
	return t != math.SmallestNonzeroFloat64
}
