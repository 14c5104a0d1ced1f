package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlmostEqual(t *testing.T) {
	require.True(t, AlmostEqual(1.0, 1.0+1e-13, TimeTolerance, TimeTolerance))
	require.False(t, AlmostEqual(1.0, 1.1, TimeTolerance, TimeTolerance))
	require.True(t, AlmostEqual(0.0, 0.0, TimeTolerance, TimeTolerance))
}

func TestLinearMapDegenerate(t *testing.T) {
	require.Equal(t, 0.0, LinearMap(5, 2, 2, 10, 20))
}

func TestLinearMap(t *testing.T) {
	got := LinearMap(0.5, 0, 1, 0, 2)
	require.InDelta(t, 1.0, got, 1e-12)
}

func TestRound(t *testing.T) {
	require.Equal(t, int64(2), Round(1.5))
	require.Equal(t, int64(1), Round(1.49))
	require.Equal(t, int64(-1), Round(-1.49))
}

func TestIsValidTime(t *testing.T) {
	require.True(t, IsValidTime(0))
	require.False(t, IsValidTime(math.Inf(1)))
	require.False(t, IsValidTime(math.Inf(-1)))
	require.False(t, IsValidTime(math.NaN()))
	require.False(t, IsValidTime(math.SmallestNonzeroFloat64))
}
