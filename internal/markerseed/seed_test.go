package markerseed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, yamlBody string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "markers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))
	return path
}

func TestLoadParsesMarkers(t *testing.T) {
	path := writeSeed(t, `
markers:
  - sampleTime: 1.0
    beatTime: 2.0
  - sampleTime: 2.0
    beatTime: 4.0
`)

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Markers, 2)
	require.Equal(t, Marker{SampleTime: 1.0, BeatTime: 2.0}, f.Markers[0])
	require.Equal(t, Marker{SampleTime: 2.0, BeatTime: 4.0}, f.Markers[1])
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

type fakeAdder struct {
	accept map[float64]bool
	calls  []float64
}

func (f *fakeAdder) AddMarker(sampleTime, beatTime float64) bool {
	f.calls = append(f.calls, sampleTime)
	return f.accept[sampleTime]
}

func TestApplyContinuesPastRejection(t *testing.T) {
	f := File{Markers: []Marker{
		{SampleTime: 1.0, BeatTime: 2.0},
		{SampleTime: 2.0, BeatTime: 4.0},
		{SampleTime: 3.0, BeatTime: 6.0},
	}}

	adder := &fakeAdder{accept: map[float64]bool{1.0: true, 3.0: true}}
	var rejected []Marker
	applied := Apply(adder, f, func(m Marker) { rejected = append(rejected, m) })

	require.Equal(t, 2, applied)
	require.Equal(t, []float64{1.0, 2.0, 3.0}, adder.calls)
	require.Len(t, rejected, 1)
	require.Equal(t, 2.0, rejected[0].SampleTime)
}
