// Package markerseed parses a YAML warp-marker seed file and applies its
// entries to a clip, generalizing main.cpp's three hardcoded
// AddWarpMarker calls into an arbitrary list loaded from disk.
package markerseed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Marker is a single (sampleTime, beatTime) entry in a seed file.
type Marker struct {
	SampleTime float64 `yaml:"sampleTime"`
	BeatTime   float64 `yaml:"beatTime"`
}

// File is the top-level shape of a marker seed document.
type File struct {
	Markers []Marker `yaml:"markers"`
}

// Load parses a marker seed file from path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("markerseed: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("markerseed: parse %s: %w", path, err)
	}
	return f, nil
}

// Adder is the subset of *clip.Clip a seed file is applied against.
type Adder interface {
	AddMarker(sampleTime, beatTime float64) bool
}

// Apply calls AddMarker for every entry in file order via the same
// validation path any other marker goes through — no bypass. A rejected
// marker is reported through onReject (typically logging a warning) and
// does not abort the remaining entries, mirroring the original driver's
// "log and continue" behavior on a rejected marker.
func Apply(c Adder, f File, onReject func(Marker)) (applied int) {
	for _, m := range f.Markers {
		if c.AddMarker(m.SampleTime, m.BeatTime) {
			applied++
			continue
		}
		if onReject != nil {
			onReject(m)
		}
	}
	return applied
}
