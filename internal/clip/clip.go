// Package clip implements the clip orchestrator: the windowed
// read-analyze pipeline that ties the WAVE reader, the peak detector and
// the warp-marker map together, plus the time conversions and BPM
// estimate derived from what they produce.
package clip

import (
	"errors"
	"log/slog"
	"os"

	"github.com/misterdjules/soundbox/internal/audioinfo"
	"github.com/misterdjules/soundbox/internal/peak"
	"github.com/misterdjules/soundbox/internal/wavefile"
	"github.com/misterdjules/soundbox/internal/warp"
)

// Errors returned by Load. They're reported for the driver to wrap and
// log; none of them cross a package boundary as a panic.
var (
	ErrMissingExtension = errors.New("clip: path does not carry a .wav extension")
	ErrIO               = errors.New("clip: could not open or read file")
	ErrMalformedWave    = errors.New("clip: malformed WAVE header")
)

// Detector is the subset of *peak.Detector the clip orchestrator needs.
// The clip never owns the detector it's given; the caller's instance must
// outlive the clip.
type Detector interface {
	GetPeaks(samples []float32, n int, info audioinfo.Info) ([]peak.Peak, bool)
}

// Clip owns the parsed audio format, the peaks collected from a load, the
// warp-marker map derived from it, and a BPM cache. It holds a
// non-owning reference to the detector that found its peaks.
type Clip struct {
	Info     audioinfo.Info
	Peaks    []peak.Peak
	Warp     *warp.Map
	detector Detector

	bpmCached bool
	bpmValue  float64
}

// New returns an empty, unloaded Clip that will use detector to find
// onsets on Load. detector may be nil, in which case Load still parses
// and reads the file but collects no peaks.
func New(detector Detector) *Clip {
	return &Clip{
		Warp:     warp.NewMap(),
		detector: detector,
	}
}

// Load runs the windowed read-analyze pipeline against the .wav file at
// path: it parses the header, then repeatedly reads overlapped windows
// and feeds them to the detector, collecting file-absolute peak indices.
// It does not add the default warp markers itself — call
// AddDefaultMarkers once Load succeeds.
func (c *Clip) Load(path string) (bool, error) {
	if hasShiftedWavQuirk(path) {
		slog.Warn("clip: .wav extension missing, not loading the file", "path", path)
		return false, ErrMissingExtension
	}

	f, err := os.Open(path)
	if err != nil {
		return false, errors.Join(ErrIO, err)
	}
	defer f.Close()

	info, err := wavefile.ReadFormat(f)
	if err != nil {
		return false, errors.Join(ErrMalformedWave, err)
	}
	c.Info = info

	if info.NumChannels > 1 {
		slog.Warn("clip: more than one channel is not supported at this time", "path", path, "channels", info.NumChannels)
	}

	window := make([]float32, peak.InputWindowSize)

	samplesLeftToRead := info.TotalSamples
	firstRead := samplesLeftToRead
	if firstRead > peak.InputWindowSize {
		firstRead = peak.InputWindowSize
	}

	samplesRead, readErr := wavefile.ReadSamples(f, info, int(firstRead), window)
	if readErr != nil && !errors.Is(readErr, wavefile.ErrShortSampleRead) {
		return false, errors.Join(ErrIO, readErr)
	}
	for i := samplesRead; i < peak.InputWindowSize; i++ {
		window[i] = 0
	}

	var peaks []peak.Peak
	if c.detector != nil {
		if found, ok := c.detector.GetPeaks(window, peak.InputWindowSize, info); ok {
			peaks = append(peaks, found...)
		}
	}

	samplesLeftToRead -= uint32(samplesRead)

	for samplesLeftToRead > 0 {
		toRead := peak.InputWindowSize - peak.InputWindowOffset
		if samplesLeftToRead < uint32(toRead) {
			toRead = int(samplesLeftToRead)
		}

		copy(window, window[peak.InputWindowSize-peak.InputWindowOffset:])

		n, readErr := wavefile.ReadSamples(f, info, toRead, window[peak.InputWindowOffset:])
		if readErr != nil {
			if !errors.Is(readErr, wavefile.ErrShortSampleRead) {
				return false, errors.Join(ErrIO, readErr)
			}
			// A short final read mirrors ReadSamples reporting failure in
			// the original loop condition: stop without processing this
			// chunk, leaving samplesLeftToRead nonzero so Load reports
			// failure below.
			break
		}

		absoluteOffset := float64(info.TotalSamples - samplesLeftToRead - uint32(peak.InputWindowOffset))

		if c.detector != nil {
			if found, ok := c.detector.GetPeaks(window, peak.InputWindowSize, info); ok {
				for _, p := range found {
					// Positions before InputWindowOffset are the tail
					// carried over from the previous window — already
					// tested for peaks there. Skip them so an onset
					// straddling the boundary is reported exactly once.
					if p.PeakSampleIndex < float64(peak.InputWindowOffset) {
						continue
					}
					peaks = append(peaks, peak.Peak{
						PeakSampleIndex:   p.PeakSampleIndex + absoluteOffset,
						AttackSampleIndex: p.AttackSampleIndex + absoluteOffset,
					})
				}
			}
		}

		samplesLeftToRead -= uint32(n)
	}

	c.Peaks = peaks

	return samplesLeftToRead == 0, nil
}

// hasShiftedWavQuirk reproduces the original loader's off-by-one
// extension check: it compares the four characters starting five from
// the end of the path against ".wav" — one position short of the true
// suffix. For an ordinary "name.wav" path this substring never equals
// ".wav", so the quirk only fires for paths like "name.wavX" where the
// pattern happens to land one character early.
func hasShiftedWavQuirk(path string) bool {
	if len(path) < 5 {
		return false
	}
	start := len(path) - 5
	return path[start:start+4] == ".wav"
}

// AddDefaultMarkers inserts the two identity endpoint markers (0,0) and
// (duration, duration). It fails if AudioInfo is invalid or either
// insertion is rejected.
func (c *Clip) AddDefaultMarkers() bool {
	if !audioinfo.IsValid(c.Info) {
		return false
	}
	duration := c.Duration()
	if !c.Warp.Add(0, 0, duration) {
		return false
	}
	return c.Warp.Add(duration, duration, duration)
}

// AddMarker validates and inserts a user-supplied (sampleTime, beatTime)
// warp marker.
func (c *Clip) AddMarker(sampleTime, beatTime float64) bool {
	return c.Warp.Add(sampleTime, beatTime, c.Duration())
}

// Duration returns the clip's length in seconds, or 0 if AudioInfo is
// invalid.
func (c *Clip) Duration() float64 {
	if !audioinfo.IsValid(c.Info) {
		return 0
	}
	return float64(c.Info.TotalSamples) / float64(c.Info.SampleRate)
}

// SampleToBeatTime converts a sample time to a beat time, returning 0.0
// (not an error) if the query falls outside every warp segment.
func (c *Clip) SampleToBeatTime(sampleTime float64) float64 {
	return c.Warp.SampleToBeatTime(sampleTime)
}

// BeatToSampleTime is the symmetric conversion with axes swapped.
func (c *Clip) BeatToSampleTime(beatTime float64) float64 {
	return c.Warp.BeatToSampleTime(beatTime)
}

// BPM estimates tempo from the mean spacing between collected peaks:
// 60 * N / (sum of inter-peak intervals in seconds), dividing by the
// total peak count N rather than the interval count N-1. That off-by-one
// is deliberate — see SPEC_FULL.md — and
// is not "fixed" here. The result is cached after the first successful
// computation.
func (c *Clip) BPM() (float64, bool) {
	if c.bpmCached {
		return c.bpmValue, true
	}

	if len(c.Peaks) <= 1 {
		return 0, false
	}
	if !audioinfo.IsValid(c.Info) {
		return 0, false
	}
	sampleRate := float64(c.Info.SampleRate)
	if sampleRate == 0 {
		return 0, false
	}

	var intervalSum float64
	prev := c.Peaks[0].PeakSampleIndex
	for _, p := range c.Peaks[1:] {
		intervalSum += (p.PeakSampleIndex - prev) / sampleRate
		prev = p.PeakSampleIndex
	}

	meanInterval := intervalSum / float64(len(c.Peaks))
	if meanInterval == 0 {
		return 0, false
	}

	bpm := 60.0 / meanInterval
	c.bpmCached = true
	c.bpmValue = bpm
	return bpm, true
}
