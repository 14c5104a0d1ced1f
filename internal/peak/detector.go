// Package peak implements a causal onset detector: a two-pole low-pass
// filter feeding an envelope follower (instantaneous attack, exponential
// release) feeding a Schmitt trigger, whose rising edges are reported as
// peaks. It operates one fixed-size window at a time and carries no state
// across windows — the caller (internal/clip) is responsible for
// overlapping consecutive windows so onsets that straddle a boundary are
// still captured whole in at least one window.
package peak

import (
	"math"

	"github.com/misterdjules/soundbox/internal/audioinfo"
	"github.com/misterdjules/soundbox/internal/numeric"
)

// InputWindowSize is the number of samples a single GetPeaks call
// processes.
const InputWindowSize = 65536

// InputWindowOffset is the overlap between consecutive windows: the first
// InputWindowOffset samples of a window are the tail of the previous one,
// so the window slides forward by InputWindowSize - InputWindowOffset.
const InputWindowOffset = 4096

const (
	lowPassFreqHz   = 150.0
	releaseTimeSecs = 0.2
	triggerOnLevel  = 0.5
	triggerOffLevel = 0.3
)

// filterCoefficient and releaseCoefficient are calibrated against
// numeric.DefaultSampleRate regardless of the clip's actual sample rate —
// a known limitation carried over unchanged from the design this is
// based on.
var (
	filterTimeConstant = 1.0 / (2 * math.Pi * lowPassFreqHz)
	filterCoefficient  = 1.0 / (numeric.DefaultSampleRate * filterTimeConstant)
	releaseCoefficient = math.Exp(-1.0 / (numeric.DefaultSampleRate * releaseTimeSecs))
)

// Peak records an onset: the sample index where it was detected and the
// sample index where its rising edge began. The detector always reports
// the two as equal (there is no separate attack-estimation stage), but
// both fields are carried to keep the record shape the orchestrator
// expects when it offsets peaks into file-absolute coordinates.
type Peak struct {
	PeakSampleIndex   float64
	AttackSampleIndex float64
}

// Detector is a streaming onset detector. It is safe to reuse across
// windows — GetPeaks resets all internal state at the start of every
// call, by design: the detector has no cross-window memory.
type Detector struct {
	filter1Out  float64
	filter2Out  float64
	envelope    float64
	triggered   bool
	prevTrigger bool
}

// New returns a ready-to-use Detector.
func New() *Detector {
	return &Detector{}
}

func (d *Detector) reset() {
	d.filter1Out = 0
	d.filter2Out = 0
	d.envelope = 0
	d.triggered = false
	d.prevTrigger = false
}

// GetPeaks runs the detector over samples[:n] and returns onsets as
// indices relative to the start of the window. n must equal
// InputWindowSize and info must be valid; otherwise GetPeaks reports
// failure without emitting any peaks.
func (d *Detector) GetPeaks(samples []float32, n int, info audioinfo.Info) ([]Peak, bool) {
	if !audioinfo.IsValid(info) {
		return nil, false
	}
	if n != InputWindowSize || len(samples) < n {
		return nil, false
	}

	d.reset()

	var peaks []Peak
	for i := 0; i < n; i++ {
		x := float64(samples[i])

		d.filter1Out += filterCoefficient * (x - d.filter1Out)
		d.filter2Out += filterCoefficient * (d.filter1Out - d.filter2Out)

		envelopeIn := math.Abs(d.filter2Out)
		if envelopeIn > d.envelope {
			d.envelope = envelopeIn
		} else {
			d.envelope = d.envelope*releaseCoefficient + (1-releaseCoefficient)*envelopeIn
		}

		if !d.triggered {
			if d.envelope > triggerOnLevel {
				d.triggered = true
			}
		} else {
			if d.envelope < triggerOffLevel {
				d.triggered = false
			}
		}

		if d.triggered && !d.prevTrigger {
			peaks = append(peaks, Peak{
				PeakSampleIndex:   float64(i),
				AttackSampleIndex: float64(i),
			})
		}
		d.prevTrigger = d.triggered
	}

	return peaks, true
}
