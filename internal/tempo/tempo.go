package tempo

import (
	"math"

	"tunescribe/internal/media"
)

const (
	// DefaultBPM is substituted whenever estimation produces nothing usable.
	DefaultBPM = 120.0

	MinBPM = 40.0
	MaxBPM = 300.0

	frameSize = 1024
	hopSize   = 512

	// priorWidth controls how strongly candidates near DefaultBPM are
	// preferred, in log2 tempo octaves.
	priorWidth = 1.0
)

// Estimator produces a tempo in beats per minute from a signal. The
// production implementation is onset autocorrelation; tests inject stubs.
type Estimator interface {
	EstimateBPM(sig media.Signal) (float64, error)
}

// Estimate resolves the tempo for a job. An explicit override skips analysis
// entirely. Estimator failures and out-of-range results fall back to
// DefaultBPM; the returned value is always within (0, 300].
func Estimate(sig media.Signal, override float64, est Estimator) float64 {
	if sane(override) {
		return override
	}
	if est == nil {
		est = OnsetAutocorrelation{}
	}
	bpm, err := est.EstimateBPM(sig)
	if err != nil || !sane(bpm) {
		return DefaultBPM
	}
	return bpm
}

func sane(bpm float64) bool {
	return !math.IsNaN(bpm) && !math.IsInf(bpm, 0) && bpm > 0 && bpm <= MaxBPM
}

// OnsetAutocorrelation estimates tempo from the periodicity of the frame
// energy flux.
type OnsetAutocorrelation struct{}

func (OnsetAutocorrelation) EstimateBPM(sig media.Signal) (float64, error) {
	strength := onsetStrength(sig)
	if len(strength) < 4 {
		return 0, nil
	}

	frameRate := float64(sig.SampleRate) / hopSize
	minLag := int(frameRate * 60 / MaxBPM)
	maxLag := int(frameRate * 60 / MinBPM)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(strength) {
		maxLag = len(strength) - 1
	}
	if maxLag <= minLag {
		return 0, nil
	}

	var mean float64
	for _, s := range strength {
		mean += s
	}
	mean /= float64(len(strength))
	for i := range strength {
		strength[i] -= mean
	}

	bestLag, bestScore := 0, math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(strength); i++ {
			corr += strength[i] * strength[i+lag]
		}
		bpm := frameRate * 60 / float64(lag)
		score := corr * tempoPrior(bpm)
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}
	if bestLag == 0 || bestScore <= 0 {
		return 0, nil
	}
	return frameRate * 60 / float64(bestLag), nil
}

// onsetStrength is the half-wave rectified frame-to-frame energy increase.
func onsetStrength(sig media.Signal) []float64 {
	n := len(sig.Samples)
	if n < frameSize {
		return nil
	}
	frames := 1 + (n-frameSize)/hopSize
	strength := make([]float64, 0, frames)
	prev := 0.0
	for f := 0; f < frames; f++ {
		off := f * hopSize
		var energy float64
		for _, s := range sig.Samples[off : off+frameSize] {
			energy += s * s
		}
		if flux := energy - prev; flux > 0 {
			strength = append(strength, flux)
		} else {
			strength = append(strength, 0)
		}
		prev = energy
	}
	return strength
}

// tempoPrior weights candidates by a log-normal bump around DefaultBPM.
func tempoPrior(bpm float64) float64 {
	d := math.Log2(bpm / DefaultBPM)
	return math.Exp(-d * d / (2 * priorWidth * priorWidth))
}
