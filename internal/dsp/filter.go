package dsp

import (
	"math"

	"tunescribe/internal/media"
)

// HighPass applies a second order Butterworth style high-pass biquad at the
// given cutoff. The RBJ cookbook coefficients are used with Q = 1/sqrt(2).
func HighPass(sig media.Signal, cutoffHz float64) media.Signal {
	if len(sig.Samples) == 0 || cutoffHz <= 0 {
		return sig
	}

	w0 := 2 * math.Pi * cutoffHz / float64(sig.SampleRate)
	alpha := math.Sin(w0) / math.Sqrt2
	cosw := math.Cos(w0)

	b0 := (1 + cosw) / 2
	b1 := -(1 + cosw)
	b2 := (1 + cosw) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw
	a2 := 1 - alpha

	b0, b1, b2 = b0/a0, b1/a0, b2/a0
	a1, a2 = a1/a0, a2/a0

	out := make([]float64, len(sig.Samples))
	var x1, x2, y1, y2 float64
	for i, x := range sig.Samples {
		y := b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2
		out[i] = y
		x2, x1 = x1, x
		y2, y1 = y1, y
	}
	return media.Signal{Samples: out, SampleRate: sig.SampleRate}
}

// NormalizeRMS scales the signal so its root mean square level matches
// target. Silent input is returned unchanged.
func NormalizeRMS(sig media.Signal, target float64) media.Signal {
	if len(sig.Samples) == 0 || target <= 0 {
		return sig
	}

	var sum float64
	for _, s := range sig.Samples {
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(len(sig.Samples)))
	if rms == 0 {
		return sig
	}

	scale := target / rms
	out := make([]float64, len(sig.Samples))
	for i, s := range sig.Samples {
		out[i] = s * scale
	}
	return media.Signal{Samples: out, SampleRate: sig.SampleRate}
}

// TrimSilence removes leading and trailing samples more than thresholdDB
// below the peak. A fully silent signal trims to empty.
func TrimSilence(sig media.Signal, thresholdDB float64) media.Signal {
	if len(sig.Samples) == 0 {
		return sig
	}

	var peak float64
	for _, s := range sig.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return media.Signal{Samples: nil, SampleRate: sig.SampleRate}
	}

	threshold := peak * math.Pow(10, -thresholdDB/20)
	start, end := 0, len(sig.Samples)
	for start < end && math.Abs(sig.Samples[start]) < threshold {
		start++
	}
	for end > start && math.Abs(sig.Samples[end-1]) < threshold {
		end--
	}

	out := make([]float64, end-start)
	copy(out, sig.Samples[start:end])
	return media.Signal{Samples: out, SampleRate: sig.SampleRate}
}
