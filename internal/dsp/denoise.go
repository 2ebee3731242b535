package dsp

import (
	"math"
	"sort"

	"tunescribe/internal/media"
)

const (
	denoiseFrame = 1024
	denoiseHop   = 256

	// Bins below gateRatio times the per-bin median magnitude are treated
	// as noise and attenuated by gateFloor.
	gateRatio = 1.5
	gateFloor = 0.1
)

// Denoise suppresses stationary background noise with a spectral gate. The
// per-bin noise floor is the median magnitude across all frames; quiet bins
// are attenuated and the frames resynthesized by overlap-add. Output length
// always matches the input.
func Denoise(sig media.Signal) media.Signal {
	n := len(sig.Samples)
	if n < denoiseFrame {
		return sig
	}

	window := hannWindow(denoiseFrame)
	frames := 1 + (n-denoiseFrame)/denoiseHop
	bins := denoiseFrame/2 + 1

	specRe := make([][]float64, frames)
	specIm := make([][]float64, frames)
	for f := 0; f < frames; f++ {
		re := make([]float64, denoiseFrame)
		im := make([]float64, denoiseFrame)
		offset := f * denoiseHop
		for i := 0; i < denoiseFrame; i++ {
			re[i] = sig.Samples[offset+i] * window[i]
		}
		fft(re, im, false)
		specRe[f] = re
		specIm[f] = im
	}

	// Median magnitude per bin over time approximates the noise floor for
	// stationary noise.
	floor := make([]float64, bins)
	mags := make([]float64, frames)
	for b := 0; b < bins; b++ {
		for f := 0; f < frames; f++ {
			mags[f] = math.Hypot(specRe[f][b], specIm[f][b])
		}
		sorted := append([]float64(nil), mags...)
		sort.Float64s(sorted)
		floor[b] = sorted[frames/2]
	}

	for f := 0; f < frames; f++ {
		for b := 0; b < bins; b++ {
			mag := math.Hypot(specRe[f][b], specIm[f][b])
			if mag >= gateRatio*floor[b] {
				continue
			}
			specRe[f][b] *= gateFloor
			specIm[f][b] *= gateFloor
			// Keep conjugate symmetry for the real inverse transform.
			if mirror := denoiseFrame - b; b > 0 && mirror != b {
				specRe[f][mirror] *= gateFloor
				specIm[f][mirror] *= gateFloor
			}
		}
	}

	out := make([]float64, n)
	norm := make([]float64, n)
	for f := 0; f < frames; f++ {
		fft(specRe[f], specIm[f], true)
		offset := f * denoiseHop
		for i := 0; i < denoiseFrame; i++ {
			out[offset+i] += specRe[f][i] * window[i]
			norm[offset+i] += window[i] * window[i]
		}
	}
	for i := range out {
		if norm[i] > 1e-9 {
			out[i] /= norm[i]
		} else {
			out[i] = sig.Samples[i]
		}
	}

	return media.Signal{Samples: out, SampleRate: sig.SampleRate}
}
