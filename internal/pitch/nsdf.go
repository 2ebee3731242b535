package pitch

import (
	"context"

	"tunescribe/internal/media"
)

// nsdfBackend is the accurate estimator: McLeod normalized square difference
// with parabolic interpolation around the chosen peak.
type nsdfBackend struct{}

const (
	nsdfClarityThreshold = 0.6

	// Peaks at least this fraction of the global maximum are candidates;
	// the earliest qualifying peak wins, favouring the fundamental over
	// subharmonics.
	nsdfPeakCutoff = 0.8
)

func (nsdfBackend) Name() string { return "nsdf" }

func (nsdfBackend) Estimate(ctx context.Context, sig media.Signal) (Contour, error) {
	offsets := frameOffsets(len(sig.Samples))
	if len(offsets) == 0 {
		return Contour{}, nil
	}

	minLag, maxLag := lagBounds(sig.SampleRate)
	contour := Contour{
		Times:  frameTimes(offsets, sig.SampleRate),
		FreqHz: make([]float64, len(offsets)),
		Voiced: make([]bool, len(offsets)),
	}

	nsdf := make([]float64, maxLag+1)
	for i, off := range offsets {
		if err := checkCancelled(ctx, i); err != nil {
			return Contour{}, err
		}
		frame := sig.Samples[off : off+frameSize]

		for lag := minLag; lag <= maxLag; lag++ {
			var acf, norm float64
			for j := 0; j+lag < frameSize; j++ {
				acf += frame[j] * frame[j+lag]
				norm += frame[j]*frame[j] + frame[j+lag]*frame[j+lag]
			}
			if norm > 0 {
				nsdf[lag] = 2 * acf / norm
			} else {
				nsdf[lag] = 0
			}
		}

		lag, clarity := pickPeak(nsdf, minLag, maxLag)
		if lag <= 0 || clarity < nsdfClarityThreshold {
			continue
		}

		refined := parabolicInterp(nsdf, lag)
		contour.FreqHz[i] = float64(sig.SampleRate) / refined
		contour.Voiced[i] = true
	}
	return contour, nil
}

// pickPeak finds local maxima between zero crossings and selects the first
// whose height clears the cutoff relative to the global maximum.
func pickPeak(nsdf []float64, minLag, maxLag int) (int, float64) {
	type peak struct {
		lag   int
		value float64
	}
	var peaks []peak

	lag := minLag
	for lag <= maxLag {
		// Skip until a positive-going zero crossing.
		for lag <= maxLag && nsdf[lag] <= 0 {
			lag++
		}
		bestLag, bestVal := 0, 0.0
		for lag <= maxLag && nsdf[lag] > 0 {
			if nsdf[lag] > bestVal {
				bestVal = nsdf[lag]
				bestLag = lag
			}
			lag++
		}
		if bestLag > 0 {
			peaks = append(peaks, peak{bestLag, bestVal})
		}
	}
	if len(peaks) == 0 {
		return 0, 0
	}

	var globalMax float64
	for _, p := range peaks {
		if p.value > globalMax {
			globalMax = p.value
		}
	}
	for _, p := range peaks {
		if p.value >= nsdfPeakCutoff*globalMax {
			return p.lag, p.value
		}
	}
	return peaks[0].lag, peaks[0].value
}

// parabolicInterp fits a parabola through the peak and its neighbours and
// returns the interpolated lag.
func parabolicInterp(nsdf []float64, lag int) float64 {
	if lag <= 0 || lag >= len(nsdf)-1 {
		return float64(lag)
	}
	left, mid, right := nsdf[lag-1], nsdf[lag], nsdf[lag+1]
	denom := 2 * (2*mid - left - right)
	if denom == 0 {
		return float64(lag)
	}
	return float64(lag) + (right-left)/denom
}
