package pitch

import (
	"context"

	"tunescribe/internal/media"
)

// acfBackend is the fast estimator: normalized autocorrelation peak per
// frame with a flat voicing threshold.
type acfBackend struct{}

const acfVoicingThreshold = 0.5

func (acfBackend) Name() string { return "acf" }

func (acfBackend) Estimate(ctx context.Context, sig media.Signal) (Contour, error) {
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

	for i, off := range offsets {
		if err := checkCancelled(ctx, i); err != nil {
			return Contour{}, err
		}
		frame := sig.Samples[off : off+frameSize]

		var energy float64
		for _, s := range frame {
			energy += s * s
		}
		if energy == 0 {
			continue
		}

		bestLag, bestCorr := 0, 0.0
		for lag := minLag; lag <= maxLag; lag++ {
			var corr float64
			for j := 0; j+lag < frameSize; j++ {
				corr += frame[j] * frame[j+lag]
			}
			corr /= energy
			if corr > bestCorr {
				bestCorr = corr
				bestLag = lag
			}
		}

		if bestLag > 0 && bestCorr >= acfVoicingThreshold {
			contour.FreqHz[i] = float64(sig.SampleRate) / float64(bestLag)
			contour.Voiced[i] = true
		}
	}
	return contour, nil
}
