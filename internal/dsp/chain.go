package dsp

import (
	"tunescribe/internal/media"
	"tunescribe/internal/params"
)

const (
	defaultHighpassHz = 50.0
	defaultRMSTarget  = 0.1
	defaultTrimDB     = 30.0
)

// Preprocess runs the cleanup chain selected by the processing parameters.
// The stage order is fixed; disabled stages are skipped. Only the trailing
// trim may change the sample count.
func Preprocess(sig media.Signal, p params.Params) media.Signal {
	if p.Highpass {
		sig = HighPass(sig, defaultHighpassHz)
	}
	if p.Denoise {
		sig = Denoise(sig)
	}
	if p.Normalize {
		sig = NormalizeRMS(sig, defaultRMSTarget)
	}
	if p.Trim {
		sig = TrimSilence(sig, defaultTrimDB)
	}
	return sig
}
