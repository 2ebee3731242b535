// Package media handles audio I/O for the pipeline: WAV decode/encode, mono
// downmix, sample-rate conversion, and the pre-job upload validation gate.
package media

import "time"

// Signal is a fixed-sample-rate mono audio buffer. All pipeline stages
// operate on Signal values and treat them as immutable inputs.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length as wall time.
func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / float64(s.SampleRate) * float64(time.Second))
}

// Seconds returns the signal length in seconds.
func (s Signal) Seconds() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Resample converts the signal to the target rate with linear interpolation.
// Returns the receiver unchanged when the rates already match.
func Resample(sig Signal, targetRate int) Signal {
	if targetRate <= 0 || sig.SampleRate == targetRate || len(sig.Samples) == 0 {
		return Signal{Samples: sig.Samples, SampleRate: targetRate}
	}
	ratio := float64(sig.SampleRate) / float64(targetRate)
	outLen := int(float64(len(sig.Samples)) / ratio)
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float64, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(sig.Samples)-1 {
			out[i] = sig.Samples[len(sig.Samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = sig.Samples[idx]*(1-frac) + sig.Samples[idx+1]*frac
	}
	return Signal{Samples: out, SampleRate: targetRate}
}
