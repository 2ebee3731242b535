package dsp

import (
	"math"
	"math/rand"
	"testing"

	"tunescribe/internal/media"
	"tunescribe/internal/params"
)

func tone(freq float64, n, rate int, amp float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return samples
}

func rmsOf(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestFFTRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := 256
	re := make([]float64, n)
	im := make([]float64, n)
	orig := make([]float64, n)
	for i := range re {
		re[i] = rng.Float64()*2 - 1
		orig[i] = re[i]
	}

	fft(re, im, false)
	fft(re, im, true)

	for i := range re {
		if math.Abs(re[i]-orig[i]) > 1e-9 {
			t.Fatalf("sample %d: got %g want %g", i, re[i], orig[i])
		}
		if math.Abs(im[i]) > 1e-9 {
			t.Fatalf("sample %d: residual imaginary %g", i, im[i])
		}
	}
}

func TestHighPassAttenuatesRumble(t *testing.T) {
	rate := 22050
	n := rate
	low := media.Signal{Samples: tone(20, n, rate, 0.5), SampleRate: rate}
	high := media.Signal{Samples: tone(440, n, rate, 0.5), SampleRate: rate}

	lowOut := HighPass(low, 50)
	highOut := HighPass(high, 50)

	if got := rmsOf(lowOut.Samples); got > 0.15 {
		t.Fatalf("20 Hz rumble barely attenuated: rms %.4f", got)
	}
	if got := rmsOf(highOut.Samples); got < 0.3 {
		t.Fatalf("440 Hz tone damaged: rms %.4f", got)
	}
}

func TestNormalizeRMS(t *testing.T) {
	rate := 22050
	sig := media.Signal{Samples: tone(440, rate, rate, 0.02), SampleRate: rate}

	out := NormalizeRMS(sig, 0.1)
	if got := rmsOf(out.Samples); math.Abs(got-0.1) > 0.001 {
		t.Fatalf("rms %.4f, want 0.1", got)
	}

	silent := NormalizeRMS(media.Signal{Samples: make([]float64, 100), SampleRate: rate}, 0.1)
	if rmsOf(silent.Samples) != 0 {
		t.Fatal("silence must stay silent")
	}
}

func TestTrimSilence(t *testing.T) {
	rate := 22050
	pad := make([]float64, rate/10)
	body := tone(440, rate/2, rate, 0.5)
	samples := append(append(append([]float64{}, pad...), body...), pad...)

	out := TrimSilence(media.Signal{Samples: samples, SampleRate: rate}, 30)
	if len(out.Samples) >= len(samples) {
		t.Fatalf("nothing trimmed: %d of %d samples", len(out.Samples), len(samples))
	}
	if len(out.Samples) < len(body)/2 {
		t.Fatalf("trimmed too aggressively: %d samples left", len(out.Samples))
	}
}

func TestDenoisePreservesLength(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rate := 22050
	n := rate
	samples := tone(440, n, rate, 0.4)
	for i := range samples {
		samples[i] += (rng.Float64()*2 - 1) * 0.02
	}

	out := Denoise(media.Signal{Samples: samples, SampleRate: rate})
	if len(out.Samples) != n {
		t.Fatalf("length changed: %d, want %d", len(out.Samples), n)
	}
}

func TestDenoiseReducesNoiseFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	rate := 22050
	n := rate
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = (rng.Float64()*2 - 1) * 0.05
	}

	out := Denoise(media.Signal{Samples: noise, SampleRate: rate})
	before := rmsOf(noise)
	after := rmsOf(out.Samples[denoiseFrame : n-denoiseFrame])
	if after >= before {
		t.Fatalf("noise floor not reduced: before %.4f after %.4f", before, after)
	}
}

func TestPreprocessSkipsDisabledStages(t *testing.T) {
	rate := 22050
	sig := media.Signal{Samples: tone(440, rate/4, rate, 0.3), SampleRate: rate}

	p := params.Defaults()
	p.Highpass = false
	p.Denoise = false
	p.Normalize = false
	p.Trim = false

	out := Preprocess(sig, p)
	if len(out.Samples) != len(sig.Samples) {
		t.Fatal("disabled chain changed length")
	}
	for i := range out.Samples {
		if out.Samples[i] != sig.Samples[i] {
			t.Fatal("disabled chain changed samples")
		}
	}
}
