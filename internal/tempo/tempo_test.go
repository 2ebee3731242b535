package tempo

import (
	"errors"
	"math"
	"testing"

	"tunescribe/internal/media"
)

type stubEstimator struct {
	bpm float64
	err error
}

func (s stubEstimator) EstimateBPM(media.Signal) (float64, error) {
	return s.bpm, s.err
}

func TestExplicitOverrideSkipsEstimation(t *testing.T) {
	got := Estimate(media.Signal{}, 96, stubEstimator{bpm: 180})
	if got != 96 {
		t.Fatalf("got %f, want override 96", got)
	}
}

func TestInvalidResultsFallBackToDefault(t *testing.T) {
	cases := []stubEstimator{
		{bpm: 0},
		{bpm: -10},
		{bpm: 301},
		{bpm: math.NaN()},
		{bpm: math.Inf(1)},
		{err: errors.New("analysis failed")},
	}
	for _, c := range cases {
		if got := Estimate(media.Signal{}, 0, c); got != DefaultBPM {
			t.Fatalf("stub %+v: got %f, want %f", c, got, DefaultBPM)
		}
	}
}

func TestValidEstimatePassesThrough(t *testing.T) {
	if got := Estimate(media.Signal{}, 0, stubEstimator{bpm: 87.5}); got != 87.5 {
		t.Fatalf("got %f, want 87.5", got)
	}
}

func TestOnsetAutocorrelationFindsPulse(t *testing.T) {
	rate := 22050
	seconds := 8.0
	bpm := 120.0
	n := int(seconds * float64(rate))
	samples := make([]float64, n)

	// Clicks decaying over 50 ms at the beat period.
	beatSamples := int(60.0 / bpm * float64(rate))
	decay := int(0.05 * float64(rate))
	for start := 0; start < n; start += beatSamples {
		for i := 0; i < decay && start+i < n; i++ {
			env := 1 - float64(i)/float64(decay)
			samples[start+i] += 0.8 * env * math.Sin(2*math.Pi*880*float64(i)/float64(rate))
		}
	}

	got, err := OnsetAutocorrelation{}.EstimateBPM(media.Signal{Samples: samples, SampleRate: rate})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-bpm) > 6 {
		t.Fatalf("estimated %.1f BPM, want ~%.0f", got, bpm)
	}
}

func TestTooShortSignalFallsBack(t *testing.T) {
	sig := media.Signal{Samples: make([]float64, 100), SampleRate: 22050}
	if got := Estimate(sig, 0, nil); got != DefaultBPM {
		t.Fatalf("got %f, want default", got)
	}
}
