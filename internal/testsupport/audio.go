package testsupport

import (
	"math"
	"path/filepath"
	"testing"

	"tunescribe/internal/media"
)

// WriteToneWAV writes a mono sine tone fixture and returns its path.
func WriteToneWAV(t testing.TB, freq, seconds float64, rate int) string {
	t.Helper()

	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.4 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return writeWAV(t, media.Signal{Samples: samples, SampleRate: rate})
}

// WriteSilenceWAV writes an all-zero fixture and returns its path.
func WriteSilenceWAV(t testing.TB, seconds float64, rate int) string {
	t.Helper()

	n := int(seconds * float64(rate))
	return writeWAV(t, media.Signal{Samples: make([]float64, n), SampleRate: rate})
}

// WriteMelodyWAV writes a fixture stepping through the given MIDI pitches,
// holding each for noteSeconds. Useful for exercising the full pipeline.
func WriteMelodyWAV(t testing.TB, midiNotes []int, noteSeconds float64, rate int) string {
	t.Helper()

	perNote := int(noteSeconds * float64(rate))
	samples := make([]float64, 0, perNote*len(midiNotes))
	for _, note := range midiNotes {
		freq := 440.0 * math.Pow(2, float64(note-69)/12.0)
		for i := 0; i < perNote; i++ {
			v := 0.4 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
			// Short fades keep note boundaries click free.
			fade := 64
			if i < fade {
				v *= float64(i) / float64(fade)
			} else if i >= perNote-fade {
				v *= float64(perNote-1-i) / float64(fade)
			}
			samples = append(samples, v)
		}
	}
	return writeWAV(t, media.Signal{Samples: samples, SampleRate: rate})
}

func writeWAV(t testing.TB, sig media.Signal) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	if err := media.EncodeWAV(path, sig); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return path
}
