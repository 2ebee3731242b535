package synth

import (
	"math"
	"testing"

	"tunescribe/internal/quantize"
)

func TestRenderSingleNote(t *testing.T) {
	events := []quantize.NoteEvent{{OnsetBeats: 0, DurationBeats: 2, Pitch: 69}}

	sig, err := Render(events, 120, 22050, "sine")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(sig.Samples), 22050; got != want {
		t.Fatalf("got %d samples, want %d", got, want)
	}

	var peak float64
	for _, s := range sig.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if math.Abs(peak-0.95) > 0.01 {
		t.Fatalf("peak %f, want ~0.95 after normalization", peak)
	}

	// Dominant frequency should be close to A4 = 440 Hz. Count zero
	// crossings over the steady middle of the note.
	mid := sig.Samples[5000:17000]
	crossings := 0
	for i := 1; i < len(mid); i++ {
		if (mid[i-1] < 0) != (mid[i] < 0) {
			crossings++
		}
	}
	freq := float64(crossings) / 2 * 22050 / float64(len(mid))
	if math.Abs(freq-440) > 5 {
		t.Fatalf("dominant frequency %.1f Hz, want ~440", freq)
	}
}

func TestRestsStaySilent(t *testing.T) {
	events := []quantize.NoteEvent{
		{OnsetBeats: 0, DurationBeats: 1, Pitch: quantize.Rest},
		{OnsetBeats: 1, DurationBeats: 1, Pitch: 60},
	}

	sig, err := Render(events, 120, 22050, "sine")
	if err != nil {
		t.Fatal(err)
	}
	restEnd := 22050 / 2
	for i := 0; i < restEnd; i++ {
		if sig.Samples[i] != 0 {
			t.Fatalf("rest region not silent at sample %d", i)
		}
	}
}

func TestFadesSoftenBoundaries(t *testing.T) {
	events := []quantize.NoteEvent{{OnsetBeats: 0, DurationBeats: 2, Pitch: 69}}

	sig, err := Render(events, 120, 22050, "sine")
	if err != nil {
		t.Fatal(err)
	}
	if got := math.Abs(sig.Samples[0]); got > 1e-9 {
		t.Fatalf("first sample %f, want 0 from fade-in", got)
	}
	last := sig.Samples[len(sig.Samples)-1]
	if math.Abs(last) > 0.05 {
		t.Fatalf("last sample %f, want near 0 from fade-out", last)
	}
}

func TestPianoStyleDecays(t *testing.T) {
	events := []quantize.NoteEvent{{OnsetBeats: 0, DurationBeats: 4, Pitch: 60}}

	sig, err := Render(events, 120, 22050, "piano")
	if err != nil {
		t.Fatal(err)
	}

	rms := func(span []float64) float64 {
		var sum float64
		for _, s := range span {
			sum += s * s
		}
		return math.Sqrt(sum / float64(len(span)))
	}
	early := rms(sig.Samples[1000:5000])
	late := rms(sig.Samples[len(sig.Samples)-5000 : len(sig.Samples)-1000])
	if late >= early {
		t.Fatalf("no decay: early rms %f, late rms %f", early, late)
	}
}

func TestUnknownStyle(t *testing.T) {
	events := []quantize.NoteEvent{{OnsetBeats: 0, DurationBeats: 1, Pitch: 60}}
	if _, err := Render(events, 120, 22050, "theremin"); err == nil {
		t.Fatal("expected error for unknown style")
	}
}

func TestEmptySequence(t *testing.T) {
	sig, err := Render(nil, 120, 22050, "sine")
	if err != nil {
		t.Fatal(err)
	}
	if len(sig.Samples) != 0 {
		t.Fatalf("got %d samples for empty input", len(sig.Samples))
	}
}
