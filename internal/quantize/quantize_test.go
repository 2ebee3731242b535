package quantize

import (
	"errors"
	"math"
	"testing"

	"tunescribe/internal/pitch"
	"tunescribe/internal/services"
)

// contourAt builds a fixed-hop contour holding one frequency for the voiced
// frames and 0 elsewhere.
func contourAt(hop float64, freqs []float64) pitch.Contour {
	c := pitch.Contour{
		Times:  make([]float64, len(freqs)),
		FreqHz: make([]float64, len(freqs)),
		Voiced: make([]bool, len(freqs)),
	}
	for i, f := range freqs {
		c.Times[i] = float64(i) * hop
		c.FreqHz[i] = f
		c.Voiced[i] = f > 0
	}
	return c
}

func defaultConfig() Config {
	return Config{Grid: 0.25, MinDuration: 0.125}
}

func checkContiguous(t *testing.T, events []NoteEvent) {
	t.Helper()
	cursor := 0.0
	for i, e := range events {
		if e.OnsetBeats != cursor {
			t.Fatalf("event %d: onset %f, expected %f (gap or overlap)", i, e.OnsetBeats, cursor)
		}
		if e.DurationBeats <= 0 {
			t.Fatalf("event %d: non-positive duration %f", i, e.DurationBeats)
		}
		cursor = e.OnsetBeats + e.DurationBeats
	}
}

func TestSteadyToneSingleNote(t *testing.T) {
	// One second of 440 Hz at 120 BPM: two beats of voiced frames.
	n := 100
	freqs := make([]float64, n)
	for i := range freqs {
		freqs[i] = 440
	}
	contour := contourAt(0.01, freqs)

	events, err := Quantize(contour, 120, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	checkContiguous(t, events)

	var notes []NoteEvent
	for _, e := range events {
		if !e.IsRest() {
			notes = append(notes, e)
		}
	}
	if len(notes) != 1 {
		t.Fatalf("got %d notes, want 1: %+v", len(notes), events)
	}
	if notes[0].OnsetBeats != 0 {
		t.Fatalf("onset %f, want 0", notes[0].OnsetBeats)
	}
	if notes[0].Pitch != 69 {
		t.Fatalf("pitch %d, want 69", notes[0].Pitch)
	}
}

func TestSilentContourSingleRest(t *testing.T) {
	contour := contourAt(0.01, make([]float64, 100))

	events, err := Quantize(contour, 120, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 rest: %+v", len(events), events)
	}
	if !events[0].IsRest() {
		t.Fatal("expected a rest")
	}
	if events[0].OnsetBeats != 0 {
		t.Fatalf("rest onset %f, want 0", events[0].OnsetBeats)
	}
}

func TestEmptyContour(t *testing.T) {
	events, err := Quantize(pitch.Contour{}, 120, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want none", len(events))
	}
}

func TestConfigurationErrors(t *testing.T) {
	contour := contourAt(0.01, []float64{440, 440})

	cases := []struct {
		name  string
		tempo float64
		cfg   Config
	}{
		{"zero tempo", 0, defaultConfig()},
		{"negative tempo", -1, defaultConfig()},
		{"nan tempo", math.NaN(), defaultConfig()},
		{"zero grid", 120, Config{Grid: 0, MinDuration: 0.125}},
		{"zero min duration", 120, Config{Grid: 0.25, MinDuration: 0}},
	}
	for _, tc := range cases {
		if _, err := Quantize(contour, tc.tempo, tc.cfg); !errors.Is(err, services.ErrConfiguration) {
			t.Errorf("%s: want configuration error, got %v", tc.name, err)
		}
	}
}

func TestGridSnapIdempotent(t *testing.T) {
	freqs := []float64{0, 262, 262, 262, 0, 0, 330, 330, 330, 330, 0, 294, 294, 0, 0, 392}
	contour := contourAt(0.13, freqs)

	first, err := Quantize(contour, 97, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Quantize(contour, 97, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
	checkContiguous(t, first)
}

func TestShortNotesDroppedNotMerged(t *testing.T) {
	// A single voiced frame between silences quantizes to a sub-minimum
	// event and must vanish, leaving only rests.
	freqs := []float64{0, 0, 0, 0, 440, 0, 0, 0, 0, 0, 0, 0}
	contour := contourAt(0.05, freqs)

	events, err := Quantize(contour, 120, Config{Grid: 0.1, MinDuration: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	checkContiguous(t, events)
	for _, e := range events {
		if !e.IsRest() {
			t.Fatalf("short note survived: %+v", e)
		}
	}
}

func TestMinimumDurationRespected(t *testing.T) {
	freqs := []float64{262, 262, 262, 262, 262, 262, 330, 330, 330, 330, 330, 330}
	contour := contourAt(0.08, freqs)

	events, err := Quantize(contour, 120, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range events {
		if !e.IsRest() && e.DurationBeats < 0.125 {
			t.Fatalf("note below minimum duration: %+v", e)
		}
	}
}

func TestFreqToMIDI(t *testing.T) {
	cases := []struct {
		freq float64
		want int
	}{
		{440, 69},
		{261.63, 60},
		{880, 81},
		{0, 0},
		{-5, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{4, 0},       // below MIDI range
		{30000, 127}, // above MIDI range
	}
	for _, tc := range cases {
		if got := FreqToMIDI(tc.freq); got != tc.want {
			t.Errorf("FreqToMIDI(%v) = %d, want %d", tc.freq, got, tc.want)
		}
	}
}

func TestFinalEventGetsOneGridUnit(t *testing.T) {
	// Two onsets; the last has nothing bounding it and must span one grid
	// unit exactly.
	contour := pitch.Contour{
		Times:  []float64{0, 0.5},
		FreqHz: []float64{440, 494},
		Voiced: []bool{true, true},
	}

	events, err := Quantize(contour, 120, Config{Grid: 0.25, MinDuration: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	last := events[len(events)-1]
	if last.IsRest() {
		t.Fatalf("expected trailing note, got %+v", last)
	}
	if last.DurationBeats != 0.25 {
		t.Fatalf("final duration %f, want one grid unit 0.25", last.DurationBeats)
	}
}
