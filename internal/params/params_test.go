package params

import (
	"errors"
	"math"
	"testing"

	"tunescribe/internal/services"
)

func TestDefaultsRoundTrip(t *testing.T) {
	p := Defaults()
	payload, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	restored, err := Unmarshal(payload)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if restored != p {
		t.Fatalf("round trip mismatch: %+v != %+v", restored, p)
	}
}

func TestUnmarshalEmptyYieldsDefaults(t *testing.T) {
	p, err := Unmarshal("")
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p != Defaults() {
		t.Fatalf("expected defaults, got %+v", p)
	}
}

func TestNormalizeFillsSelectors(t *testing.T) {
	p := Params{Separation: "  DEMUCS ", Grid: 0.5}
	p.ApplyDefaults()
	if p.Separation != SeparationDemucs {
		t.Fatalf("Separation = %q", p.Separation)
	}
	if p.Grid != 0.5 {
		t.Fatalf("Grid overwritten: %v", p.Grid)
	}
	if p.MinNoteDuration != Defaults().MinNoteDuration {
		t.Fatalf("MinNoteDuration = %v", p.MinNoteDuration)
	}
	if p.TimeSignature != "4/4" || p.SynthStyle != "sine" || p.KeyMethod != "krumhansl" {
		t.Fatalf("selectors not defaulted: %+v", p)
	}
}

func TestValidateTempoRange(t *testing.T) {
	cases := []struct {
		name  string
		tempo float64
		ok    bool
	}{
		{"auto", 0, true},
		{"typical", 120, true},
		{"upper bound", 300, true},
		{"too fast", 400, false},
		{"negative", -5, false},
		{"nan", math.NaN(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Defaults()
			p.TempoBPM = tc.tempo
			err := p.Validate()
			if tc.ok {
				if err != nil {
					t.Fatalf("Validate(%v): %v", tc.tempo, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate(%v) accepted", tc.tempo)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("Validate(%v) = %v, want validation error", tc.tempo, err)
			}
		})
	}
}
