// Package params defines the immutable per-job processing parameters captured
// when a transcription request is accepted. Parameters are serialized onto the
// job row at creation and never mutated after the job starts running.
package params

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"tunescribe/internal/services"
	"tunescribe/internal/tempo"
)

// Separation method values.
const (
	SeparationNone   = "none"
	SeparationDemucs = "demucs"
)

// Params captures every knob the pipeline honors for one job.
type Params struct {
	Separation string `json:"separation"`

	Highpass  bool `json:"highpass"`
	Denoise   bool `json:"denoise"`
	Normalize bool `json:"normalize"`
	Trim      bool `json:"trim"`

	PitchBackend string `json:"pitch_backend"`
	SmoothPitch  bool   `json:"smooth_pitch"`

	Grid            float64 `json:"grid"`
	MinNoteDuration float64 `json:"min_note_duration"`

	// TempoBPM > 0 overrides estimation entirely.
	TempoBPM float64 `json:"tempo_bpm"`

	// Key == "" requests auto-detection using KeyMethod.
	Key           string `json:"key"`
	KeyMethod     string `json:"key_method"`
	TimeSignature string `json:"time_signature"`

	SynthStyle string `json:"synth_style"`
}

// Defaults returns the parameter set used when a submission supplies nothing.
func Defaults() Params {
	return Params{
		Separation:      SeparationNone,
		Highpass:        true,
		Denoise:         true,
		Normalize:       true,
		Trim:            true,
		PitchBackend:    "",
		SmoothPitch:     true,
		Grid:            0.25,
		MinNoteDuration: 0.125,
		TempoBPM:        0,
		Key:             "",
		KeyMethod:       "krumhansl",
		TimeSignature:   "4/4",
		SynthStyle:      "sine",
	}
}

// ApplyDefaults fills empty string fields with defaults and lowercases selectors.
func (p *Params) ApplyDefaults() {
	defaults := Defaults()
	p.Separation = strings.ToLower(strings.TrimSpace(p.Separation))
	if p.Separation == "" {
		p.Separation = defaults.Separation
	}
	p.PitchBackend = strings.ToLower(strings.TrimSpace(p.PitchBackend))
	p.KeyMethod = strings.ToLower(strings.TrimSpace(p.KeyMethod))
	if p.KeyMethod == "" {
		p.KeyMethod = defaults.KeyMethod
	}
	p.TimeSignature = strings.TrimSpace(p.TimeSignature)
	if p.TimeSignature == "" {
		p.TimeSignature = defaults.TimeSignature
	}
	p.SynthStyle = strings.ToLower(strings.TrimSpace(p.SynthStyle))
	if p.SynthStyle == "" {
		p.SynthStyle = defaults.SynthStyle
	}
	if p.Grid == 0 {
		p.Grid = defaults.Grid
	}
	if p.MinNoteDuration == 0 {
		p.MinNoteDuration = defaults.MinNoteDuration
	}
}

// Validate rejects values the pipeline cannot honor. It runs at submission
// time; parameters already stored on a job row are assumed valid.
func (p Params) Validate() error {
	if p.TempoBPM != 0 {
		if math.IsNaN(p.TempoBPM) || math.IsInf(p.TempoBPM, 0) ||
			p.TempoBPM < 0 || p.TempoBPM > tempo.MaxBPM {
			return services.Wrap(services.ErrValidation, "submit", "params",
				fmt.Sprintf("tempo %v outside (0, %v] BPM", p.TempoBPM, tempo.MaxBPM), nil)
		}
	}
	return nil
}

// Marshal serializes parameters for storage on the job row.
func (p Params) Marshal() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

// Unmarshal restores parameters from the job row. An empty payload yields the
// defaults.
func Unmarshal(payload string) (Params, error) {
	if strings.TrimSpace(payload) == "" {
		return Defaults(), nil
	}
	var p Params
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return Params{}, fmt.Errorf("unmarshal params: %w", err)
	}
	p.ApplyDefaults()
	return p, nil
}
