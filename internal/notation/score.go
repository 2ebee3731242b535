package notation

import (
	"fmt"

	"tunescribe/internal/quantize"
	"tunescribe/internal/services"
)

// Element is one notated note or rest. Duration is in quarter lengths.
type Element struct {
	Pitch    int // MIDI note number; < 0 means rest
	Duration float64
	Rest     bool
}

// Score is the assembled notation model consumed by the exporters.
type Score struct {
	Title         string
	Key           Key
	TimeSignature TimeSig
	TempoBPM      float64
	Elements      []Element
}

// TimeSig is a parsed time signature.
type TimeSig struct {
	Beats    int
	BeatType int
}

func (ts TimeSig) String() string {
	return fmt.Sprintf("%d/%d", ts.Beats, ts.BeatType)
}

// quarters per measure under this signature.
func (ts TimeSig) measureQuarters() float64 {
	return float64(ts.Beats) * 4 / float64(ts.BeatType)
}

// ParseTimeSig parses "N/D". Anything malformed falls back to 4/4.
func ParseTimeSig(s string) TimeSig {
	var beats, beatType int
	if _, err := fmt.Sscanf(s, "%d/%d", &beats, &beatType); err != nil || beats <= 0 || beatType <= 0 {
		return TimeSig{Beats: 4, BeatType: 4}
	}
	switch beatType {
	case 1, 2, 4, 8, 16, 32:
		return TimeSig{Beats: beats, BeatType: beatType}
	default:
		return TimeSig{Beats: 4, BeatType: 4}
	}
}

// Assemble builds a score from a quantized event sequence. Individually
// malformed events (out-of-range pitch, non-positive duration) degrade to
// rests; an event list that is not contiguous is a caller contract violation.
func Assemble(events []quantize.NoteEvent, key Key, timeSig TimeSig, tempoBPM float64, title string) (*Score, error) {
	const stage = "notation"

	cursor := 0.0
	elements := make([]Element, 0, len(events))
	for i, e := range events {
		if e.OnsetBeats != cursor {
			return nil, services.Wrap(services.ErrValidation, stage, "assemble",
				fmt.Sprintf("event %d onset %v does not follow previous end %v", i, e.OnsetBeats, cursor), nil)
		}
		cursor = e.OnsetBeats + e.DurationBeats

		el := Element{Pitch: e.Pitch, Duration: e.DurationBeats}
		if e.IsRest() || e.Pitch <= 0 || e.Pitch > 127 || e.DurationBeats <= 0 {
			el.Rest = true
			el.Pitch = quantize.Rest
			if el.Duration <= 0 {
				continue
			}
		}
		elements = append(elements, el)
	}

	return &Score{
		Title:         title,
		Key:           key,
		TimeSignature: timeSig,
		TempoBPM:      tempoBPM,
		Elements:      elements,
	}, nil
}

// pitchSpelling maps a MIDI note to MusicXML step/alter/octave, sharps
// preferred.
func pitchSpelling(midi int) (step string, alter int, octave int) {
	steps := [12]struct {
		step  string
		alter int
	}{
		{"C", 0}, {"C", 1}, {"D", 0}, {"D", 1}, {"E", 0}, {"F", 0},
		{"F", 1}, {"G", 0}, {"G", 1}, {"A", 0}, {"A", 1}, {"B", 0},
	}
	s := steps[midi%12]
	return s.step, s.alter, midi/12 - 1
}
