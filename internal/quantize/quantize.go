package quantize

import (
	"fmt"
	"math"
	"sort"

	"tunescribe/internal/pitch"
	"tunescribe/internal/services"
)

// Rest marks a NoteEvent with no pitch.
const Rest = -1

// NoteEvent is one quantized note or rest. A valid sequence is sorted by
// onset, contiguous, and covers the whole signal span.
type NoteEvent struct {
	OnsetBeats    float64 `json:"onset_beats"`
	DurationBeats float64 `json:"duration_beats"`
	Pitch         int     `json:"pitch"`
}

// IsRest reports whether the event is a rest.
func (e NoteEvent) IsRest() bool {
	return e.Pitch == Rest
}

// Config holds the quantization grid settings in beats.
type Config struct {
	Grid        float64
	MinDuration float64
}

// Quantize converts a pitch contour into a gap-free note event sequence on
// the configured grid. An empty contour yields an empty sequence. Tempo must
// be positive and the grid settings strictly positive; violations are
// configuration errors.
func Quantize(contour pitch.Contour, tempoBPM float64, cfg Config) ([]NoteEvent, error) {
	const stage = "quantize"

	if tempoBPM <= 0 || math.IsNaN(tempoBPM) || math.IsInf(tempoBPM, 0) {
		return nil, services.Wrap(services.ErrConfiguration, stage, "tempo",
			fmt.Sprintf("tempo %v BPM is not positive", tempoBPM), nil)
	}
	if cfg.Grid <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, stage, "grid",
			fmt.Sprintf("grid %v is not positive", cfg.Grid), nil)
	}
	if cfg.MinDuration <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, stage, "min-duration",
			fmt.Sprintf("minimum note duration %v is not positive", cfg.MinDuration), nil)
	}
	if contour.Len() == 0 {
		return nil, nil
	}

	// Time to beats, then snap onto the grid.
	snapped := make([]float64, contour.Len())
	for i, t := range contour.Times {
		beat := t * tempoBPM / 60
		snapped[i] = snapToGrid(beat, cfg.Grid)
	}

	totalBeats := snapToGrid(contour.Times[contour.Len()-1]*tempoBPM/60, cfg.Grid)

	events := segment(contour, snapped, cfg.Grid)
	events = dropShortAndRests(events, cfg.MinDuration)
	events = mergeRepeated(events)
	return fillRests(events, totalBeats), nil
}

// snapToGrid rounds a beat position to the nearest grid line, half away
// from zero.
func snapToGrid(beat, grid float64) float64 {
	return math.Round(beat/grid) * grid
}

// segment groups consecutive frames that share a snapped onset into raw
// events. Each event runs to the next distinct onset; the final event gets
// exactly one grid unit since nothing bounds it.
func segment(contour pitch.Contour, snapped []float64, grid float64) []NoteEvent {
	type span struct {
		onset      float64
		start, end int // frame index range, end exclusive
	}

	var spans []span
	for i := range snapped {
		if len(spans) > 0 && spans[len(spans)-1].onset == snapped[i] {
			spans[len(spans)-1].end = i + 1
			continue
		}
		spans = append(spans, span{onset: snapped[i], start: i, end: i + 1})
	}

	events := make([]NoteEvent, 0, len(spans))
	for i, sp := range spans {
		duration := grid
		if i+1 < len(spans) {
			duration = spans[i+1].onset - sp.onset
		}
		if duration <= 0 {
			continue
		}
		events = append(events, NoteEvent{
			OnsetBeats:    sp.onset,
			DurationBeats: duration,
			Pitch:         spanPitch(contour, sp.start, sp.end),
		})
	}
	return events
}

// spanPitch assigns the median MIDI pitch of the voiced frames in the span,
// or Rest when none are voiced.
func spanPitch(contour pitch.Contour, start, end int) int {
	var pitches []int
	for i := start; i < end; i++ {
		if !contour.Voiced[i] {
			continue
		}
		pitches = append(pitches, FreqToMIDI(contour.FreqHz[i]))
	}
	if len(pitches) == 0 {
		return Rest
	}
	sort.Ints(pitches)
	return pitches[len(pitches)/2]
}

// dropShortAndRests removes notes shorter than the minimum duration, each
// dropped outright rather than merged into a neighbour. Raw rest spans are
// removed too; the rest fill recreates them merged.
func dropShortAndRests(events []NoteEvent, minDuration float64) []NoteEvent {
	kept := events[:0]
	for _, e := range events {
		if e.IsRest() || e.DurationBeats < minDuration {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// mergeRepeated joins adjacent events that hold the same pitch with no gap
// between them, so a steady tone becomes one sustained note instead of a
// run of grid-length repeats.
func mergeRepeated(events []NoteEvent) []NoteEvent {
	if len(events) < 2 {
		return events
	}
	out := events[:1]
	for _, e := range events[1:] {
		last := &out[len(out)-1]
		if e.Pitch == last.Pitch && e.OnsetBeats == last.OnsetBeats+last.DurationBeats {
			last.DurationBeats += e.DurationBeats
			continue
		}
		out = append(out, e)
	}
	return out
}

// fillRests sorts events and fills every gap over [0, totalBeats] with a
// rest so the sequence is contiguous.
func fillRests(events []NoteEvent, totalBeats float64) []NoteEvent {
	sort.Slice(events, func(i, j int) bool {
		return events[i].OnsetBeats < events[j].OnsetBeats
	})

	out := make([]NoteEvent, 0, len(events)+2)
	cursor := 0.0
	for _, e := range events {
		if gap := e.OnsetBeats - cursor; gap > 0 {
			out = append(out, NoteEvent{OnsetBeats: cursor, DurationBeats: gap, Pitch: Rest})
		}
		out = append(out, e)
		cursor = e.OnsetBeats + e.DurationBeats
	}
	if gap := totalBeats - cursor; gap > 0 {
		out = append(out, NoteEvent{OnsetBeats: cursor, DurationBeats: gap, Pitch: Rest})
	}
	if len(out) == 0 && totalBeats > 0 {
		out = append(out, NoteEvent{OnsetBeats: 0, DurationBeats: totalBeats, Pitch: Rest})
	}
	return out
}

// FreqToMIDI converts a frequency to the nearest MIDI note number, clipped
// to [0, 127]. Zero or non-finite input maps to 0.
func FreqToMIDI(freqHz float64) int {
	if freqHz <= 0 || math.IsNaN(freqHz) || math.IsInf(freqHz, 0) {
		return 0
	}
	midi := int(math.Round(69 + 12*math.Log2(freqHz/440)))
	if midi < 0 {
		return 0
	}
	if midi > 127 {
		return 127
	}
	return midi
}
