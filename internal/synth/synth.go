package synth

import (
	"fmt"
	"math"

	"tunescribe/internal/media"
	"tunescribe/internal/quantize"
	"tunescribe/internal/services"
)

// fadeSamples is the linear fade applied at both ends of every note to
// avoid boundary clicks.
const fadeSamples = 100

// Render synthesizes an audible preview of a quantized event sequence.
// Styles are "sine" and "piano"; rests contribute silence. The result is
// peak normalized.
func Render(events []quantize.NoteEvent, tempoBPM float64, sampleRate int, style string) (media.Signal, error) {
	const stage = "preview"

	if tempoBPM <= 0 {
		return media.Signal{}, services.Wrap(services.ErrConfiguration, stage, "render",
			fmt.Sprintf("tempo %v BPM is not positive", tempoBPM), nil)
	}
	voice, err := voiceFor(style)
	if err != nil {
		return media.Signal{}, err
	}

	secondsPerBeat := 60 / tempoBPM
	totalBeats := 0.0
	for _, e := range events {
		if end := e.OnsetBeats + e.DurationBeats; end > totalBeats {
			totalBeats = end
		}
	}
	buf := make([]float64, int(math.Ceil(totalBeats*secondsPerBeat*float64(sampleRate))))

	for _, e := range events {
		if e.IsRest() {
			continue
		}
		start := int(e.OnsetBeats * secondsPerBeat * float64(sampleRate))
		length := int(e.DurationBeats * secondsPerBeat * float64(sampleRate))
		if start >= len(buf) || length <= 0 {
			continue
		}
		if start+length > len(buf) {
			length = len(buf) - start
		}

		freq := 440 * math.Pow(2, float64(e.Pitch-69)/12.0)
		for i := 0; i < length; i++ {
			v := voice(freq, i, length, sampleRate)
			buf[start+i] += v * fade(i, length)
		}
	}

	normalizePeak(buf)
	return media.Signal{Samples: buf, SampleRate: sampleRate}, nil
}

type voiceFunc func(freq float64, i, length, sampleRate int) float64

func voiceFor(style string) (voiceFunc, error) {
	switch style {
	case "sine", "":
		return sineVoice, nil
	case "piano":
		return pianoVoice, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "preview", "style",
			fmt.Sprintf("unknown synthesis style %q", style), nil)
	}
}

func sineVoice(freq float64, i, _, sampleRate int) float64 {
	return math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
}

// pianoVoice layers three harmonics under an exponential decay envelope.
func pianoVoice(freq float64, i, _, sampleRate int) float64 {
	t := float64(i) / float64(sampleRate)
	decay := math.Exp(-3 * t)
	v := math.Sin(2*math.Pi*freq*t) +
		0.5*math.Sin(2*math.Pi*2*freq*t) +
		0.25*math.Sin(2*math.Pi*3*freq*t)
	return v * decay / 1.75
}

func fade(i, length int) float64 {
	n := fadeSamples
	if n > length/2 {
		n = length / 2
	}
	if n == 0 {
		return 1
	}
	if i < n {
		return float64(i) / float64(n)
	}
	if i >= length-n {
		return float64(length-1-i) / float64(n)
	}
	return 1
}

func normalizePeak(buf []float64) {
	var peak float64
	for _, s := range buf {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	scale := 0.95 / peak
	for i := range buf {
		buf[i] *= scale
	}
}
