package notation

import (
	"fmt"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"tunescribe/internal/services"
)

// midiTicksPerQuarter is the SMF resolution used for exports.
const midiTicksPerQuarter = 480

// WriteMIDI exports the score as a single-track standard MIDI file. Rests
// advance the cursor without emitting events.
func WriteMIDI(score *Score, path string) error {
	const stage = "notation"

	file := smf.New()
	file.TimeFormat = smf.MetricTicks(midiTicksPerQuarter)

	var track smf.Track
	track.Add(0, smf.MetaTempo(score.TempoBPM))
	track.Add(0, smf.MetaMeter(uint8(score.TimeSignature.Beats), uint8(score.TimeSignature.BeatType)))

	const channel, velocity = 0, 80
	pending := uint32(0)
	for _, el := range score.Elements {
		ticks := uint32(math.Round(el.Duration * midiTicksPerQuarter))
		if ticks == 0 {
			continue
		}
		if el.Rest {
			pending += ticks
			continue
		}
		track.Add(pending, midi.NoteOn(channel, uint8(el.Pitch), velocity))
		track.Add(ticks, midi.NoteOff(channel, uint8(el.Pitch)))
		pending = 0
	}
	track.Close(pending)

	file.Add(track)
	if err := file.WriteFile(path); err != nil {
		return services.Wrap(services.ErrTransient, stage, "midi",
			fmt.Sprintf("write %s", path), err)
	}
	return nil
}
