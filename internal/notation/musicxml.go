package notation

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"

	"tunescribe/internal/services"
)

// divisions per quarter note in exported MusicXML.
const xmlDivisions = 480

type xmlScorePartwise struct {
	XMLName  xml.Name    `xml:"score-partwise"`
	Version  string      `xml:"version,attr"`
	Work     *xmlWork    `xml:"work,omitempty"`
	PartList xmlPartList `xml:"part-list"`
	Parts    []xmlPart   `xml:"part"`
}

type xmlWork struct {
	Title string `xml:"work-title"`
}

type xmlPartList struct {
	ScoreParts []xmlScorePart `xml:"score-part"`
}

type xmlScorePart struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"part-name"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Number     int            `xml:"number,attr"`
	Attributes *xmlAttributes `xml:"attributes,omitempty"`
	Direction  *xmlDirection  `xml:"direction,omitempty"`
	Notes      []xmlNote      `xml:"note"`
}

type xmlAttributes struct {
	Divisions int      `xml:"divisions"`
	Key       *xmlKey  `xml:"key,omitempty"`
	Time      *xmlTime `xml:"time,omitempty"`
	Clef      *xmlClef `xml:"clef,omitempty"`
}

type xmlKey struct {
	Fifths int `xml:"fifths"`
}

type xmlTime struct {
	Beats    int `xml:"beats"`
	BeatType int `xml:"beat-type"`
}

type xmlClef struct {
	Sign string `xml:"sign"`
	Line int    `xml:"line"`
}

type xmlDirection struct {
	Sound xmlSound `xml:"sound"`
}

type xmlSound struct {
	Tempo float64 `xml:"tempo,attr"`
}

type xmlNote struct {
	Rest     *struct{} `xml:"rest,omitempty"`
	Pitch    *xmlPitch `xml:"pitch,omitempty"`
	Duration int       `xml:"duration"`
	Ties     []xmlTie  `xml:"tie,omitempty"`
}

type xmlPitch struct {
	Step   string `xml:"step"`
	Alter  int    `xml:"alter,omitempty"`
	Octave int    `xml:"octave"`
}

type xmlTie struct {
	Type string `xml:"type,attr"`
}

// WriteMusicXML exports the score as partwise MusicXML. Notes that cross a
// barline are split and tied.
func WriteMusicXML(score *Score, path string) error {
	const stage = "notation"

	doc := xmlScorePartwise{
		Version:  "3.1",
		PartList: xmlPartList{ScoreParts: []xmlScorePart{{ID: "P1", Name: "Melody"}}},
	}
	if score.Title != "" {
		doc.Work = &xmlWork{Title: score.Title}
	}

	measureDivs := int(math.Round(score.TimeSignature.measureQuarters() * xmlDivisions))
	if measureDivs <= 0 {
		measureDivs = 4 * xmlDivisions
	}

	part := xmlPart{ID: "P1"}
	measure := newMeasure(1, score)
	used := 0

	flush := func() {
		part.Measures = append(part.Measures, measure)
		measure = xmlMeasure{Number: len(part.Measures) + 1}
		used = 0
	}

	for _, el := range score.Elements {
		remaining := int(math.Round(el.Duration * xmlDivisions))
		if remaining <= 0 {
			continue
		}
		tied := false
		for remaining > 0 {
			space := measureDivs - used
			chunk := remaining
			if chunk > space {
				chunk = space
			}

			note := xmlNote{Duration: chunk}
			if el.Rest {
				note.Rest = &struct{}{}
			} else {
				step, alter, octave := pitchSpelling(el.Pitch)
				note.Pitch = &xmlPitch{Step: step, Alter: alter, Octave: octave}
				if tied {
					note.Ties = append(note.Ties, xmlTie{Type: "stop"})
				}
				if remaining > chunk {
					note.Ties = append(note.Ties, xmlTie{Type: "start"})
					tied = true
				}
			}
			measure.Notes = append(measure.Notes, note)

			used += chunk
			remaining -= chunk
			if used == measureDivs {
				flush()
			}
		}
	}
	if len(measure.Notes) > 0 {
		part.Measures = append(part.Measures, measure)
	}
	if len(part.Measures) == 0 {
		part.Measures = append(part.Measures, newMeasure(1, score))
	}
	doc.Parts = append(doc.Parts, part)

	payload, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, stage, "musicxml", "marshal score", err)
	}
	content := append([]byte(xml.Header), payload...)
	content = append(content, '\n')
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, stage, "musicxml",
			fmt.Sprintf("write %s", path), err)
	}
	return nil
}

// newMeasure carries the attribute block every first measure needs.
func newMeasure(number int, score *Score) xmlMeasure {
	fifths := score.Key.Fifths()
	return xmlMeasure{
		Number: number,
		Attributes: &xmlAttributes{
			Divisions: xmlDivisions,
			Key:       &xmlKey{Fifths: fifths},
			Time: &xmlTime{
				Beats:    score.TimeSignature.Beats,
				BeatType: score.TimeSignature.BeatType,
			},
			Clef: &xmlClef{Sign: "G", Line: 2},
		},
		Direction: &xmlDirection{Sound: xmlSound{Tempo: score.TempoBPM}},
	}
}
