package notation

import (
	"math"
	"strings"
)

// Mode is the scale mode of a detected key.
type Mode string

const (
	ModeMajor Mode = "major"
	ModeMinor Mode = "minor"
)

// Key is a detected or requested key signature.
type Key struct {
	Tonic int // pitch class 0..11, 0 = C
	Mode  Mode
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (k Key) String() string {
	if k.Mode == ModeMinor {
		return sharpNames[k.Tonic] + " minor"
	}
	return sharpNames[k.Tonic] + " major"
}

// Fifths returns the key signature position on the circle of fifths, the
// value MusicXML expects (positive sharps, negative flats).
func (k Key) Fifths() int {
	tonic := k.Tonic
	if k.Mode == ModeMinor {
		tonic = (tonic + 3) % 12 // relative major
	}
	// Walk the circle until the tonic is reached; beyond 6 sharps, flats
	// are the shorter path.
	fifths := 0
	pc := 0
	for pc != tonic {
		pc = (pc + 7) % 12
		fifths++
	}
	if fifths > 6 {
		fifths -= 12
	}
	return fifths
}

// ParseKey resolves a user-supplied key name like "C", "F#", "Am" or
// "D minor". Unrecognized input falls back to C major.
func ParseKey(name string) Key {
	if name == "" {
		return Key{}
	}
	mode := ModeMajor
	rest := strings.TrimSpace(name)
	lower := strings.ToLower(rest)
	switch {
	case strings.HasSuffix(lower, " minor"):
		mode = ModeMinor
		rest = rest[:len(rest)-len(" minor")]
	case strings.HasSuffix(lower, " major"):
		rest = rest[:len(rest)-len(" major")]
	case len(rest) > 1 && rest[len(rest)-1] == 'm':
		mode = ModeMinor
		rest = rest[:len(rest)-1]
	}
	for pc, n := range sharpNames {
		if strings.EqualFold(n, rest) {
			return Key{Tonic: pc, Mode: mode}
		}
	}
	if pc, ok := flatName(rest); ok {
		return Key{Tonic: pc, Mode: mode}
	}
	return Key{}
}

func flatName(name string) (int, bool) {
	flats := map[string]int{"Db": 1, "Eb": 3, "Gb": 6, "Ab": 8, "Bb": 10}
	pc, ok := flats[name]
	return pc, ok
}

// keyDetectionCap bounds the number of sounded pitches examined.
const keyDetectionCap = 512

// Krumhansl-Schmuckler tonal hierarchy profiles.
var (
	majorProfile = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// DetectKey infers a key from the sounded MIDI pitches. Method "krumhansl"
// correlates a pitch-class histogram against the major and minor profiles in
// all 24 rotations; "histogram" takes the modal pitch class as a major key.
// Empty input or an unknown method yields C major.
func DetectKey(pitches []int, method string) Key {
	if len(pitches) > keyDetectionCap {
		pitches = pitches[:keyDetectionCap]
	}

	var histogram [12]float64
	total := 0
	for _, p := range pitches {
		if p <= 0 || p > 127 {
			continue
		}
		histogram[p%12]++
		total++
	}
	if total == 0 {
		return Key{}
	}

	switch method {
	case "histogram":
		best := 0
		for pc := 1; pc < 12; pc++ {
			if histogram[pc] > histogram[best] {
				best = pc
			}
		}
		return Key{Tonic: best, Mode: ModeMajor}
	case "krumhansl", "":
		return krumhanslKey(histogram)
	default:
		return Key{}
	}
}

func krumhanslKey(histogram [12]float64) Key {
	best := Key{}
	bestScore := math.Inf(-1)
	for tonic := 0; tonic < 12; tonic++ {
		if s := profileCorrelation(histogram, majorProfile, tonic); s > bestScore {
			bestScore = s
			best = Key{Tonic: tonic, Mode: ModeMajor}
		}
		if s := profileCorrelation(histogram, minorProfile, tonic); s > bestScore {
			bestScore = s
			best = Key{Tonic: tonic, Mode: ModeMinor}
		}
	}
	return best
}

// profileCorrelation is the Pearson correlation between the histogram and
// the profile rotated to the given tonic.
func profileCorrelation(histogram, profile [12]float64, tonic int) float64 {
	var meanH, meanP float64
	for i := 0; i < 12; i++ {
		meanH += histogram[i]
		meanP += profile[i]
	}
	meanH /= 12
	meanP /= 12

	var num, denomH, denomP float64
	for i := 0; i < 12; i++ {
		h := histogram[i] - meanH
		p := profile[(i-tonic+12)%12] - meanP
		num += h * p
		denomH += h * h
		denomP += p * p
	}
	if denomH == 0 || denomP == 0 {
		return math.Inf(-1)
	}
	return num / math.Sqrt(denomH*denomP)
}
