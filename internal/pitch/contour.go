package pitch

// Contour is a fixed-hop fundamental frequency track. The three slices are
// always the same length; unvoiced frames carry FreqHz == 0.
type Contour struct {
	Times  []float64
	FreqHz []float64
	Voiced []bool
}

// Len returns the number of frames.
func (c Contour) Len() int {
	return len(c.Times)
}

// VoicedFrequencies returns the frequencies of voiced frames in order.
func (c Contour) VoicedFrequencies() []float64 {
	out := make([]float64, 0, len(c.FreqHz))
	for i, voiced := range c.Voiced {
		if voiced {
			out = append(out, c.FreqHz[i])
		}
	}
	return out
}
