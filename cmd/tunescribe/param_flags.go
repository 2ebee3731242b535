package main

import (
	"github.com/spf13/cobra"

	"tunescribe/internal/params"
)

// paramFlags binds the per-job processing parameters to command flags. The
// defaults mirror params.Defaults so a bare submit behaves like the daemon's
// own fallback path.
type paramFlags struct {
	values params.Params
}

func newParamFlags() *paramFlags {
	return &paramFlags{values: params.Defaults()}
}

func (f *paramFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.values.Separation, "separation", f.values.Separation, "Source separation method (none, demucs)")
	flags.BoolVar(&f.values.Highpass, "highpass", f.values.Highpass, "Apply the high-pass filter")
	flags.BoolVar(&f.values.Denoise, "denoise", f.values.Denoise, "Apply spectral denoising")
	flags.BoolVar(&f.values.Normalize, "normalize", f.values.Normalize, "Normalize loudness before analysis")
	flags.BoolVar(&f.values.Trim, "trim", f.values.Trim, "Trim leading and trailing silence")
	flags.StringVar(&f.values.PitchBackend, "pitch-backend", f.values.PitchBackend, "Pitch backend (acf, nsdf); empty uses the configured one")
	flags.BoolVar(&f.values.SmoothPitch, "smooth-pitch", f.values.SmoothPitch, "Smooth the pitch contour")
	flags.Float64Var(&f.values.Grid, "grid", f.values.Grid, "Quantization grid in beats")
	flags.Float64Var(&f.values.MinNoteDuration, "min-note", f.values.MinNoteDuration, "Minimum note duration in beats")
	flags.Float64Var(&f.values.TempoBPM, "tempo", f.values.TempoBPM, "Tempo in BPM (0 = estimate)")
	flags.StringVar(&f.values.Key, "key", f.values.Key, "Key signature, e.g. \"G major\" or \"Am\" (empty = detect)")
	flags.StringVar(&f.values.KeyMethod, "key-method", f.values.KeyMethod, "Key detection method (krumhansl, histogram)")
	flags.StringVar(&f.values.TimeSignature, "time-signature", f.values.TimeSignature, "Time signature, e.g. 3/4")
	flags.StringVar(&f.values.SynthStyle, "synth-style", f.values.SynthStyle, "Preview synthesis style (sine, piano)")
}

func (f *paramFlags) params() params.Params {
	p := f.values
	p.ApplyDefaults()
	return p
}
