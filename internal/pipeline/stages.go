package pipeline

import (
	"context"
	"errors"
	"path/filepath"

	"tunescribe/internal/dsp"
	"tunescribe/internal/logging"
	"tunescribe/internal/media"
	"tunescribe/internal/notation"
	"tunescribe/internal/params"
	"tunescribe/internal/pitch"
	"tunescribe/internal/quantize"
	"tunescribe/internal/queue"
	"tunescribe/internal/synth"
	"tunescribe/internal/tempo"
)

// stageSeparate runs optional vocal isolation. Every failure degrades to
// the original audio.
func (r *Runner) stageSeparate(ctx context.Context, jr *jobRun) error {
	if jr.params.Separation != params.SeparationDemucs {
		return nil
	}
	if r.separator == nil {
		return errors.New("separation requested but no separator available")
	}

	stem, err := r.separator.Separate(ctx, jr.audioPath, filepath.Join(jr.dir, "separation"))
	if err != nil {
		return err
	}
	jr.audioPath = stem
	return nil
}

// stagePreprocess decodes the source audio and runs the cleanup chain.
func (r *Runner) stagePreprocess(ctx context.Context, jr *jobRun) error {
	sig, err := media.DecodeWAV(jr.audioPath, r.cfg.Limits.SampleRate)
	if err != nil {
		return err
	}
	jr.signal = dsp.Preprocess(sig, jr.params)
	return nil
}

func (r *Runner) stagePitch(ctx context.Context, jr *jobRun) error {
	backend := jr.params.PitchBackend
	if backend == "" {
		backend = r.cfg.Pitch.Backend
	}

	contour, err := pitch.Extract(ctx, jr.signal, backend, r.cfg.Pitch.FallbackBackend)
	if err != nil {
		return err
	}
	if jr.params.SmoothPitch {
		contour = pitch.Smooth(contour)
	}
	jr.contour = contour
	return nil
}

// stageQuantize resolves the tempo and converts the contour onto the grid.
func (r *Runner) stageQuantize(ctx context.Context, jr *jobRun) error {
	jr.tempoBPM = tempo.Estimate(jr.signal, jr.params.TempoBPM, r.tempoEst)

	events, err := quantize.Quantize(jr.contour, jr.tempoBPM, quantize.Config{
		Grid:        jr.params.Grid,
		MinDuration: jr.params.MinNoteDuration,
	})
	if err != nil {
		return err
	}
	jr.events = events
	return nil
}

// stageNotation assembles the score and writes the MusicXML and MIDI
// artifacts.
func (r *Runner) stageNotation(ctx context.Context, jr *jobRun) error {
	key := notation.ParseKey(jr.params.Key)
	if jr.params.Key == "" {
		key = notation.DetectKey(soundedPitches(jr.events), jr.params.KeyMethod)
	}

	score, err := notation.Assemble(jr.events, key,
		notation.ParseTimeSig(jr.params.TimeSignature), jr.tempoBPM, jr.job.Title)
	if err != nil {
		return err
	}

	xmlPath := filepath.Join(jr.dir, "score.musicxml")
	if err := notation.WriteMusicXML(score, xmlPath); err != nil {
		return err
	}
	if err := r.store.AddArtifact(ctx, jr.job.ID, queue.ArtifactMusicXML, xmlPath); err != nil {
		return err
	}
	jr.musicxmlPath = xmlPath

	midiPath := filepath.Join(jr.dir, "score.mid")
	if err := notation.WriteMIDI(score, midiPath); err != nil {
		return err
	}
	return r.store.AddArtifact(ctx, jr.job.ID, queue.ArtifactMIDI, midiPath)
}

// stagePreview synthesizes an audible rendition of the quantized events.
func (r *Runner) stagePreview(ctx context.Context, jr *jobRun) error {
	sig, err := synth.Render(jr.events, jr.tempoBPM, jr.signal.SampleRate, jr.params.SynthStyle)
	if err != nil {
		return err
	}

	previewPath := filepath.Join(jr.dir, "preview.wav")
	if err := media.EncodeWAV(previewPath, sig); err != nil {
		return err
	}
	return r.store.AddArtifact(ctx, jr.job.ID, queue.ArtifactAudioPreview, previewPath)
}

// stageRender delegates page rendering to the external engraver. Missing
// outputs are logged by the boundary caller; the job stays on track.
func (r *Runner) stageRender(ctx context.Context, jr *jobRun) error {
	if jr.musicxmlPath == "" {
		return errors.New("no notation file to render")
	}

	produced := r.renderer.Render(ctx, jr.musicxmlPath, true, true)
	logger := logging.WithContext(ctx, r.logger)
	for _, path := range produced {
		kind := queue.ArtifactPDF
		if filepath.Ext(path) == ".png" {
			kind = queue.ArtifactPNG
		}
		if err := r.store.AddArtifact(ctx, jr.job.ID, kind, path); err != nil {
			return err
		}
		logger.Info("render output registered", logging.Args(logging.String("path", path))...)
	}
	return nil
}

func soundedPitches(events []quantize.NoteEvent) []int {
	pitches := make([]int, 0, len(events))
	for _, e := range events {
		if !e.IsRest() {
			pitches = append(pitches, e.Pitch)
		}
	}
	return pitches
}
