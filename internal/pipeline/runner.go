// Package pipeline sequences the transcription stages for one job and owns
// every externally observable state transition.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"tunescribe/internal/config"
	"tunescribe/internal/logging"
	"tunescribe/internal/media"
	"tunescribe/internal/params"
	"tunescribe/internal/pitch"
	"tunescribe/internal/quantize"
	"tunescribe/internal/queue"
	"tunescribe/internal/services"
	"tunescribe/internal/services/demucs"
	"tunescribe/internal/services/musescore"
	"tunescribe/internal/tempo"
)

// stage is one pipeline step. Degradable stages log a warning on failure
// and the job continues; fatal stages stop the job.
type stage struct {
	name       string
	checkpoint int
	degradable bool
	run        func(ctx context.Context, jr *jobRun) error
}

// jobRun carries the per-job intermediate state between stages.
type jobRun struct {
	job    *queue.Job
	params params.Params
	dir    string

	audioPath string
	signal    media.Signal
	contour   pitch.Contour
	tempoBPM  float64
	events    []quantize.NoteEvent

	musicxmlPath string
}

// Runner executes the full pipeline for claimed jobs. It is safe for
// concurrent use; all per-job state lives in the jobRun.
type Runner struct {
	cfg       *config.Config
	store     *queue.Store
	logger    *slog.Logger
	separator demucs.Separator
	renderer  musescore.Renderer
	tempoEst  tempo.Estimator
}

// Option configures a Runner.
type Option func(*Runner)

// WithSeparator injects a source separation client.
func WithSeparator(s demucs.Separator) Option {
	return func(r *Runner) { r.separator = s }
}

// WithRenderer injects a notation renderer.
func WithRenderer(re musescore.Renderer) Option {
	return func(r *Runner) { r.renderer = re }
}

// WithTempoEstimator injects a tempo estimator (primarily for tests).
func WithTempoEstimator(est tempo.Estimator) Option {
	return func(r *Runner) { r.tempoEst = est }
}

// NewRunner builds a Runner. When no renderer is injected, the configured
// one is resolved; a broken renderer configuration is an error here, not at
// job time.
func NewRunner(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.renderer == nil {
		renderer, err := musescore.NewFromConfig(cfg, r.logger)
		if err != nil {
			return nil, err
		}
		r.renderer = renderer
	}
	return r, nil
}

func (r *Runner) stages() []stage {
	return []stage{
		{name: "separate", checkpoint: 10, degradable: true, run: r.stageSeparate},
		{name: "preprocess", checkpoint: 25, run: r.stagePreprocess},
		{name: "pitch", checkpoint: 45, run: r.stagePitch},
		{name: "quantize", checkpoint: 65, run: r.stageQuantize},
		{name: "notation", checkpoint: 80, run: r.stageNotation},
		{name: "preview", checkpoint: 90, run: r.stagePreview},
		{name: "render", checkpoint: 100, degradable: true, run: r.stageRender},
	}
}

// Run executes every stage for a job already in the running state. It is
// idempotent: everything is recomputed from the stored audio path and
// parameters. Cancellation and daemon shutdown are observed only at stage
// boundaries.
func (r *Runner) Run(ctx context.Context, job *queue.Job) error {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, r.logger)

	p, err := params.Unmarshal(job.ParamsJSON)
	if err != nil {
		return r.fail(ctx, job, "params", err)
	}
	p.ApplyDefaults()

	jr := &jobRun{
		job:       job,
		params:    p,
		dir:       r.cfg.JobDir(job.ID),
		audioPath: job.AudioPath,
	}
	if err := os.MkdirAll(jr.dir, 0o755); err != nil {
		return r.fail(ctx, job, "prepare", err)
	}

	for _, st := range r.stages() {
		stop, err := r.checkBoundary(ctx, job, logger)
		if err != nil || stop {
			return err
		}

		stageCtx := services.WithStage(ctx, st.name)
		stageLogger := logging.WithContext(stageCtx, r.logger)
		stageLogger.Info("stage started")

		if err := st.run(stageCtx, jr); err != nil {
			if st.degradable {
				stageLogger.Warn("stage degraded", logging.Args(logging.Error(err))...)
			} else {
				stageLogger.Error("stage failed", logging.Args(logging.Error(err))...)
				return r.fail(stageCtx, job, st.name, err)
			}
		}

		if err := r.store.SetProgress(ctx, job.ID, st.checkpoint); err != nil {
			return err
		}
		stageLogger.Info("stage finished", logging.Args(logging.Int("progress", st.checkpoint))...)
	}

	if err := r.store.MarkDone(ctx, job.ID); err != nil {
		return err
	}
	logger.Info("job done")
	return nil
}

// checkBoundary polls for cooperative cancellation and daemon shutdown
// between stages. It reports stop=true when the job reached a terminal
// state here.
func (r *Runner) checkBoundary(ctx context.Context, job *queue.Job, logger *slog.Logger) (bool, error) {
	select {
	case <-ctx.Done():
		if err := r.store.MarkFailed(context.WithoutCancel(ctx), job.ID, queue.DaemonStopReason); err != nil {
			return true, err
		}
		logger.Warn("job interrupted by shutdown")
		return true, nil
	default:
	}

	cancelled, err := r.store.CancelRequested(ctx, job.ID)
	if err != nil {
		return true, err
	}
	if cancelled {
		if err := r.store.MarkCancelled(ctx, job.ID); err != nil {
			return true, err
		}
		logger.Info("job cancelled")
		return true, nil
	}
	return false, nil
}

// fail records the failing stage and message on the job. The stored message
// leads with the stage name for operator diagnosis.
func (r *Runner) fail(ctx context.Context, job *queue.Job, stageName string, cause error) error {
	message := services.Details(cause).Message
	if !strings.HasPrefix(message, stageName+": ") {
		message = stageName + ": " + message
	}
	return r.store.MarkFailed(ctx, job.ID, message)
}
