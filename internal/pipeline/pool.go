package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tunescribe/internal/config"
	"tunescribe/internal/logging"
	"tunescribe/internal/queue"
)

// Pool drains the queue with a fixed set of workers. Each worker loops
// claim-next then run; an idle worker sleeps for the configured poll
// interval. The pool stops claiming when the context is cancelled and
// returns once in-flight jobs observe the shutdown at a stage boundary.
type Pool struct {
	cfg    *config.Config
	store  *queue.Store
	runner *Runner
	logger *slog.Logger
}

// NewPool builds a worker pool around a Runner.
func NewPool(cfg *config.Config, store *queue.Store, runner *Runner, logger *slog.Logger) *Pool {
	return &Pool{
		cfg:    cfg,
		store:  store,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "pool"),
	}
}

// Run blocks until the context is cancelled and every worker has returned.
func (p *Pool) Run(ctx context.Context) {
	workers := p.cfg.Workflow.Workers
	if workers < 1 {
		workers = 1
	}
	poll := time.Duration(p.cfg.Workflow.QueuePollInterval) * time.Second
	if poll <= 0 {
		poll = time.Second
	}
	retry := time.Duration(p.cfg.Workflow.ErrorRetryInterval) * time.Second
	if retry <= 0 {
		retry = poll
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.worker(ctx, id, poll, retry)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int, poll, retry time.Duration) {
	logger := p.logger.With(logging.Int("worker", id))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.store.NextQueued(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("claim next job", logging.Args(logging.Error(err))...)
			if !sleep(ctx, retry) {
				return
			}
			continue
		}
		if job == nil {
			if !sleep(ctx, poll) {
				return
			}
			continue
		}

		logger.Info("job claimed", logging.Args(logging.Int64("job_id", job.ID))...)
		if err := p.runner.Run(ctx, job); err != nil {
			logger.Error("job run", logging.Args(logging.Int64("job_id", job.ID), logging.Error(err))...)
			if !sleep(ctx, retry) {
				return
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
