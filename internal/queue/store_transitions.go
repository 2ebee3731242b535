package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NextQueued claims the oldest queued job for a worker, transitioning it to
// running. Returns nil when the queue is empty. The claim is a guarded UPDATE
// so two workers can never win the same job.
func (s *Store) NextQueued(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	for {
		var id int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM jobs WHERE status = ? ORDER BY id LIMIT 1`, StatusQueued,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("select next queued: %w", err)
		}

		claimed, err := s.transition(ctx, id, StatusQueued, StatusRunning, transitionOpts{})
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Lost the race; try the next candidate.
			continue
		}
		return s.GetJob(ctx, id)
	}
}

// Claim transitions a specific queued job to running. Used by the one-shot
// foreground path, where the caller knows exactly which job it just created.
func (s *Store) Claim(ctx context.Context, id int64) error {
	return s.mustTransition(ctx, id, StatusQueued, StatusRunning, transitionOpts{})
}

// SetProgress raises the progress percentage. Updates are monotonic: a lower
// value than the stored one is a no-op, so checkpoints never move backwards.
func (s *Store) SetProgress(ctx context.Context, id int64, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET progress = MAX(progress, ?), updated_at = ? WHERE id = ?`,
		progress, timestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set progress rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDone transitions a running job to done with full progress.
func (s *Store) MarkDone(ctx context.Context, id int64) error {
	return s.mustTransition(ctx, id, StatusRunning, StatusDone, transitionOpts{
		setFinished: true,
		setProgress: 100,
	})
}

// MarkFailed transitions a running job to failed, recording the stage error
// verbatim for operator diagnosis.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.mustTransition(ctx, id, StatusRunning, StatusFailed, transitionOpts{
		setFinished: true,
		errorMsg:    &message,
	})
}

// MarkCancelled transitions a running job to cancelled. Cancellation is not an
// error, so no message is recorded and any prior one is cleared.
func (s *Store) MarkCancelled(ctx context.Context, id int64) error {
	empty := ""
	return s.mustTransition(ctx, id, StatusRunning, StatusCancelled, transitionOpts{
		setFinished: true,
		errorMsg:    &empty,
	})
}

// Retry moves a failed job back to queued, resetting progress and clearing the
// error and any stale cancel request. Only failed jobs may be retried.
func (s *Store) Retry(ctx context.Context, id int64) error {
	empty := ""
	return s.mustTransition(ctx, id, StatusFailed, StatusQueued, transitionOpts{
		setProgress: 0,
		resetFields: true,
		errorMsg:    &empty,
		clearFinish: true,
		clearCancel: true,
	})
}

// RequestCancel asks a job to stop. A queued job is cancelled immediately; a
// running job has its flag set and the orchestrator observes it at the next
// stage boundary. Returns false when the job is already terminal.
func (s *Store) RequestCancel(ctx context.Context, id int64) (bool, error) {
	// Fast path: still queued, never dispatched.
	empty := ""
	ok, err := s.transition(ctx, id, StatusQueued, StatusCancelled, transitionOpts{
		setFinished: true,
		errorMsg:    &empty,
	})
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET cancel_requested = 1, updated_at = ? WHERE id = ? AND status = ?`,
		timestamp(time.Now()), id, StatusRunning,
	)
	if err != nil {
		return false, fmt.Errorf("request cancel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("request cancel rows: %w", err)
	}
	return affected > 0, nil
}

// CancelRequested reports whether a cancel has been requested for the job.
func (s *Store) CancelRequested(ctx context.Context, id int64) (bool, error) {
	ctx = ensureContext(ctx)
	var flag int
	err := s.db.QueryRowContext(ctx, `SELECT cancel_requested FROM jobs WHERE id = ?`, id).Scan(&flag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("read cancel flag: %w", err)
	}
	return flag != 0, nil
}

// FailInterrupted marks running jobs as failed with the daemon stop reason.
// Called during unclean shutdown so interrupted jobs stay retryable instead of
// appearing stuck in running forever.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, finished_at = ?, updated_at = ?
         WHERE status = ?`,
		StatusFailed, DaemonStopReason, now, now, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

type transitionOpts struct {
	setFinished bool
	clearFinish bool
	clearCancel bool
	resetFields bool
	setProgress int
	errorMsg    *string
}

// mustTransition performs a guarded transition, mapping a lost guard to either
// ErrNotFound or ErrInvalidTransition depending on whether the job exists.
func (s *Store) mustTransition(ctx context.Context, id int64, from, to Status, opts transitionOpts) error {
	ok, err := s.transition(ctx, id, from, to, opts)
	if err != nil {
		return err
	}
	if !ok {
		if _, getErr := s.GetJob(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: %s -> %s for job %d", ErrInvalidTransition, from, to, id)
	}
	return nil
}

func (s *Store) transition(ctx context.Context, id int64, from, to Status, opts transitionOpts) (bool, error) {
	now := timestamp(time.Now())
	query := `UPDATE jobs SET status = ?, updated_at = ?`
	args := []any{string(to), now}

	if opts.errorMsg != nil {
		query += `, error_message = ?`
		args = append(args, *opts.errorMsg)
	}
	if opts.setFinished {
		query += `, finished_at = ?`
		args = append(args, now)
	}
	if opts.clearFinish {
		query += `, finished_at = NULL`
	}
	if opts.clearCancel {
		query += `, cancel_requested = 0`
	}
	if opts.resetFields || opts.setProgress > 0 {
		query += `, progress = ?`
		args = append(args, opts.setProgress)
	}
	query += ` WHERE id = ? AND status = ?`
	args = append(args, id, string(from))

	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("transition %s -> %s: %w", from, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition rows: %w", err)
	}
	return affected > 0, nil
}
