package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const jobColumns = `id, upload_id, title, audio_path, params_json, status, progress,
    COALESCE(error_message, ''), cancel_requested, created_at, updated_at, COALESCE(finished_at, '')`

// CreateUpload records a validated source file.
func (s *Store) CreateUpload(ctx context.Context, upload Upload) (*Upload, error) {
	now := time.Now()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO uploads (filename, ext, sample_rate, duration_sec, size_bytes, path, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		upload.Filename, upload.Ext, upload.SampleRate, upload.DurationSec, upload.SizeBytes, upload.Path,
		timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	upload.ID = id
	upload.CreatedAt = now.UTC()
	return &upload, nil
}

// GetUpload fetches an upload by ID.
func (s *Store) GetUpload(ctx context.Context, id int64) (*Upload, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, ext, sample_rate, duration_sec, size_bytes, path, created_at
         FROM uploads WHERE id = ?`, id)
	var (
		upload  Upload
		created string
	)
	if err := row.Scan(&upload.ID, &upload.Filename, &upload.Ext, &upload.SampleRate,
		&upload.DurationSec, &upload.SizeBytes, &upload.Path, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get upload: %w", err)
	}
	var err error
	if upload.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, err
	}
	return &upload, nil
}

// NewJob enqueues a transcription job for an upload. The parameters payload is
// captured verbatim and never mutated afterwards.
func (s *Store) NewJob(ctx context.Context, uploadID int64, title, audioPath, paramsJSON string) (*Job, error) {
	now := timestamp(time.Now())
	if paramsJSON == "" {
		paramsJSON = "{}"
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (upload_id, title, audio_path, params_json, status, progress, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		uploadID, title, audioPath, paramsJSON, StatusQueued, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches a job by ID.
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs ordered newest first, optionally filtered by status.
func (s *Store) ListJobs(ctx context.Context, statuses ...Status) ([]*Job, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Health returns aggregated job counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("job counts: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan count: %w", err)
		}
		summary.Total += count
		switch Status(status) {
		case StatusQueued:
			summary.Queued = count
		case StatusRunning:
			summary.Running = count
		case StatusDone:
			summary.Done = count
		case StatusFailed:
			summary.Failed = count
		case StatusCancelled:
			summary.Cancelled = count
		}
	}
	return summary, rows.Err()
}

// DeleteJobCascade removes a job with its artifacts and upload record.
// Housekeeping owns when to call this; the pipeline never deletes jobs.
func (s *Store) DeleteJobCascade(ctx context.Context, id int64) error {
	ctx = ensureContext(ctx)
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE job_id = ?`, id); err != nil {
		return fmt.Errorf("delete artifacts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	var remaining int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs WHERE upload_id = ?`, job.UploadID).Scan(&remaining); err != nil {
		return fmt.Errorf("count upload refs: %w", err)
	}
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, job.UploadID); err != nil {
			return fmt.Errorf("delete upload: %w", err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job             Job
		status          string
		cancelRequested int
		created         string
		updated         string
		finished        string
	)
	if err := row.Scan(&job.ID, &job.UploadID, &job.Title, &job.AudioPath, &job.ParamsJSON,
		&status, &job.Progress, &job.ErrorMessage, &cancelRequested, &created, &updated, &finished); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.CancelRequested = cancelRequested != 0

	var err error
	if job.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, err
	}
	if job.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, err
	}
	if finished != "" {
		finishedAt, err := parseTimestamp(finished)
		if err != nil {
			return nil, err
		}
		job.FinishedAt = &finishedAt
	}
	return &job, nil
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
