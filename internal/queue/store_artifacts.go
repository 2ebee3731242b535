package queue

import (
	"context"
	"fmt"
	"time"
)

// AddArtifact registers a produced output for a job. At most one artifact per
// kind per job: re-running a job overwrites the previous path for that kind.
func (s *Store) AddArtifact(ctx context.Context, jobID int64, kind ArtifactKind, path string) error {
	now := timestamp(time.Now())
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO artifacts (job_id, kind, path, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (job_id, kind) DO UPDATE SET path = excluded.path, created_at = excluded.created_at`,
		jobID, string(kind), path, now,
	)
	if err != nil {
		return fmt.Errorf("add artifact: %w", err)
	}
	return nil
}

// ArtifactsByJob returns a job's artifacts ordered by kind.
func (s *Store) ArtifactsByJob(ctx context.Context, jobID int64) ([]Artifact, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, kind, path, created_at FROM artifacts WHERE job_id = ? ORDER BY kind`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var (
			artifact Artifact
			kind     string
			created  string
		)
		if err := rows.Scan(&artifact.ID, &artifact.JobID, &kind, &artifact.Path, &created); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifact.Kind = ArtifactKind(kind)
		if artifact.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}
