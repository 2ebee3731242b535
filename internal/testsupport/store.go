package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"tunescribe/internal/config"
	"tunescribe/internal/params"
	"tunescribe/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustEnqueueJob records an upload for the audio file and enqueues a job
// carrying the given parameters.
func MustEnqueueJob(t testing.TB, store *queue.Store, audioPath string, p params.Params) *queue.Job {
	t.Helper()

	payload, err := p.Marshal()
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	upload, err := store.CreateUpload(context.Background(), queue.Upload{
		Filename: filepath.Base(audioPath),
		Ext:      "wav",
		Path:     audioPath,
	})
	if err != nil {
		t.Fatalf("create upload: %v", err)
	}
	job, err := store.NewJob(context.Background(), upload.ID, "Test Melody", audioPath, payload)
	if err != nil {
		t.Fatalf("enqueue job: %v", err)
	}
	return job
}
