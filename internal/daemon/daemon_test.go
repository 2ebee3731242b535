package daemon_test

import (
	"context"
	"testing"
	"time"

	"tunescribe/internal/daemon"
	"tunescribe/internal/logging"
	"tunescribe/internal/params"
	"tunescribe/internal/pipeline"
	"tunescribe/internal/queue"
	"tunescribe/internal/testsupport"
)

func newTestDaemon(t *testing.T) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	runner, err := pipeline.NewRunner(cfg, store, logger)
	if err != nil {
		t.Fatalf("pipeline.NewRunner: %v", err)
	}
	pool := pipeline.NewPool(cfg, store, runner, logger)
	d, err := daemon.New(cfg, store, logger, pool)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := newTestDaemon(t)
	t.Cleanup(func() { d.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected daemon to report running")
	}

	// Second start should fail.
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Running() {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonProcessesQueuedJob(t *testing.T) {
	d, store := newTestDaemon(t)
	t.Cleanup(func() { d.Stop() })

	audio := testsupport.WriteToneWAV(t, 440, 0.5, 22050)
	p := params.Defaults()
	p.TempoBPM = 120
	job := testsupport.MustEnqueueJob(t, store, audio, p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.After(60 * time.Second)
	for {
		got, err := store.GetJob(context.Background(), job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status.IsTerminal() {
			if got.Status != queue.StatusDone {
				t.Fatalf("job ended %s: %s", got.Status, got.ErrorMessage)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("job still %s at deadline", got.Status)
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func TestDaemonRecoversInterruptedJobs(t *testing.T) {
	d, store := newTestDaemon(t)
	t.Cleanup(func() { d.Stop() })

	audio := testsupport.WriteSilenceWAV(t, 0.5, 22050)
	job := testsupport.MustEnqueueJob(t, store, audio, params.Defaults())

	// Simulate a job stranded in running by an unclean shutdown.
	claimed, err := store.NextQueued(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if claimed == nil || claimed.ID != job.ID {
		t.Fatal("failed to claim the test job")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	d.Stop()

	got, err := store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != queue.StatusFailed || got.ErrorMessage != queue.DaemonStopReason {
		t.Fatalf("recovered job is %s with error %q", got.Status, got.ErrorMessage)
	}

	// The recovered job is retryable.
	if err := store.Retry(context.Background(), job.ID); err != nil {
		t.Fatalf("retry recovered job: %v", err)
	}
}
