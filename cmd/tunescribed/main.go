package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"tunescribe/internal/config"
	"tunescribe/internal/daemon"
	"tunescribe/internal/logging"
	"tunescribe/internal/pipeline"
	"tunescribe/internal/queue"
	"tunescribe/internal/services/demucs"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Args(logging.Error(err))...)
		return
	}

	runner, err := pipeline.NewRunner(cfg, store, logger, runnerOptions(cfg)...)
	if err != nil {
		logger.Error("create pipeline runner", logging.Args(logging.Error(err))...)
		_ = store.Close()
		return
	}
	pool := pipeline.NewPool(cfg, store, runner, logger)

	d, err := daemon.New(cfg, store, logger, pool)
	if err != nil {
		logger.Error("create daemon", logging.Args(logging.Error(err))...)
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Args(logging.Error(err))...)
		return
	}

	<-ctx.Done()
	logger.Info("tunescribed shutting down")
}

// runnerOptions wires the optional external tools. A missing demucs binary is
// tolerated here; the separation stage degrades per job when it cannot run.
func runnerOptions(cfg *config.Config) []pipeline.Option {
	var opts []pipeline.Option
	if separator, err := demucs.New(cfg.Separation.Binary, cfg.Separation.Model, cfg.Separation.TimeoutSeconds); err == nil {
		opts = append(opts, pipeline.WithSeparator(separator))
	}
	return opts
}
