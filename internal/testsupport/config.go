package testsupport

import (
	"path/filepath"
	"testing"

	"tunescribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StorageDir = filepath.Join(base, "storage")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Workflow.Workers = 1
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Render.Renderer = "none"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRenderer overrides the renderer selection on the test config.
func WithRenderer(renderer string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Render.Renderer = renderer
	}
}

// WithWorkers overrides the worker pool size on the test config.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.Workers = n
	}
}
