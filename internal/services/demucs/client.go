// Package demucs wraps the demucs source separation CLI. Separation is an
// optional, degradable stage: every failure maps to "use the original audio".
package demucs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tunescribe/internal/services"
)

// Separator is the behaviour required by the separation stage.
type Separator interface {
	Separate(ctx context.Context, inputPath, outDir string) (string, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client invokes demucs to isolate the vocal stem.
type Client struct {
	binary  string
	model   string
	timeout time.Duration
	exec    services.Executor
}

// New constructs a demucs client.
func New(binary, model string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("demucs binary required")
	}
	client := &Client{
		binary:  binary,
		model:   model,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Separate runs demucs on inputPath and returns the vocal stem. The error,
// if any, carries the classified outcome in its message.
func (c *Client) Separate(ctx context.Context, inputPath, outDir string) (string, error) {
	const stage = "separate"

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stage, "prepare", "create output directory", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"--two-stems", "vocals", "-o", outDir}
	if c.model != "" {
		args = append(args, "-n", c.model)
	}
	args = append(args, inputPath)

	if err := c.exec.Run(runCtx, c.binary, args, nil); err != nil {
		outcome := services.Classify(err)
		return "", services.Wrap(services.ErrExternalTool, stage, "demucs",
			fmt.Sprintf("separation %s", outcome), err)
	}

	stem, err := findVocalStem(outDir, inputPath, c.model)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stage, "demucs", "no vocal stem produced", err)
	}
	return stem, nil
}

// findVocalStem probes the demucs output layouts: <out>/<model>/<track>/vocals.wav
// for current releases, with flat fallbacks for older ones.
func findVocalStem(outDir, inputPath, model string) (string, error) {
	track := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	candidates := []string{
		filepath.Join(outDir, model, track, "vocals.wav"),
		filepath.Join(outDir, "htdemucs", track, "vocals.wav"),
		filepath.Join(outDir, track, "vocals.wav"),
		filepath.Join(outDir, "vocals.wav"),
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	// Last resort: any vocals.wav below the output directory.
	var found string
	_ = filepath.WalkDir(outDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if d.Name() == "vocals.wav" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if found != "" {
		return found, nil
	}
	return "", fmt.Errorf("vocals.wav not found under %s", outDir)
}
