// Package musescore renders MusicXML to page formats with an external
// engraver. Rendering is optional: any failure yields fewer outputs, never a
// failed job.
package musescore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tunescribe/internal/config"
	"tunescribe/internal/logging"
	"tunescribe/internal/services"
)

// Renderer is the behaviour required by the rendering stage. The returned
// slice holds only the files that were actually produced.
type Renderer interface {
	Render(ctx context.Context, xmlPath string, wantPDF, wantPNG bool) []string
}

// NewFromConfig resolves the configured renderer. "none" disables rendering.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (Renderer, error) {
	switch cfg.Render.Renderer {
	case "none", "":
		return nopRenderer{}, nil
	case "mscore":
		return New(cfg.Render.MscoreBinary, cfg.Render.TimeoutSeconds, WithLogger(logger))
	case "verovio":
		return New(cfg.Render.VerovioBinary, cfg.Render.TimeoutSeconds, WithLogger(logger))
	default:
		return nil, services.Wrap(services.ErrConfiguration, "render", "select",
			fmt.Sprintf("unknown renderer %q", cfg.Render.Renderer), nil)
	}
}

type nopRenderer struct{}

func (nopRenderer) Render(context.Context, string, bool, bool) []string { return nil }

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

// WithLogger attaches a logger for render failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "musescore")
		}
	}
}

// Client drives a MuseScore-compatible engraver binary: one subprocess run
// per requested output, `<binary> -o <out> <score>`.
type Client struct {
	binary  string
	timeout time.Duration
	exec    services.Executor
	logger  *slog.Logger
}

// New constructs a renderer client.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("renderer binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    services.CommandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Render produces the requested page formats next to the score file. Each
// failed output is skipped; the returned paths all exist on disk.
func (c *Client) Render(ctx context.Context, xmlPath string, wantPDF, wantPNG bool) []string {
	base := strings.TrimSuffix(xmlPath, filepath.Ext(xmlPath))

	var produced []string
	if wantPDF {
		if path, ok := c.renderOne(ctx, xmlPath, base+".pdf"); ok {
			produced = append(produced, path)
		}
	}
	if wantPNG {
		if path, ok := c.renderOne(ctx, xmlPath, base+".png"); ok {
			produced = append(produced, path)
		}
	}
	return produced
}

func (c *Client) renderOne(ctx context.Context, xmlPath, outPath string) (string, bool) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.exec.Run(runCtx, c.binary, []string{"-o", outPath, xmlPath}, nil); err != nil {
		c.logger.Warn("render failed", logging.Args(
			logging.String("outcome", services.Classify(err).String()),
			logging.String("output", outPath),
			logging.Error(err))...)
		return "", false
	}
	if info, err := os.Stat(outPath); err != nil || info.IsDir() {
		c.logger.Warn("render output missing", logging.Args(
			logging.String("output", outPath))...)
		return "", false
	}
	return outPath, true
}
