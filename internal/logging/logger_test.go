package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"tunescribe/internal/services"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewAcceptsAutoFormat(t *testing.T) {
	if _, err := New(Options{Format: "auto"}); err != nil {
		t.Fatalf("New(auto): %v", err)
	}
}

func TestResolveFormatNonTerminal(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	if got := resolveFormat(file); got != "json" {
		t.Fatalf("resolveFormat(file) = %q, want json", got)
	}
}

type captureWriter struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.WriteString(string(p))
}

func (w *captureWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestConsoleHandlerRendersAttrs(t *testing.T) {
	out := &captureWriter{}
	logger := slog.New(newConsoleHandler(out, slog.LevelInfo))
	logger.Info("stage completed", String(FieldStage, "quantize"), Int64(FieldJobID, 7))

	line := out.String()
	if !strings.Contains(line, "stage completed") {
		t.Fatalf("missing message in %q", line)
	}
	if !strings.Contains(line, "stage=quantize") || !strings.Contains(line, "job_id=7") {
		t.Fatalf("missing attrs in %q", line)
	}
}

func TestWithContextAddsJobFields(t *testing.T) {
	out := &captureWriter{}
	logger := slog.New(newConsoleHandler(out, slog.LevelInfo))

	ctx := services.WithJobID(context.Background(), 42)
	ctx = services.WithStage(ctx, "pitch")
	WithContext(ctx, logger).Info("hello")

	line := out.String()
	if !strings.Contains(line, "job_id=42") || !strings.Contains(line, "stage=pitch") {
		t.Fatalf("context fields missing in %q", line)
	}
}
