package musescore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"tunescribe/internal/testsupport"
)

type stubExecutor struct {
	err     error
	written map[string]bool
}

func (s stubExecutor) Run(_ context.Context, _ string, args []string, _ func(string)) error {
	if s.err != nil {
		return s.err
	}
	// args are "-o <out> <score>".
	out := args[1]
	if err := os.WriteFile(out, []byte("rendered"), 0o644); err != nil {
		return err
	}
	if s.written != nil {
		s.written[filepath.Ext(out)] = true
	}
	return nil
}

func TestRenderProducesRequestedOutputs(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "score.musicxml")
	if err := os.WriteFile(xmlPath, []byte("<score/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	written := map[string]bool{}
	client, err := New("mscore", 60, WithExecutor(stubExecutor{written: written}))
	if err != nil {
		t.Fatal(err)
	}

	produced := client.Render(context.Background(), xmlPath, true, true)
	if len(produced) != 2 {
		t.Fatalf("got %d outputs, want 2: %v", len(produced), produced)
	}
	if !written[".pdf"] || !written[".png"] {
		t.Fatalf("outputs missing: %v", written)
	}
	for _, p := range produced {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("reported output %s does not exist", p)
		}
	}
}

func TestRenderFailureYieldsEmpty(t *testing.T) {
	client, err := New("mscore", 60, WithExecutor(stubExecutor{err: errors.New("boom")}))
	if err != nil {
		t.Fatal(err)
	}
	if produced := client.Render(context.Background(), "score.musicxml", true, true); len(produced) != 0 {
		t.Fatalf("got %v, want no outputs", produced)
	}
}

func TestRenderFailureLogsClassifiedOutcome(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		outcome string
	}{
		{"missing binary", fmt.Errorf("lookup: %w", exec.ErrNotFound), "missing binary"},
		{"timed out", fmt.Errorf("run: %w", context.DeadlineExceeded), "timed out"},
		{"exit error", &exec.ExitError{}, "exit status"},
		{"other", errors.New("boom"), "failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			client, err := New("mscore", 60,
				WithExecutor(stubExecutor{err: tc.err}), WithLogger(logger))
			if err != nil {
				t.Fatal(err)
			}

			if produced := client.Render(context.Background(), "score.musicxml", true, false); len(produced) != 0 {
				t.Fatalf("got %v, want no outputs", produced)
			}
			logged := buf.String()
			if !strings.Contains(logged, "render failed") {
				t.Fatalf("no failure logged: %q", logged)
			}
			if !strings.Contains(logged, fmt.Sprintf("outcome=%q", tc.outcome)) &&
				!strings.Contains(logged, "outcome="+tc.outcome) {
				t.Fatalf("outcome %q not logged: %q", tc.outcome, logged)
			}
		})
	}
}

func TestRenderMissingOutputLogged(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "score.musicxml")
	if err := os.WriteFile(xmlPath, []byte("<score/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	// The executor succeeds but never writes the output file.
	client, err := New("mscore", 60,
		WithExecutor(noopExecutor{}), WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}

	if produced := client.Render(context.Background(), xmlPath, true, false); len(produced) != 0 {
		t.Fatalf("got %v, want no outputs", produced)
	}
	if !strings.Contains(buf.String(), "render output missing") {
		t.Fatalf("missing output not logged: %q", buf.String())
	}
}

type noopExecutor struct{}

func (noopExecutor) Run(context.Context, string, []string, func(string)) error { return nil }

func TestRenderPDFOnly(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "score.musicxml")
	if err := os.WriteFile(xmlPath, []byte("<score/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	client, err := New("mscore", 60, WithExecutor(stubExecutor{}))
	if err != nil {
		t.Fatal(err)
	}
	produced := client.Render(context.Background(), xmlPath, true, false)
	if len(produced) != 1 || filepath.Ext(produced[0]) != ".pdf" {
		t.Fatalf("got %v, want a single pdf", produced)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	r, err := NewFromConfig(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Render(context.Background(), "score.musicxml", true, true); len(got) != 0 {
		t.Fatalf("disabled renderer produced %v", got)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithRenderer("wat"))
	if _, err := NewFromConfig(cfg, nil); err == nil {
		t.Fatal("expected error for unknown renderer")
	}
}
