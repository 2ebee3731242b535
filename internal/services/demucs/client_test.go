package demucs

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"tunescribe/internal/services"
)

type stubExecutor struct {
	err   error
	onRun func(ctx context.Context, binary string, args []string)
}

func (s stubExecutor) Run(ctx context.Context, binary string, args []string, _ func(string)) error {
	if s.onRun != nil {
		s.onRun(ctx, binary, args)
	}
	return s.err
}

func TestSeparateFindsStem(t *testing.T) {
	outDir := t.TempDir()
	input := filepath.Join(t.TempDir(), "song.wav")

	exec := stubExecutor{onRun: func(_ context.Context, _ string, _ []string) {
		stemDir := filepath.Join(outDir, "htdemucs", "song")
		if err := os.MkdirAll(stemDir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(stemDir, "vocals.wav"), []byte("stub"), 0o644); err != nil {
			t.Fatal(err)
		}
	}}

	client, err := New("demucs", "htdemucs", 60, WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}
	stem, err := client.Separate(context.Background(), input, outDir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(stem) != "vocals.wav" {
		t.Fatalf("unexpected stem path %s", stem)
	}
}

func TestSeparateMissingBinary(t *testing.T) {
	client, err := New("demucs", "", 60, WithExecutor(stubExecutor{err: exec.ErrNotFound}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Separate(context.Background(), "in.wav", t.TempDir())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("want external tool error, got %v", err)
	}
	if got := services.Classify(err); got != services.OutcomeMissingBinary {
		t.Fatalf("classified %v, want missing binary", got)
	}
}

func TestSeparateNoStemProduced(t *testing.T) {
	client, err := New("demucs", "", 60, WithExecutor(stubExecutor{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Separate(context.Background(), "in.wav", t.TempDir()); err == nil {
		t.Fatal("expected error when no stem appears")
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  ", "", 60); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestClassifyOutcomes(t *testing.T) {
	cases := []struct {
		err  error
		want services.Outcome
	}{
		{nil, services.OutcomeOK},
		{exec.ErrNotFound, services.OutcomeMissingBinary},
		{context.DeadlineExceeded, services.OutcomeTimedOut},
		{&exec.ExitError{}, services.OutcomeExitError},
		{errors.New("anything else"), services.OutcomeFailed},
	}
	for _, tc := range cases {
		if got := services.Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
