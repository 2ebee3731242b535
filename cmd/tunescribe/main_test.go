package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tunescribe/internal/config"
	"tunescribe/internal/params"
	"tunescribe/internal/queue"
	"tunescribe/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	cfg        *config.Config
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\nstorage_dir = %q\nlog_dir = %q\n\n[render]\nrenderer = \"none\"\n",
		filepath.Join(base, "storage"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	return &cliTestEnv{baseDir: base, configPath: configPath, cfg: cfg}
}

func (env *cliTestEnv) openStore(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.Open(env.cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLISubmitAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	audio := testsupport.WriteToneWAV(t, 440, 1.0, 22050)

	out, _, err := runCLI(t, env.configPath, "submit", audio, "--title", "Test Tone", "--tempo", "120")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(out, "Queued job 1") {
		t.Fatalf("submit output %q", out)
	}

	store := env.openStore(t)
	job, err := store.GetJob(context.Background(), 1)
	if err != nil {
		t.Fatalf("load submitted job: %v", err)
	}
	if job.Title != "Test Tone" {
		t.Fatalf("title %q", job.Title)
	}
	p, err := params.Unmarshal(job.ParamsJSON)
	if err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if p.TempoBPM != 120 {
		t.Fatalf("tempo %v, want 120", p.TempoBPM)
	}

	out, _, err = runCLI(t, env.configPath, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Test Tone") || !strings.Contains(out, "queued") {
		t.Fatalf("list output %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "list", "--counts")
	if err != nil {
		t.Fatalf("list --counts: %v", err)
	}
	if !strings.Contains(out, "Queued: 1") {
		t.Fatalf("counts output %q", out)
	}
}

func TestCLISubmitRejectsInvalidFile(t *testing.T) {
	env := setupCLITestEnv(t)

	bad := filepath.Join(env.baseDir, "notes.txt")
	if err := os.WriteFile(bad, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := runCLI(t, env.configPath, "submit", bad)
	if err == nil {
		t.Fatal("submit accepted a non-wav file")
	}

	store := env.openStore(t)
	jobs, err := store.ListJobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Fatalf("rejected submit still created %d jobs", len(jobs))
	}
}

func TestCLISubmitRejectsOutOfRangeTempo(t *testing.T) {
	env := setupCLITestEnv(t)
	audio := testsupport.WriteToneWAV(t, 440, 1.0, 22050)

	_, _, err := runCLI(t, env.configPath, "submit", audio, "--tempo", "400")
	if err == nil {
		t.Fatal("submit accepted tempo 400")
	}
	if !strings.Contains(err.Error(), "tempo") {
		t.Fatalf("error %q does not mention tempo", err)
	}

	store := env.openStore(t)
	jobs, err := store.ListJobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Fatalf("rejected submit still created %d jobs", len(jobs))
	}
}

func TestCLIStatusAndCancel(t *testing.T) {
	env := setupCLITestEnv(t)
	audio := testsupport.WriteToneWAV(t, 440, 1.0, 22050)

	if _, _, err := runCLI(t, env.configPath, "submit", audio, "--title", "Cancel Me"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "status", "1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Cancel Me") || !strings.Contains(out, "queued") {
		t.Fatalf("status output %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "cancel", "1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !strings.Contains(out, "cancelled") {
		t.Fatalf("cancel output %q", out)
	}

	store := env.openStore(t)
	job, err := store.GetJob(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != queue.StatusCancelled {
		t.Fatalf("status %s after cancel", job.Status)
	}

	// Cancelling a terminal job is a no-op, not an error.
	out, _, err = runCLI(t, env.configPath, "cancel", "1")
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if !strings.Contains(out, "nothing to cancel") {
		t.Fatalf("second cancel output %q", out)
	}
}

func TestCLIRetryRequiresFailedJob(t *testing.T) {
	env := setupCLITestEnv(t)
	audio := testsupport.WriteToneWAV(t, 440, 1.0, 22050)

	if _, _, err := runCLI(t, env.configPath, "submit", audio); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, _, err := runCLI(t, env.configPath, "retry", "1"); err == nil {
		t.Fatal("retry of a queued job should fail")
	}

	if _, _, err := runCLI(t, env.configPath, "retry", "999"); err == nil {
		t.Fatal("retry of a missing job should fail")
	}
}

func TestCLIRunOneShot(t *testing.T) {
	env := setupCLITestEnv(t)
	audio := testsupport.WriteToneWAV(t, 440, 1.0, 22050)

	out, _, err := runCLI(t, env.configPath, "run", audio, "--tempo", "120", "--title", "One Shot")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "done") {
		t.Fatalf("run output %q", out)
	}
	if !strings.Contains(out, "musicxml") || !strings.Contains(out, "audio_preview") {
		t.Fatalf("run output missing artifacts: %q", out)
	}

	store := env.openStore(t)
	job, err := store.GetJob(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != queue.StatusDone || job.Progress != 100 {
		t.Fatalf("job %s progress %d after run", job.Status, job.Progress)
	}
}

func TestCLIDeps(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "deps")
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	if !strings.Contains(out, "demucs") {
		t.Fatalf("deps output %q", out)
	}
}

func TestCLIConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(env.baseDir, "fresh.toml")
	out, _, err := runCLI(t, env.configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("init output %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, env.configPath, "config", "init", "--path", target); err == nil {
		t.Fatal("config init overwrote without --overwrite")
	}

	out, _, err = runCLI(t, env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("validate output %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "storage_dir") {
		t.Fatalf("show output %q", out)
	}
}
