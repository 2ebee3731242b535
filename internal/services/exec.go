package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Outcome classifies how an external tool invocation ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeMissingBinary
	OutcomeTimedOut
	OutcomeExitError
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeMissingBinary:
		return "missing binary"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeExitError:
		return "exit status"
	default:
		return "failed"
	}
}

// Classify maps an executor error onto an Outcome. All non-OK outcomes feed
// the same degrade path; the distinction is for logging and diagnosis.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return OutcomeMissingBinary
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimedOut
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return OutcomeExitError
		}
		return OutcomeFailed
	}
}

// CommandExecutor runs real subprocesses, streaming combined output line by
// line to the callback.
type CommandExecutor struct{}

func (CommandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if onStdout != nil {
				onStdout(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("wait command: %w", context.Cause(ctx))
		}
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
