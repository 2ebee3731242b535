package main

import (
	"testing"

	"tunescribe/internal/config"
)

func TestRunnerOptionsWiresSeparator(t *testing.T) {
	cfg := config.Default()

	opts := runnerOptions(&cfg)
	if len(opts) != 1 {
		t.Fatalf("expected separator option with configured binary, got %d options", len(opts))
	}

	cfg.Separation.Binary = ""
	opts = runnerOptions(&cfg)
	if len(opts) != 0 {
		t.Fatalf("expected no options without a separation binary, got %d", len(opts))
	}
}
