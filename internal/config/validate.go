package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validatePitch(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StorageDir == "" {
		return errors.New("paths.storage_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateLimits() error {
	for name, value := range map[string]int{
		"limits.max_file_mb":      c.Limits.MaxFileMB,
		"limits.max_duration_sec": c.Limits.MaxDurationSec,
		"limits.sample_rate":      c.Limits.SampleRate,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateRender() error {
	switch c.Render.Renderer {
	case "mscore", "verovio", "none":
	default:
		return fmt.Errorf("render.renderer must be one of mscore, verovio, none (got %q)", c.Render.Renderer)
	}
	if c.Render.TimeoutSeconds <= 0 {
		return errors.New("render.timeout_seconds must be positive")
	}
	if c.Separation.TimeoutSeconds <= 0 {
		return errors.New("separation.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePitch() error {
	valid := map[string]bool{"acf": true, "nsdf": true}
	if !valid[c.Pitch.Backend] {
		return fmt.Errorf("pitch.backend must be acf or nsdf (got %q)", c.Pitch.Backend)
	}
	if c.Pitch.FallbackBackend != "" && !valid[c.Pitch.FallbackBackend] {
		return fmt.Errorf("pitch.fallback_backend must be acf or nsdf (got %q)", c.Pitch.FallbackBackend)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers <= 0 {
		return errors.New("workflow.workers must be positive")
	}
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	return nil
}
