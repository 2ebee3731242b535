package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Separation.Binary = strings.TrimSpace(c.Separation.Binary)
	c.Separation.Model = strings.TrimSpace(c.Separation.Model)

	c.Render.Renderer = strings.ToLower(strings.TrimSpace(c.Render.Renderer))
	if c.Render.Renderer == "" {
		c.Render.Renderer = defaultRenderer
	}
	c.Render.MscoreBinary = strings.TrimSpace(c.Render.MscoreBinary)
	c.Render.VerovioBinary = strings.TrimSpace(c.Render.VerovioBinary)

	c.Pitch.Backend = strings.ToLower(strings.TrimSpace(c.Pitch.Backend))
	if c.Pitch.Backend == "" {
		c.Pitch.Backend = defaultPitchBackend
	}
	c.Pitch.FallbackBackend = strings.ToLower(strings.TrimSpace(c.Pitch.FallbackBackend))

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
