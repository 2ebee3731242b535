package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tunescribe/internal/config"
	"tunescribe/internal/services"
)

var allowedExtensions = map[string]struct{}{
	".wav": {},
}

// UploadInfo is the probed metadata for a validated submission.
type UploadInfo struct {
	Filename    string
	Ext         string
	SampleRate  int
	DurationSec float64
	SizeBytes   int64
	Path        string
}

// ValidateUpload checks a candidate file against the configured limits before
// any job is created. Violations are precondition errors and never enter the
// job state machine.
func ValidateUpload(path string, cfg *config.Config) (UploadInfo, error) {
	const stage = "validate"

	info, err := os.Stat(path)
	if err != nil {
		return UploadInfo{}, services.Wrap(services.ErrNotFound, stage, "stat", "", err)
	}
	if info.IsDir() {
		return UploadInfo{}, services.Wrap(services.ErrValidation, stage, "stat", fmt.Sprintf("%s is a directory", path), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := allowedExtensions[ext]; !ok {
		return UploadInfo{}, services.Wrap(services.ErrValidation, stage, "extension",
			fmt.Sprintf("unsupported file extension %q", ext), nil)
	}

	maxBytes := int64(cfg.Limits.MaxFileMB) * 1024 * 1024
	if info.Size() > maxBytes {
		return UploadInfo{}, services.Wrap(services.ErrValidation, stage, "size",
			fmt.Sprintf("file is %.1f MB, limit is %d MB", float64(info.Size())/(1024*1024), cfg.Limits.MaxFileMB), nil)
	}

	duration, sampleRate, err := ProbeWAV(path)
	if err != nil {
		return UploadInfo{}, services.Wrap(services.ErrValidation, stage, "probe", "unreadable audio file", err)
	}
	if duration > float64(cfg.Limits.MaxDurationSec) {
		return UploadInfo{}, services.Wrap(services.ErrValidation, stage, "duration",
			fmt.Sprintf("duration %.1fs exceeds limit %ds", duration, cfg.Limits.MaxDurationSec), nil)
	}

	return UploadInfo{
		Filename:    filepath.Base(path),
		Ext:         strings.TrimPrefix(ext, "."),
		SampleRate:  sampleRate,
		DurationSec: duration,
		SizeBytes:   info.Size(),
		Path:        path,
	}, nil
}
