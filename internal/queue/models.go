package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// DaemonStopReason is the error message set when a running job is failed
// because the daemon shut down mid-pipeline. Such jobs are retryable.
const DaemonStopReason = "daemon stopped"

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusDone,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether no further transitions are expected, aside from
// the explicit failed -> queued retry.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDone, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// ArtifactKind names the outputs a job can produce.
type ArtifactKind string

const (
	ArtifactMusicXML     ArtifactKind = "musicxml"
	ArtifactMIDI         ArtifactKind = "midi"
	ArtifactPDF          ArtifactKind = "pdf"
	ArtifactPNG          ArtifactKind = "png"
	ArtifactAudioPreview ArtifactKind = "audio_preview"
)

// Upload records the validated source file a job transcribes.
type Upload struct {
	ID          int64
	Filename    string
	Ext         string
	SampleRate  int
	DurationSec float64
	SizeBytes   int64
	Path        string
	CreatedAt   time.Time
}

// Job represents a transcription job persisted in SQLite.
type Job struct {
	ID              int64
	UploadID        int64
	Title           string
	AudioPath       string
	ParamsJSON      string
	Status          Status
	Progress        int
	ErrorMessage    string
	CancelRequested bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	FinishedAt      *time.Time
}

// Artifact is one produced output file, at most one per kind per job.
type Artifact struct {
	ID        int64
	JobID     int64
	Kind      ArtifactKind
	Path      string
	CreatedAt time.Time
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total     int
	Queued    int
	Running   int
	Done      int
	Failed    int
	Cancelled int
}
