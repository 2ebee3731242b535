package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"tunescribe/internal/config"
)

// Requirement defines an external tool the pipeline can use.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the external tools for the current configuration. All
// of them are optional: transcription itself runs in process.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "demucs",
			Command:     cfg.Separation.Binary,
			Description: "vocal source separation",
			Optional:    true,
		},
	}
	switch cfg.Render.Renderer {
	case "mscore":
		reqs = append(reqs, Requirement{
			Name:        "musescore",
			Command:     cfg.Render.MscoreBinary,
			Description: "PDF/PNG score rendering",
			Optional:    true,
		})
	case "verovio":
		reqs = append(reqs, Requirement{
			Name:        "verovio",
			Command:     cfg.Render.VerovioBinary,
			Description: "PDF/PNG score rendering",
			Optional:    true,
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
