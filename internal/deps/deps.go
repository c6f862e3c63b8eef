// Package deps reports availability of the external binaries a sweep run
// shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency fcmbench relies on.
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

// ForBackend returns the requirements for one dispatch backend selection.
func ForBackend(backend, evalBinary, sbatchBinary, script string) []Requirement {
	var reqs []Requirement
	if script != "" {
		reqs = append(reqs, Requirement{
			Name:        "Job script",
			Command:     script,
			Description: "wrapper script invoked per combination",
		})
	} else {
		reqs = append(reqs, Requirement{
			Name:        "Evaluation tool",
			Command:     evalBinary,
			Description: "external evaluation command",
		})
	}
	if backend == "slurm" {
		reqs = append(reqs, Requirement{
			Name:        "sbatch",
			Command:     sbatchBinary,
			Description: "cluster batch submission",
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
