package runlog

import "time"

// Status describes a job's lifecycle state in the ledger.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one ledger row.
type Job struct {
	ID        int64
	RunID     string
	Sequence  string
	QP        string
	Handle    string
	Status    Status
	ExitCode  int
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats aggregates a run's job counts by status.
type Stats struct {
	Total     int
	Submitted int
	Completed int
	Failed    int
}

// AllFailed reports whether every recorded job failed. False for empty runs.
func (s Stats) AllFailed() bool {
	return s.Total > 0 && s.Failed == s.Total
}
