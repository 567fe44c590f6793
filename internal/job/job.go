package job

import "time"

// Status is the lifecycle state of a job
type Status string

// Job status constants
const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusFinalizing Status = "finalizing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Messages shown to the client while a job moves through its lifecycle
const (
	MessageWaiting     = "waiting"
	MessageStarting    = "starting"
	MessageDownloading = "downloading"
	MessageMerging     = "merging"
	MessageDone        = "done"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions can happen
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// Job is a point-in-time copy of a job record. Values returned by the
// registry are never shared with the background runner.
type Job struct {
	ID         string
	Status     Status
	Progress   int
	Message    string
	ResultPath string
	ResultName string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt time.Time
}

// Task is one unit of work handed to the worker pool
type Task struct {
	JobID   string
	URL     string
	Quality string
}
