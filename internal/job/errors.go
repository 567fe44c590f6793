package job

import "errors"

var (
	// ErrNotFound is returned when a job id is unknown or already consumed
	ErrNotFound = errors.New("job not found")

	// ErrNotReady is returned when a file is requested before the job is done
	ErrNotReady = errors.New("job not finished yet")

	// ErrGone is returned when a finished job's artifact is missing on disk
	ErrGone = errors.New("file no longer available")

	// ErrQueueFull is returned when the worker backlog cannot take another job
	ErrQueueFull = errors.New("job queue is full")

	// ErrPoolStopped is returned when submitting to a stopped pool
	ErrPoolStopped = errors.New("worker pool stopped")
)

// ValidationError is a client error detected before any job is created
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a new validation error
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// FetchError wraps a failure of the fetch engine. It is stored on the job
// record and never returned to the request that dispatched the job.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "download failed: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
