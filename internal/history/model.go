package history

import (
	"time"

	"github.com/cuongbtq/redditlink/internal/job"
)

// Record is one finished job as stored in the journal
type Record struct {
	JobID      string    `db:"job_id"`
	URL        string    `db:"url"`
	Quality    string    `db:"quality"`
	Status     string    `db:"status"`
	Progress   int       `db:"progress"`
	ResultName string    `db:"result_name"`
	Error      string    `db:"error"`
	CreatedAt  time.Time `db:"created_at"`
	FinishedAt time.Time `db:"finished_at"`
}

// NewRecord builds the journal entry for a terminal job snapshot
func NewRecord(task job.Task, snap job.Job) *Record {
	finishedAt := snap.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = snap.UpdatedAt
	}
	return &Record{
		JobID:      snap.ID,
		URL:        task.URL,
		Quality:    task.Quality,
		Status:     snap.Status.String(),
		Progress:   snap.Progress,
		ResultName: snap.ResultName,
		Error:      snap.Error,
		CreatedAt:  snap.CreatedAt,
		FinishedAt: finishedAt,
	}
}
