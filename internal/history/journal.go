package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/redditlink/internal/job"
)

// Inserter stores journal records
type Inserter interface {
	Insert(ctx context.Context, rec *Record) error
}

// Journal records every finished job. It is registered as a job observer.
type Journal struct {
	store  Inserter
	logger *slog.Logger
}

// NewJournal creates a journal writing to store
func NewJournal(store Inserter, logger *slog.Logger) *Journal {
	return &Journal{store: store, logger: logger}
}

// JobFinished implements job.Observer
func (j *Journal) JobFinished(ctx context.Context, task job.Task, snap job.Job) error {
	if err := j.store.Insert(ctx, NewRecord(task, snap)); err != nil {
		return fmt.Errorf("failed to record job %s: %w", snap.ID, err)
	}

	j.logger.Debug("Job recorded in history",
		slog.String("job_id", snap.ID),
		slog.String("status", snap.Status.String()),
	)
	return nil
}
