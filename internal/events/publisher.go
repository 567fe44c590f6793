package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cuongbtq/redditlink/internal/job"
)

const contentTypeJSON = "application/json"

// Publisher delivers a message to the broker
type Publisher interface {
	PublishWithRetry(ctx context.Context, routingKey string, body []byte, contentType string) error
}

// JobFinishedEvent is published once per job when it reaches done or error
type JobFinishedEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	JobID      string    `json:"job_id"`
	Status     string    `json:"status"`
	URL        string    `json:"url"`
	Quality    string    `json:"quality"`
	Progress   int       `json:"progress"`
	Filename   string    `json:"filename,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RoutingKey returns job.<status>, e.g. job.done
func RoutingKey(status job.Status) string {
	return "job." + status.String()
}

// Notifier publishes job-finished events. It is registered as a job observer.
type Notifier struct {
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewNotifier creates a notifier publishing through p
func NewNotifier(p Publisher, logger *slog.Logger) *Notifier {
	return &Notifier{publisher: p, logger: logger, now: time.Now}
}

// JobFinished implements job.Observer
func (n *Notifier) JobFinished(ctx context.Context, task job.Task, snap job.Job) error {
	event := JobFinishedEvent{
		EventID:    uuid.New().String(),
		OccurredAt: n.now().UTC(),
		JobID:      snap.ID,
		Status:     snap.Status.String(),
		URL:        task.URL,
		Quality:    task.Quality,
		Progress:   snap.Progress,
		Filename:   snap.ResultName,
		Error:      snap.Error,
		CreatedAt:  snap.CreatedAt,
		FinishedAt: snap.FinishedAt,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode job event: %w", err)
	}

	key := RoutingKey(snap.Status)
	if err := n.publisher.PublishWithRetry(ctx, key, body, contentTypeJSON); err != nil {
		return fmt.Errorf("failed to publish job event: %w", err)
	}

	n.logger.Debug("Job event published",
		slog.String("job_id", snap.ID),
		slog.String("routing_key", key),
	)
	return nil
}
