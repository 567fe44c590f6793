package handler

import (
	"context"
	"iter"
	"log/slog"

	"github.com/cuongbtq/redditlink/internal/history"
	"github.com/cuongbtq/redditlink/internal/job"
	"github.com/cuongbtq/redditlink/internal/media"
)

// JobService is the job side of the API
type JobService interface {
	Submit(rawURL, quality string) (job.Job, error)
	Get(id string) (job.Job, bool)
	Watch(ctx context.Context, id string) iter.Seq[job.Event]
	Open(id string) (*job.Artifact, error)
	Len() int
}

// InfoProvider looks up media metadata
type InfoProvider interface {
	Info(ctx context.Context, rawURL string) (*media.Info, error)
}

// URLValidator checks a URL before it reaches the fetch engine
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// HistoryLister reads the finished-job journal
type HistoryLister interface {
	List(ctx context.Context, filter history.Filter) (*history.Page, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Jobs      JobService
	Media     InfoProvider
	Validator URLValidator
	History   HistoryLister // nil when the journal is disabled
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger    *slog.Logger
	jobs      JobService
	media     InfoProvider
	validator URLValidator
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:    deps.Logger,
		jobs:      deps.Jobs,
		media:     deps.Media,
		validator: deps.Validator,
	}
}

// HistoryHandler serves the finished-job journal
type HistoryHandler struct {
	logger  *slog.Logger
	history HistoryLister
}

// NewHistoryHandler creates a new HistoryHandler instance
func NewHistoryHandler(deps *Dependencies) *HistoryHandler {
	return &HistoryHandler{
		logger:  deps.Logger,
		history: deps.History,
	}
}
