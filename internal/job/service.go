package job

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"time"
)

// Validator checks caller input before a job is created
type Validator interface {
	ValidateURL(rawURL string) error
	ValidateQuality(quality string) error
}

// Config holds service configuration
type Config struct {
	Logger       *slog.Logger
	Engine       Engine
	Validator    Validator
	Observers    []Observer
	DownloadsDir string
	Concurrency  int
	QueueSize    int
	JobTimeout   time.Duration
	PollInterval time.Duration
}

// Service wires the registry, the worker pool and the delivery side together
type Service struct {
	logger    *slog.Logger
	registry  *Registry
	validator Validator
	runner    *Runner
	pool      *Pool
	streamer  *Streamer
	delivery  *Delivery
}

// NewService creates a new job service
func NewService(cfg *Config) *Service {
	registry := NewRegistry()
	runner := NewRunner(&RunnerConfig{
		Registry:     registry,
		Engine:       cfg.Engine,
		DownloadsDir: cfg.DownloadsDir,
		JobTimeout:   cfg.JobTimeout,
		Observers:    cfg.Observers,
		Logger:       cfg.Logger,
	})

	return &Service{
		logger:    cfg.Logger,
		registry:  registry,
		validator: cfg.Validator,
		runner:    runner,
		pool: NewPool(&PoolConfig{
			Logger:      cfg.Logger,
			Concurrency: cfg.Concurrency,
			QueueSize:   cfg.QueueSize,
		}, runner.Run),
		streamer: NewStreamer(registry, cfg.PollInterval),
		delivery: NewDelivery(registry, cfg.Logger),
	}
}

// Start starts the worker pool
func (s *Service) Start(ctx context.Context) {
	s.pool.Start(ctx)
}

// Stop stops the worker pool. Jobs still waiting in the backlog are failed.
func (s *Service) Stop(ctx context.Context) {
	for _, task := range s.pool.Stop() {
		s.runner.Fail(ctx, task, "service shutting down")
	}
}

// Submit validates the request, creates a pending job and dispatches it.
// It returns as soon as the job is queued.
func (s *Service) Submit(rawURL, quality string) (Job, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := s.validator.ValidateQuality(quality); err != nil {
		return Job{}, err
	}
	if err := s.validator.ValidateURL(rawURL); err != nil {
		return Job{}, err
	}

	job := s.registry.Create()
	task := Task{JobID: job.ID, URL: rawURL, Quality: quality}

	if err := s.pool.Submit(task); err != nil {
		s.registry.Remove(job.ID)
		if errors.Is(err, ErrQueueFull) {
			s.logger.Warn("Job rejected - queue full",
				slog.Int("backlog", s.pool.Backlog()),
			)
		}
		return Job{}, err
	}

	s.logger.Info("Job created",
		slog.String("job_id", job.ID),
		slog.String("quality", quality),
	)
	return job, nil
}

// Get returns a snapshot of the job
func (s *Service) Get(id string) (Job, bool) {
	return s.registry.Get(id)
}

// Watch streams snapshots of the job until it reaches a terminal state
func (s *Service) Watch(ctx context.Context, id string) iter.Seq[Event] {
	return s.streamer.Watch(ctx, id)
}

// Open reserves the finished file of a job for delivery
func (s *Service) Open(id string) (*Artifact, error) {
	return s.delivery.Open(id)
}

// Registry exposes the job registry to the janitor and health checks
func (s *Service) Registry() *Registry {
	return s.registry
}

// Len returns the number of live jobs
func (s *Service) Len() int {
	return s.registry.Len()
}
