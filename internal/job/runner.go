package job

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const observerTimeout = 10 * time.Second

// FetchRequest describes one download for the fetch engine
type FetchRequest struct {
	URL            string
	Quality        string
	OutputTemplate string // <dir>/<job id>.%(ext)s
}

// Engine downloads and post-processes a media URL. It returns the path of
// the produced artifact, or an empty string when the caller should locate it
// from the output template.
type Engine interface {
	Fetch(ctx context.Context, req FetchRequest, sink ProgressSink) (string, error)
}

// Observer is notified once per job with its terminal snapshot
type Observer interface {
	JobFinished(ctx context.Context, task Task, job Job) error
}

// RunnerConfig holds runner dependencies
type RunnerConfig struct {
	Registry     *Registry
	Engine       Engine
	DownloadsDir string
	JobTimeout   time.Duration
	Observers    []Observer
	Logger       *slog.Logger
}

// Runner executes one job at a time on the calling goroutine
type Runner struct {
	registry     *Registry
	engine       Engine
	downloadsDir string
	jobTimeout   time.Duration
	observers    []Observer
	logger       *slog.Logger
}

// NewRunner creates a new runner
func NewRunner(cfg *RunnerConfig) *Runner {
	return &Runner{
		registry:     cfg.Registry,
		engine:       cfg.Engine,
		downloadsDir: cfg.DownloadsDir,
		jobTimeout:   cfg.JobTimeout,
		observers:    cfg.Observers,
		logger:       cfg.Logger,
	}
}

// Run drives task from pending to a terminal state. Every engine failure,
// including a panic, ends up on the record as an error; nothing escapes.
func (r *Runner) Run(ctx context.Context, task Task) {
	if _, ok := r.registry.start(task.JobID); !ok {
		r.logger.Warn("Job is no longer pending, skipping",
			slog.String("job_id", task.JobID),
		)
		return
	}

	r.logger.Info("Job started",
		slog.String("job_id", task.JobID),
		slog.String("quality", task.Quality),
		slog.String("url", task.URL),
	)

	started := time.Now()
	path, err := r.fetch(ctx, task)

	var final Job
	var ok bool
	if err != nil {
		final, ok = r.registry.fail(task.JobID, err.Error())
		r.removeLeftovers(task.JobID)
		r.logger.Error("Job failed",
			slog.String("job_id", task.JobID),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(started)),
		)
	} else {
		final, ok = r.registry.complete(task.JobID, path, ResultName(path))
		r.logger.Info("Job completed",
			slog.String("job_id", task.JobID),
			slog.String("path", path),
			slog.Duration("elapsed", time.Since(started)),
		)
	}

	if ok {
		r.notify(ctx, task, final)
	}
}

// Fail marks a job that will never run as failed
func (r *Runner) Fail(ctx context.Context, task Task, reason string) {
	if final, ok := r.registry.fail(task.JobID, reason); ok {
		r.notify(ctx, task, final)
	}
}

func (r *Runner) fetch(ctx context.Context, task Task) (path string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			path, err = "", &FetchError{Err: fmt.Errorf("engine panic: %v", rec)}
		}
	}()

	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.jobTimeout)
		defer cancel()
	}

	req := FetchRequest{
		URL:            task.URL,
		Quality:        task.Quality,
		OutputTemplate: OutputTemplate(r.downloadsDir, task.JobID),
	}

	path, err = r.engine.Fetch(ctx, req, NewReporter(r.registry, task.JobID))
	if err != nil {
		return "", &FetchError{Err: err}
	}

	if path == "" {
		path, err = LocateArtifact(r.downloadsDir, task.JobID)
		if err != nil {
			return "", &FetchError{Err: err}
		}
		return path, nil
	}

	if _, err := os.Stat(path); err != nil {
		return "", &FetchError{Err: fmt.Errorf("file not found after download: %w", err)}
	}
	return path, nil
}

// removeLeftovers deletes partial and intermediate files of a failed job.
// Nothing will ever deliver them, and the janitor only knows result paths.
func (r *Runner) removeLeftovers(jobID string) {
	matches, err := filepath.Glob(filepath.Join(r.downloadsDir, jobID+".*"))
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("Failed to remove leftover file",
				slog.String("job_id", jobID),
				slog.String("path", m),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (r *Runner) notify(ctx context.Context, task Task, job Job) {
	for _, o := range r.observers {
		octx, cancel := context.WithTimeout(context.WithoutCancel(ctx), observerTimeout)
		if err := o.JobFinished(octx, task, job); err != nil {
			r.logger.Warn("Job observer failed",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()),
			)
		}
		cancel()
	}
}

// OutputTemplate returns the engine output template for a job. Names are
// derived from the job id so concurrent jobs never collide.
func OutputTemplate(dir, jobID string) string {
	return filepath.Join(dir, jobID+".%(ext)s")
}

// LocateArtifact finds the finished file for jobID in dir. Intermediate
// files such as <id>.f137.mp4 or <id>.mp4.part are ignored.
func LocateArtifact(dir, jobID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, jobID+".*"))
	if err != nil {
		return "", err
	}

	for _, m := range matches {
		ext := strings.TrimPrefix(filepath.Base(m), jobID+".")
		if ext == "" || strings.Contains(ext, ".") || isTempExt(ext) {
			continue
		}
		return m, nil
	}
	return "", errors.New("file not found after download")
}

func isTempExt(ext string) bool {
	switch strings.ToLower(ext) {
	case "part", "ytdl", "temp", "tmp":
		return true
	}
	return false
}
