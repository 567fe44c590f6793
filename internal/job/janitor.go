package job

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PrepareStorage makes sure the downloads directory exists
func PrepareStorage(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}
	return nil
}

// PurgeStorage removes every file in dir and returns how many were removed.
// Individual failures are logged and skipped.
func PurgeStorage(dir string, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read downloads directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("Failed to remove stale file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}
	return removed, nil
}

// Janitor evicts terminal jobs, and their files, once they outlive the
// retention period.
type Janitor struct {
	registry  *Registry
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewJanitor creates a janitor. A non-positive retention disables it.
func NewJanitor(registry *Registry, retention, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		registry:  registry,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps every interval until ctx is done
func (j *Janitor) Run(ctx context.Context) {
	if j.retention <= 0 {
		j.logger.Info("Job retention disabled")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			j.Sweep(now)
		}
	}
}

// Sweep evicts everything that finished before now minus the retention
func (j *Janitor) Sweep(now time.Time) int {
	evicted := j.registry.evict(now.Add(-j.retention))
	for _, job := range evicted {
		if job.ResultPath == "" {
			continue
		}
		if err := os.Remove(job.ResultPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			j.logger.Warn("Failed to delete expired file",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if len(evicted) > 0 {
		j.logger.Info("Expired jobs evicted",
			slog.Int("count", len(evicted)),
		)
	}
	return len(evicted)
}
