package job

import (
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".opus": "audio/opus",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
}

// MediaType returns the content type for an artifact based on its extension
func MediaType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// ResultName returns the download name shown to the user, e.g. video.mp4
func ResultName(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if strings.HasPrefix(MediaType(path), "audio/") {
		return "audio" + ext
	}
	return "video" + ext
}

// Artifact is an open finished file reserved for a single delivery.
// Close must be called once the transfer ends, successful or not.
type Artifact struct {
	JobID     string
	Path      string
	Name      string
	MediaType string
	Size      int64
	ModTime   time.Time
	File      *os.File

	once    sync.Once
	cleanup func()
}

// Close closes the file, deletes it from disk and drops the job record.
// Only the first call does anything.
func (a *Artifact) Close() error {
	var err error
	a.once.Do(func() {
		err = a.File.Close()
		a.cleanup()
	})
	return err
}

// Delivery hands finished files to callers and cleans up after them
type Delivery struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDelivery creates a new delivery component
func NewDelivery(registry *Registry, logger *slog.Logger) *Delivery {
	return &Delivery{registry: registry, logger: logger}
}

// Open reserves the job's artifact for delivery. It fails with ErrNotFound,
// ErrNotReady or ErrGone; on success the caller owns the returned Artifact.
func (d *Delivery) Open(id string) (*Artifact, error) {
	job, err := d.registry.claim(id)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(job.ResultPath)
	if err != nil {
		d.registry.release(id)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrGone
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		d.registry.release(id)
		return nil, err
	}

	return &Artifact{
		JobID:     id,
		Path:      job.ResultPath,
		Name:      job.ResultName,
		MediaType: MediaType(job.ResultPath),
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		File:      f,
		cleanup: func() {
			d.cleanup(id, job.ResultPath)
		},
	}, nil
}

func (d *Delivery) cleanup(id, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.logger.Warn("Failed to delete delivered file",
			slog.String("job_id", id),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
	d.registry.Remove(id)

	d.logger.Info("Job delivered and cleaned up",
		slog.String("job_id", id),
	)
}
