package job

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, engine Engine, concurrency, queueSize int) *Service {
	t.Helper()
	return NewService(&Config{
		Logger:       discardLogger(),
		Engine:       engine,
		Validator:    stubValidator{},
		DownloadsDir: t.TempDir(),
		Concurrency:  concurrency,
		QueueSize:    queueSize,
		JobTimeout:   5 * time.Second,
		PollInterval: 5 * time.Millisecond,
	})
}

func TestService_SubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		quality string
	}{
		{name: "unknown quality", url: "https://www.youtube.com/watch?v=1", quality: "4k"},
		{name: "empty quality", url: "https://www.youtube.com/watch?v=1", quality: ""},
		{name: "unsupported site", url: "https://example.com/v/1", quality: "best"},
		{name: "blank url", url: "   ", quality: "best"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, nil, 1, 4)

			_, err := svc.Submit(tt.url, tt.quality)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, 0, svc.Registry().Len())
		})
	}
}

func TestService_SubmitCreatesPendingJob(t *testing.T) {
	// workers not started, the job stays queued
	svc := newTestService(t, nil, 1, 4)

	job, err := svc.Submit("  https://www.youtube.com/watch?v=1  ", "720p")
	require.NoError(t, err)

	got, ok := svc.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 0, got.Progress)
}

func TestService_QueueFull(t *testing.T) {
	svc := newTestService(t, nil, 1, 1)

	_, err := svc.Submit("https://www.youtube.com/watch?v=1", "best")
	require.NoError(t, err)

	_, err = svc.Submit("https://www.youtube.com/watch?v=2", "best")
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, svc.Registry().Len())
}

func TestService_StopFailsQueuedJobs(t *testing.T) {
	svc := newTestService(t, nil, 1, 2)
	job, err := svc.Submit("https://www.youtube.com/watch?v=1", "best")
	require.NoError(t, err)

	svc.Stop(context.Background())

	got, ok := svc.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "service shutting down", got.Error)

	_, err = svc.Submit("https://www.youtube.com/watch?v=2", "best")
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestService_EndToEnd(t *testing.T) {
	engine := engineFunc(func(ctx context.Context, req FetchRequest, sink ProgressSink) (string, error) {
		for _, n := range []int64{10, 40, 75} {
			sink.Report(ProgressEvent{Downloaded: n, Total: 100})
			time.Sleep(5 * time.Millisecond)
		}
		sink.Report(ProgressEvent{Finished: true})
		time.Sleep(5 * time.Millisecond)
		writeArtifact(t, req.OutputTemplate, "mp4", "movie")
		return "", nil
	})

	svc := newTestService(t, engine, 2, 4)
	svc.Start(context.Background())
	defer svc.Stop(context.Background())

	job, err := svc.Submit("https://www.youtube.com/watch?v=1", "best")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var last Event
	prev := -1
	for ev := range svc.Watch(ctx, job.ID) {
		require.False(t, ev.NotFound)
		assert.GreaterOrEqual(t, ev.Job.Progress, prev)
		prev = ev.Job.Progress
		last = ev
	}
	require.Equal(t, StatusDone, last.Job.Status)
	assert.Equal(t, 100, last.Job.Progress)
	assert.Equal(t, "video.mp4", last.Job.ResultName)

	art, err := svc.Open(job.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(art.File)
	require.NoError(t, err)
	assert.Equal(t, "movie", string(body))
	require.NoError(t, art.Close())

	_, err = svc.Open(job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, ok := svc.Get(job.ID)
	assert.False(t, ok)
}
