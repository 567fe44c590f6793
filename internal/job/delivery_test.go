package job

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doneJob(t *testing.T, r *Registry, path string) Job {
	t.Helper()
	job := r.Create()
	r.start(job.ID)
	got, ok := r.complete(job.ID, path, ResultName(path))
	require.True(t, ok)
	return got
}

func TestDelivery_Open(t *testing.T) {
	r := NewRegistry()
	d := NewDelivery(r, discardLogger())
	path := tempFile(t, "clip.mp4")
	job := doneJob(t, r, path)

	art, err := d.Open(job.ID)
	require.NoError(t, err)

	body, err := io.ReadAll(art.File)
	require.NoError(t, err)
	assert.Equal(t, "data", string(body))
	assert.Equal(t, "video.mp4", art.Name)
	assert.Equal(t, "video/mp4", art.MediaType)
	assert.Equal(t, int64(4), art.Size)

	// still present while the transfer is running
	_, ok := r.Get(job.ID)
	assert.True(t, ok)

	require.NoError(t, art.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, ok = r.Get(job.ID)
	assert.False(t, ok)

	_, err = d.Open(job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelivery_CloseTwice(t *testing.T) {
	r := NewRegistry()
	d := NewDelivery(r, discardLogger())
	job := doneJob(t, r, tempFile(t, "a.mp3"))

	art, err := d.Open(job.ID)
	require.NoError(t, err)

	require.NoError(t, art.Close())
	assert.NoError(t, art.Close())
}

func TestDelivery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, r *Registry) string
		wantErr error
		wantJob bool
	}{
		{
			name:    "unknown id",
			setup:   func(*testing.T, *Registry) string { return "missing" },
			wantErr: ErrNotFound,
		},
		{
			name: "pending",
			setup: func(t *testing.T, r *Registry) string {
				return r.Create().ID
			},
			wantErr: ErrNotReady,
			wantJob: true,
		},
		{
			name: "running",
			setup: func(t *testing.T, r *Registry) string {
				job := r.Create()
				r.start(job.ID)
				return job.ID
			},
			wantErr: ErrNotReady,
			wantJob: true,
		},
		{
			name: "error",
			setup: func(t *testing.T, r *Registry) string {
				job := r.Create()
				r.start(job.ID)
				r.fail(job.ID, "boom")
				return job.ID
			},
			wantErr: ErrNotReady,
			wantJob: true,
		},
		{
			name: "file deleted behind our back",
			setup: func(t *testing.T, r *Registry) string {
				return doneJob(t, r, filepath.Join(t.TempDir(), "gone.mp4")).ID
			},
			wantErr: ErrGone,
			wantJob: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			d := NewDelivery(r, discardLogger())
			id := tt.setup(t, r)

			art, err := d.Open(id)

			assert.Nil(t, art)
			assert.ErrorIs(t, err, tt.wantErr)
			_, ok := r.Get(id)
			assert.Equal(t, tt.wantJob, ok)
		})
	}
}

func TestDelivery_GoneCanBeRetried(t *testing.T) {
	r := NewRegistry()
	d := NewDelivery(r, discardLogger())
	path := filepath.Join(t.TempDir(), "late.mp4")
	job := doneJob(t, r, path)

	_, err := d.Open(job.ID)
	require.ErrorIs(t, err, ErrGone)

	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	art, err := d.Open(job.ID)
	require.NoError(t, err)
	assert.NoError(t, art.Close())
}

func TestDelivery_SingleClaim(t *testing.T) {
	r := NewRegistry()
	d := NewDelivery(r, discardLogger())
	job := doneJob(t, r, tempFile(t, "race.mp4"))

	const callers = 16
	var wg sync.WaitGroup
	results := make(chan error, callers)
	arts := make(chan *Artifact, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			art, err := d.Open(job.ID)
			results <- err
			if art != nil {
				arts <- art
			}
		}()
	}
	wg.Wait()
	close(results)
	close(arts)

	won := 0
	for err := range results {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 1, won)

	for art := range arts {
		require.NoError(t, art.Close())
	}
	assert.Equal(t, 0, r.Len())
}
