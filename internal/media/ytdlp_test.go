package media

import (
	"testing"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"

	"github.com/cuongbtq/redditlink/internal/job"
)

func ptr[T any](v T) *T {
	return &v
}

func TestProgressEvent(t *testing.T) {
	tests := []struct {
		name   string
		update ytdlp.ProgressUpdate
		want   job.ProgressEvent
		wantOK bool
	}{
		{
			name:   "downloading",
			update: ytdlp.ProgressUpdate{Status: ytdlp.ProgressStatusDownloading, DownloadedBytes: 512, TotalBytes: 2048},
			want:   job.ProgressEvent{Downloaded: 512, Total: 2048},
			wantOK: true,
		},
		{
			name:   "downloading with unknown size",
			update: ytdlp.ProgressUpdate{Status: ytdlp.ProgressStatusDownloading, DownloadedBytes: 512},
			want:   job.ProgressEvent{Downloaded: 512},
			wantOK: true,
		},
		{
			name:   "finished",
			update: ytdlp.ProgressUpdate{Status: ytdlp.ProgressStatusFinished},
			want:   job.ProgressEvent{Finished: true},
			wantOK: true,
		},
		{
			name:   "post processing",
			update: ytdlp.ProgressUpdate{Status: ytdlp.ProgressStatusPostProcessing},
			want:   job.ProgressEvent{Finished: true},
			wantOK: true,
		},
		{
			name:   "starting",
			update: ytdlp.ProgressUpdate{Status: ytdlp.ProgressStatusStarting},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := progressEvent(tt.update)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInfoFrom(t *testing.T) {
	tests := []struct {
		name         string
		in           *ytdlp.ExtractedInfo
		wantTitle    string
		wantUploader *string
	}{
		{
			name: "all fields",
			in: &ytdlp.ExtractedInfo{
				Title:     ptr("Cat video"),
				Thumbnail: ptr("https://i.ytimg.com/vi/1/hq.jpg"),
				Duration:  ptr(61.5),
				Uploader:  ptr("cats"),
				Channel:   ptr("Cats Channel"),
			},
			wantTitle:    "Cat video",
			wantUploader: ptr("cats"),
		},
		{
			name:         "uploader falls back to channel",
			in:           &ytdlp.ExtractedInfo{Title: ptr("Clip"), Channel: ptr("Cats Channel")},
			wantTitle:    "Clip",
			wantUploader: ptr("Cats Channel"),
		},
		{
			name:      "missing title",
			in:        &ytdlp.ExtractedInfo{},
			wantTitle: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := infoFrom(tt.in)

			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantUploader, got.Uploader)
			assert.Equal(t, tt.in.Duration, got.Duration)
			assert.Equal(t, tt.in.Thumbnail, got.Thumbnail)
		})
	}
}
