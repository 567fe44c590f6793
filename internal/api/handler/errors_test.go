package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuongbtq/redditlink/internal/job"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "validation",
			err:        job.NewValidationError(`invalid quality: "8k"`),
			wantStatus: http.StatusBadRequest,
			wantDetail: `invalid quality: "8k"`,
		},
		{
			name:       "unknown job",
			err:        job.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantDetail: "job not found",
		},
		{
			name:       "file removed",
			err:        fmt.Errorf("open: %w", job.ErrGone),
			wantStatus: http.StatusNotFound,
			wantDetail: "open: file no longer available",
		},
		{
			name:       "not finished",
			err:        job.ErrNotReady,
			wantStatus: http.StatusBadRequest,
			wantDetail: "job not finished yet",
		},
		{
			name:       "queue full",
			err:        job.ErrQueueFull,
			wantStatus: http.StatusServiceUnavailable,
			wantDetail: "too many downloads in progress, try again later",
		},
		{
			name:       "shutting down",
			err:        job.ErrPoolStopped,
			wantStatus: http.StatusServiceUnavailable,
			wantDetail: "service is shutting down",
		},
		{
			name:       "anything else",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := statusFor(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}
