package dto

import (
	"time"

	"github.com/cuongbtq/redditlink/internal/history"
	"github.com/cuongbtq/redditlink/internal/job"
	"github.com/cuongbtq/redditlink/internal/media"
)

// StatusNotFound is the stream status sent when a job disappears
const StatusNotFound = "not_found"

type InfoRequest struct {
	URL string `json:"url" binding:"required"`
}

type InfoResponse struct {
	Title     string   `json:"title"`
	Thumbnail *string  `json:"thumbnail"`
	Duration  *float64 `json:"duration"`
	Uploader  *string  `json:"uploader"`
}

type DownloadRequest struct {
	URL     string `json:"url" binding:"required"`
	Quality string `json:"quality"`
}

type DownloadResponse struct {
	JobID string `json:"job_id"`
}

// JobSnapshot is one progress stream event
type JobSnapshot struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NotFoundEvent ends a progress stream whose job is gone
type NotFoundEvent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Jobs    int    `json:"jobs"`

	Checks map[string]string `json:"checks,omitempty"`
}

type ListHistoryRequest struct {
	Status   string `form:"status"`
	Quality  string `form:"quality"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListHistoryResponse struct {
	Jobs       []HistoryDTO `json:"jobs"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type HistoryDTO struct {
	JobID      string `json:"job_id"`
	URL        string `json:"url"`
	Quality    string `json:"quality"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Filename   string `json:"filename,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	FinishedAt string `json:"finished_at"`
}

// NewJobSnapshot converts a job snapshot for the wire
func NewJobSnapshot(j job.Job) JobSnapshot {
	return JobSnapshot{
		ID:       j.ID,
		Status:   j.Status.String(),
		Progress: j.Progress,
		Message:  j.Message,
		Filename: j.ResultName,
		Error:    j.Error,
	}
}

// NewStreamEvent converts a stream element into its JSON payload
func NewStreamEvent(ev job.Event) any {
	if ev.NotFound {
		return NotFoundEvent{
			ID:     ev.JobID,
			Status: StatusNotFound,
			Error:  job.ErrNotFound.Error(),
		}
	}
	return NewJobSnapshot(ev.Job)
}

func NewInfoResponse(info *media.Info) InfoResponse {
	return InfoResponse{
		Title:     info.Title,
		Thumbnail: info.Thumbnail,
		Duration:  info.Duration,
		Uploader:  info.Uploader,
	}
}

func NewHistoryDTO(rec history.Record) HistoryDTO {
	return HistoryDTO{
		JobID:      rec.JobID,
		URL:        rec.URL,
		Quality:    rec.Quality,
		Status:     rec.Status,
		Progress:   rec.Progress,
		Filename:   rec.ResultName,
		Error:      rec.Error,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
		FinishedAt: rec.FinishedAt.Format(time.RFC3339),
	}
}
