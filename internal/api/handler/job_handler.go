package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/redditlink/internal/api/dto"
	"github.com/cuongbtq/redditlink/internal/job"
	"github.com/cuongbtq/redditlink/internal/media"
)

var conditionalHeaders = []string{
	"If-Match",
	"If-None-Match",
	"If-Modified-Since",
	"If-Unmodified-Since",
	"If-Range",
	"Range",
}

// Info handles POST /info
// Returns title, thumbnail, duration and uploader without downloading
func (h *JobHandler) Info(c *gin.Context) {
	var req dto.InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: "invalid request body"})
		return
	}

	url := strings.TrimSpace(req.URL)
	if err := h.validator.ValidateURL(url); err != nil {
		writeError(c, h.logger, err)
		return
	}

	info, err := h.media.Info(c.Request.Context(), url)
	if err != nil {
		h.logger.Error("Failed to extract media info",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.NewInfoResponse(info))
}

// CreateDownload handles POST /download
// Creates a download job and returns its id without waiting for it
func (h *JobHandler) CreateDownload(c *gin.Context) {
	var req dto.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: "invalid request body"})
		return
	}

	if req.Quality == "" {
		req.Quality = media.QualityBest
	}

	created, err := h.jobs.Submit(req.URL, req.Quality)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.DownloadResponse{JobID: created.ID})
}

// Progress handles GET /progress/:job_id
// Streams job snapshots as server-sent events until the job is done or failed
func (h *JobHandler) Progress(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, ok := h.jobs.Get(jobID); !ok {
		writeError(c, h.logger, job.ErrNotFound)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	for ev := range h.jobs.Watch(c.Request.Context(), jobID) {
		c.SSEvent("message", dto.NewStreamEvent(ev))
		c.Writer.Flush()
	}
}

// File handles GET /file/:job_id
// Sends the finished file, then deletes it and forgets the job
func (h *JobHandler) File(c *gin.Context) {
	jobID := c.Param("job_id")

	art, err := h.jobs.Open(jobID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer func() {
		if err := art.Close(); err != nil {
			h.logger.Warn("Failed to close delivered file",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
		}
	}()

	// the file is deleted after this response, so it always goes out whole
	for _, h := range conditionalHeaders {
		c.Request.Header.Del(h)
	}

	c.Header("Content-Type", art.MediaType)
	c.Header("Content-Disposition", `attachment; filename="`+art.Name+`"`)
	http.ServeContent(c.Writer, c.Request, art.Name, art.ModTime, art.File)
}
