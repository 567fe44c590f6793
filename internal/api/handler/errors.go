package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/redditlink/internal/api/dto"
	"github.com/cuongbtq/redditlink/internal/job"
)

// statusFor maps a service error onto an HTTP status and client message
func statusFor(err error) (int, string) {
	var verr *job.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Reason
	case errors.Is(err, job.ErrNotFound), errors.Is(err, job.ErrGone):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, job.ErrNotReady):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, job.ErrQueueFull):
		return http.StatusServiceUnavailable, "too many downloads in progress, try again later"
	case errors.Is(err, job.ErrPoolStopped):
		return http.StatusServiceUnavailable, "service is shutting down"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Detail: detail})
}
