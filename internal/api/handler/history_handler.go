package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/redditlink/internal/api/dto"
	"github.com/cuongbtq/redditlink/internal/history"
)

// ListHistory handles GET /history
// Lists finished jobs, newest first, with cursor pagination
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	var req dto.ListHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: "invalid query parameters"})
		return
	}

	cursor, err := history.DecodeCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: "invalid cursor"})
		return
	}

	page, err := h.history.List(c.Request.Context(), history.Filter{
		Status:   req.Status,
		Quality:  req.Quality,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list history", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: "failed to list history"})
		return
	}

	jobs := make([]dto.HistoryDTO, len(page.Records))
	for i, rec := range page.Records {
		jobs[i] = dto.NewHistoryDTO(rec)
	}

	c.JSON(http.StatusOK, dto.ListHistoryResponse{
		Jobs:       jobs,
		NextCursor: page.NextCursor,
	})
}
