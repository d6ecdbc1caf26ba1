package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-fetch-go/internal/domain"
)

// RunHistory is the read side of the run history
type RunHistory interface {
	Runs(limit int) ([]*domain.RunRecord, error)
	GetRun(id string) (*domain.RunRecord, error)
	Stats() (*domain.RunStats, error)
}

// RunHandler handles run history requests
type RunHandler struct {
	history RunHistory
}

// NewRunHandler creates a new run handler
func NewRunHandler(history RunHistory) *RunHandler {
	return &RunHandler{history: history}
}

// ListRuns handles GET /api/v1/runs
func (h *RunHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	runs, err := h.history.Runs(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	run, err := h.history.GetRun(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetStats handles GET /api/v1/runs/stats
func (h *RunHandler) GetStats(c *gin.Context) {
	stats, err := h.history.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
