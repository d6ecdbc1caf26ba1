package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-fetch-go/internal/app"
	"github.com/yourusername/media-fetch-go/internal/domain"
	"go.uber.org/zap"
)

// FormatFetcher lists the encodings available for a locator
type FormatFetcher interface {
	Fetch(ctx context.Context, locator string) ([]domain.EncodingCandidate, error)
}

// FormatHandler handles locator inspection requests
type FormatHandler struct {
	catalog FormatFetcher
	timeout time.Duration
	logger  *zap.Logger
}

// NewFormatHandler creates a new format handler
func NewFormatHandler(catalog FormatFetcher, logger *zap.Logger) *FormatHandler {
	return &FormatHandler{
		catalog: catalog,
		timeout: 60 * time.Second,
		logger:  logger,
	}
}

// Classify handles GET /api/v1/classify?url=
func (h *FormatHandler) Classify(c *gin.Context) {
	locator := c.Query("url")
	if locator == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'url' is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":  locator,
		"kind": domain.ClassifyLocator(locator),
	})
}

// Formats handles GET /api/v1/formats?url=
func (h *FormatHandler) Formats(c *gin.Context) {
	locator := c.Query("url")
	if locator == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'url' is required"})
		return
	}
	kind := domain.ClassifyLocator(locator)
	if kind == domain.LocatorInvalid {
		respondError(c, domain.NewError(domain.KindInvalidLocator, "unsupported locator", nil).WithItem(locator))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	formats, err := h.catalog.Fetch(ctx, locator)
	if err != nil {
		h.logger.Warn("Failed to fetch formats", zap.String("url", locator), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":     locator,
		"kind":    kind,
		"summary": app.Summarize(formats),
		"formats": formats,
	})
}
