package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-fetch-go/internal/domain"
)

// Version is reported by the health endpoint; set with -ldflags at build time
var Version = "dev"

// HealthHandler handles health check requests
type HealthHandler struct {
	session  SessionController
	binaries domain.BinaryLocator
	required []string
}

// NewHealthHandler creates a new health handler. Readiness requires every
// named binary to be locatable.
func NewHealthHandler(session SessionController, binaries domain.BinaryLocator, required ...string) *HealthHandler {
	return &HealthHandler{
		session:  session,
		binaries: binaries,
		required: required,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Session struct {
		State domain.RunState `json:"state"`
	} `json:"session"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Session.State = h.session.State()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.binaries != nil {
		for _, name := range h.required {
			if _, err := h.binaries.Locate(name); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "not ready",
					"reason": err.Error(),
				})
				return
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
