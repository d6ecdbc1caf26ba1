package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-fetch-go/internal/app"
	"github.com/yourusername/media-fetch-go/internal/domain"
	"go.uber.org/zap"
)

// SessionController is the part of app.Session the HTTP layer drives
type SessionController interface {
	Start(req domain.DownloadRequest) (string, error)
	Pause() domain.RunState
	Resume() domain.RunState
	TogglePause() domain.RunState
	Stop() domain.RunState
	State() domain.RunState
	Status() app.SessionStatus
	Result() *app.RunResult
	Subscribe() (<-chan domain.ProgressEvent, func())
}

// SessionHandler handles session control requests
type SessionHandler struct {
	session  SessionController
	defaults *domain.DownloadConfig
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(session SessionController, defaults *domain.DownloadConfig, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		session:  session,
		defaults: defaults,
		logger:   logger,
	}
}

// StartRequest represents a request to start a run. Empty fields take the
// configured defaults.
type StartRequest struct {
	URL            string `json:"url" binding:"required"`
	OutputDir      string `json:"output_dir,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
	AudioOnly      bool   `json:"audio_only,omitempty"`
	AudioCodec     string `json:"audio_codec,omitempty"`
	AudioBitrate   int    `json:"audio_bitrate,omitempty"`
	MergeContainer string `json:"merge_container,omitempty"`
}

// Options merges the request with the configured defaults
func (r StartRequest) Options(defaults *domain.DownloadConfig) domain.RequestOptions {
	opts := domain.RequestOptions{
		Locator:        r.URL,
		OutputDir:      r.OutputDir,
		Resolution:     r.Resolution,
		AudioOnly:      r.AudioOnly,
		AudioCodec:     r.AudioCodec,
		AudioBitrate:   r.AudioBitrate,
		MergeContainer: r.MergeContainer,
	}
	if defaults == nil {
		return opts
	}
	if opts.OutputDir == "" {
		opts.OutputDir = defaults.OutputDir
	}
	if opts.Resolution == "" {
		opts.Resolution = defaults.DefaultResolution
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = defaults.AudioCodec
	}
	if opts.AudioBitrate == 0 {
		opts.AudioBitrate = defaults.AudioBitrate
	}
	if opts.MergeContainer == "" {
		opts.MergeContainer = defaults.MergeContainer
	}
	return opts
}

// Start handles POST /api/v1/session/start
func (h *SessionHandler) Start(c *gin.Context) {
	var body StartRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := domain.NewDownloadRequest(body.Options(h.defaults))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.session.Start(req)
	if err != nil {
		if !errors.Is(err, domain.ErrRunActive) && !errors.Is(err, domain.ErrInvalidLocator) {
			h.logger.Error("Failed to start run", zap.Error(err))
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run_id": id,
		"state":  h.session.State(),
		"target": req.Target(),
	})
}

// Pause handles POST /api/v1/session/pause
func (h *SessionHandler) Pause(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.session.Pause()})
}

// Resume handles POST /api/v1/session/resume
func (h *SessionHandler) Resume(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.session.Resume()})
}

// Toggle handles POST /api/v1/session/toggle
func (h *SessionHandler) Toggle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.session.TogglePause()})
}

// Stop handles POST /api/v1/session/stop
func (h *SessionHandler) Stop(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.session.Stop()})
}

// Status handles GET /api/v1/session
func (h *SessionHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Status())
}

// Result handles GET /api/v1/session/result
func (h *SessionHandler) Result(c *gin.Context) {
	res := h.session.Result()
	if res == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run has finished yet"})
		return
	}
	c.JSON(http.StatusOK, res)
}
