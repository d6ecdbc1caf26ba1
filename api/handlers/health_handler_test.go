package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/media-fetch-go/internal/domain"
)

type mapLocator map[string]string

func (l mapLocator) Locate(name string) (string, error) {
	if p, ok := l[name]; ok {
		return p, nil
	}
	return "", domain.NewError(domain.KindEngineUnavailable, name+" binary not found", nil)
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(newFakeSession(), nil)
	r := gin.New()
	r.GET("/health", h.Health)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "idle", body["session"].(map[string]interface{})["state"])
}

func TestReady(t *testing.T) {
	ready := NewHealthHandler(newFakeSession(), mapLocator{"yt-dlp": "/bin/yt-dlp", "ffmpeg": "/bin/ffmpeg"}, "yt-dlp", "ffmpeg")
	missing := NewHealthHandler(newFakeSession(), mapLocator{"yt-dlp": "/bin/yt-dlp"}, "yt-dlp", "ffmpeg")

	r := gin.New()
	r.GET("/ready", ready.Ready)
	r.GET("/not-ready", missing.Ready)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/ready", nil).Code)

	w := doJSON(t, r, http.MethodGet, "/not-ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decode(t, w)["reason"], "ffmpeg")
}
