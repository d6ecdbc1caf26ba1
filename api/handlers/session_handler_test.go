package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/media-fetch-go/internal/app"
	"github.com/yourusername/media-fetch-go/internal/domain"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testDefaults = &domain.DownloadConfig{
	OutputDir:         "/media/out",
	DefaultResolution: "720p",
	AudioCodec:        "m4a",
	AudioBitrate:      192,
	MergeContainer:    "mp4",
}

func newSessionRouter(session *fakeSession) *gin.Engine {
	h := NewSessionHandler(session, testDefaults, zap.NewNop())
	r := gin.New()
	r.GET("/session", h.Status)
	r.GET("/session/result", h.Result)
	r.POST("/session/start", h.Start)
	r.POST("/session/pause", h.Pause)
	r.POST("/session/resume", h.Resume)
	r.POST("/session/toggle", h.Toggle)
	r.POST("/session/stop", h.Stop)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestStart_AppliesDefaults(t *testing.T) {
	session := newFakeSession()
	r := newSessionRouter(session)

	w := doJSON(t, r, http.MethodPost, "/session/start", map[string]interface{}{
		"url": "https://youtu.be/abc",
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	body := decode(t, w)
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, "running", body["state"])
	assert.Equal(t, "720p", body["target"])

	require.Len(t, session.started, 1)
	req := session.started[0]
	assert.Equal(t, "/media/out", req.OutputDir)
	assert.Equal(t, 720, req.Resolution)
	assert.Equal(t, "mp4", req.MergeContainer)
}

func TestStart_AudioOnly(t *testing.T) {
	session := newFakeSession()
	r := newSessionRouter(session)

	w := doJSON(t, r, http.MethodPost, "/session/start", map[string]interface{}{
		"url":           "https://youtu.be/abc",
		"audio_only":    true,
		"audio_codec":   "mp3",
		"audio_bitrate": 320,
		"output_dir":    "/music",
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	req := session.started[0]
	assert.True(t, req.AudioOnly)
	assert.Equal(t, "mp3", req.AudioCodec)
	assert.Equal(t, 320, req.AudioBitrate)
	assert.Equal(t, "/music", req.OutputDir)
}

func TestStart_Validation(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{name: "missing url", body: map[string]interface{}{}},
		{name: "bad resolution", body: map[string]interface{}{"url": "https://youtu.be/abc", "resolution": "tall"}},
		{name: "bad codec", body: map[string]interface{}{"url": "https://youtu.be/abc", "audio_only": true, "audio_codec": "flac"}},
		{name: "bad bitrate", body: map[string]interface{}{"url": "https://youtu.be/abc", "audio_only": true, "audio_bitrate": 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := newFakeSession()
			w := doJSON(t, newSessionRouter(session), http.MethodPost, "/session/start", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, session.started)
		})
	}
}

func TestStart_RunActiveConflict(t *testing.T) {
	session := newFakeSession()
	session.startErr = domain.ErrRunActive

	w := doJSON(t, newSessionRouter(session), http.MethodPost, "/session/start", map[string]interface{}{
		"url": "https://youtu.be/abc",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStart_InvalidLocator(t *testing.T) {
	session := newFakeSession()
	session.startErr = domain.NewError(domain.KindInvalidLocator, "unsupported locator", nil)

	w := doJSON(t, newSessionRouter(session), http.MethodPost, "/session/start", map[string]interface{}{
		"url": "https://example.com/video",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_locator", decode(t, w)["kind"])
}

func TestControlEndpoints(t *testing.T) {
	session := newFakeSession()
	r := newSessionRouter(session)

	steps := []struct {
		path string
		want string
	}{
		{"/session/pause", "paused"},
		{"/session/toggle", "running"},
		{"/session/toggle", "paused"},
		{"/session/resume", "running"},
		{"/session/stop", "stopped"},
	}
	for _, s := range steps {
		w := doJSON(t, r, http.MethodPost, s.path, nil)
		require.Equal(t, http.StatusOK, w.Code, s.path)
		assert.Equal(t, s.want, decode(t, w)["state"], s.path)
	}
}

func TestStatus(t *testing.T) {
	w := doJSON(t, newSessionRouter(newFakeSession()), http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decode(t, w)["state"])
}

func TestResult(t *testing.T) {
	session := newFakeSession()
	r := newSessionRouter(session)

	w := doJSON(t, r, http.MethodGet, "/session/result", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	session.result = &app.RunResult{
		RunID:  "run-1",
		State:  domain.RunCompleted,
		Report: &domain.BatchReport{Attempted: 2, Succeeded: 2},
	}
	w = doJSON(t, r, http.MethodGet, "/session/result", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "completed", body["state"])
	assert.Equal(t, float64(2), body["report"].(map[string]interface{})["succeeded"])
}
