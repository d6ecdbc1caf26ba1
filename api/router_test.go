package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/media-fetch-go/internal/app"
	"github.com/yourusername/media-fetch-go/internal/domain"
	"github.com/yourusername/media-fetch-go/pkg/logger"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	session := app.NewSession(nil, nil, nil, nil, nil, 0)
	cfg := domain.DefaultConfig()
	return SetupRouter(Services{
		Session:  session,
		History:  session,
		Catalog:  session.Catalog(),
		Defaults: &cfg.Download,
		LogsDir:  t.TempDir(),
	}, logger.NewSingleLoggerAdapter(nil))
}

func get(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/api/v1/session", http.StatusOK},
		{http.MethodGet, "/api/v1/session/result", http.StatusNotFound},
		{http.MethodPost, "/api/v1/session/pause", http.StatusOK},
		{http.MethodPost, "/api/v1/session/stop", http.StatusOK},
		{http.MethodGet, "/api/v1/classify?url=https%3A%2F%2Fyoutu.be%2Fabc", http.StatusOK},
		{http.MethodGet, "/api/v1/formats?url=not-a-url", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/runs", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/runs/stats", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/logs/categories", http.StatusOK},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
		{http.MethodOptions, "/api/v1/session/start", http.StatusNoContent},
	}

	for _, tt := range tests {
		w := get(r, tt.method, tt.path)
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t)

	require.Equal(t, http.StatusOK, get(r, http.MethodGet, "/health").Code)

	w := get(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mediafetch_http_requests_total")
	assert.Contains(t, w.Body.String(), `endpoint="/health"`)
}
