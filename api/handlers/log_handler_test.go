package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	h := NewLogHandler(dir)
	r := gin.New()
	r.GET("/logs/categories", h.GetCategories)
	r.GET("/logs/:category", h.GetLogs)
	r.GET("/logs/:category/search", h.SearchLogs)
	r.GET("/logs/:category/export", h.ExportLogs)
	return r, dir
}

func writeLog(t *testing.T, dir, category string, date time.Time, lines ...string) {
	t.Helper()
	path := filepath.Join(dir, category+"-"+date.Format("20060102")+".log")
	var data []byte
	for _, l := range lines {
		data = append(data, l+"\n"...)
	}
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestGetCategories(t *testing.T) {
	r, _ := newLogRouter(t)
	w := doJSON(t, r, http.MethodGet, "/logs/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"session", "error", "engine"}, decode(t, w)["categories"])
}

func TestGetLogs(t *testing.T) {
	r, dir := newLogRouter(t)
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local)
	writeLog(t, dir, "session", date,
		`{"level":"info","ts":"2026-03-04T10:00:00Z","msg":"run_started","run_id":"r1"}`,
		`{"level":"info","ts":"2026-03-04T10:05:00Z","msg":"run_finished","run_id":"r1"}`,
	)

	w := doJSON(t, r, http.MethodGet, "/logs/session?date=2026-03-04&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	entry := body["entries"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "run_finished", entry["msg"])

	w = doJSON(t, r, http.MethodGet, "/logs/session/search?date=2026-03-04&q=started", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestGetLogs_BadInput(t *testing.T) {
	r, _ := newLogRouter(t)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/logs/bogus", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/logs/session?date=03-04-2026", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/logs/session/search", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/logs/bogus/export", nil).Code)
}

func TestGetLogs_MissingFileIsEmpty(t *testing.T) {
	r, _ := newLogRouter(t)
	w := doJSON(t, r, http.MethodGet, "/logs/error?date=2020-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestExportLogs_Engine(t *testing.T) {
	r, dir := newLogRouter(t)
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local)
	writeLog(t, dir, "engine", date, "=== [2026-03-04 10:00:00] Download: abc ===")

	w := doJSON(t, r, http.MethodGet, "/logs/engine/export?date=2026-03-04", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "engine-20260304.log")
	assert.Contains(t, w.Body.String(), "Download: abc")

	w = doJSON(t, r, http.MethodGet, "/logs/engine/export?date=2020-01-01", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
