package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8090, config.Server.Port)
	assert.Equal(t, "720p", config.Download.DefaultResolution)
	assert.Equal(t, "m4a", config.Download.AudioCodec)
	assert.Equal(t, 192, config.Download.AudioBitrate)
	assert.Equal(t, "mp4", config.Download.MergeContainer)
	assert.Equal(t, time.Second, config.Download.StopGracePeriod)
	assert.Equal(t, "yt-dlp", config.Engine.YTDLPBinary)
	assert.Equal(t, 5, config.Engine.ConcurrentFragments)
	assert.Equal(t, 10, config.Engine.Retries)
	assert.True(t, config.History.Enabled)
	assert.False(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestLoggingConfig_EngineLogPath(t *testing.T) {
	cfg := LoggingConfig{LogsDir: "/var/log/mediafetch"}
	day := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "/var/log/mediafetch/engine-20240309.log", cfg.EngineLogPath(day))
}
