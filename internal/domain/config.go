package domain

import (
	"path/filepath"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Progress     ProgressConfig     `mapstructure:"progress"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains HTTP control server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains defaults applied to download requests
type DownloadConfig struct {
	OutputDir         string        `mapstructure:"output_dir"`
	DefaultResolution string        `mapstructure:"default_resolution"`
	AudioCodec        string        `mapstructure:"audio_codec"`
	AudioBitrate      int           `mapstructure:"audio_bitrate"` // kbps
	MergeContainer    string        `mapstructure:"merge_container"`
	StopGracePeriod   time.Duration `mapstructure:"stop_grace_period"`
}

// EngineConfig contains settings for the external extraction engine (yt-dlp + ffmpeg)
type EngineConfig struct {
	YTDLPBinary         string `mapstructure:"ytdlp_binary"`
	FFmpegBinary        string `mapstructure:"ffmpeg_binary"` // empty: locate at first use
	ConcurrentFragments int    `mapstructure:"concurrent_fragments"`
	Retries             int    `mapstructure:"retries"`
	FragmentRetries     int    `mapstructure:"fragment_retries"`
}

// ProgressConfig controls progress fan-out
type ProgressConfig struct {
	Interval   time.Duration `mapstructure:"interval"`    // min spacing of determinate events, 0 = unthrottled
	BufferSize int           `mapstructure:"buffer_size"` // per-subscriber channel capacity
}

// HistoryConfig controls the run history database
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // categorised session/error/engine logs
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Download: DownloadConfig{
			OutputDir:         "$HOME/Downloads/mediafetch",
			DefaultResolution: "720p",
			AudioCodec:        "m4a",
			AudioBitrate:      192,
			MergeContainer:    "mp4",
			StopGracePeriod:   time.Second,
		},
		Engine: EngineConfig{
			YTDLPBinary:         "yt-dlp",
			FFmpegBinary:        "",
			ConcurrentFragments: 5,
			Retries:             10,
			FragmentRetries:     10,
		},
		Progress: ProgressConfig{
			Interval:   250 * time.Millisecond,
			BufferSize: 64,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.mediafetch/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
			LogsDir:    "$HOME/.mediafetch/logs",
		},
	}
}

// EngineLogPath returns the daily raw engine output log inside the logs directory
func (c LoggingConfig) EngineLogPath(now time.Time) string {
	return filepath.Join(c.LogsDir, "engine-"+now.Format("20060102")+".log")
}
