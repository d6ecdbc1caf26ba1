package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/media-fetch-go/internal/domain"
)

// EnvPrefix is the prefix of environment overrides, e.g. MEDIAFETCH_SERVER_PORT
const EnvPrefix = "MEDIAFETCH"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	bindDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.mediafetch")
		v.AddConfigPath("/etc/mediafetch")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindDefaults registers every key so AutomaticEnv can override keys absent from the file
func bindDefaults(v *viper.Viper, c *domain.Config) {
	v.SetDefault("server.host", c.Server.Host)
	v.SetDefault("server.port", c.Server.Port)

	v.SetDefault("download.output_dir", c.Download.OutputDir)
	v.SetDefault("download.default_resolution", c.Download.DefaultResolution)
	v.SetDefault("download.audio_codec", c.Download.AudioCodec)
	v.SetDefault("download.audio_bitrate", c.Download.AudioBitrate)
	v.SetDefault("download.merge_container", c.Download.MergeContainer)
	v.SetDefault("download.stop_grace_period", c.Download.StopGracePeriod)

	v.SetDefault("engine.ytdlp_binary", c.Engine.YTDLPBinary)
	v.SetDefault("engine.ffmpeg_binary", c.Engine.FFmpegBinary)
	v.SetDefault("engine.concurrent_fragments", c.Engine.ConcurrentFragments)
	v.SetDefault("engine.retries", c.Engine.Retries)
	v.SetDefault("engine.fragment_retries", c.Engine.FragmentRetries)

	v.SetDefault("progress.interval", c.Progress.Interval)
	v.SetDefault("progress.buffer_size", c.Progress.BufferSize)

	v.SetDefault("history.enabled", c.History.Enabled)
	v.SetDefault("history.database_path", c.History.DatabasePath)

	v.SetDefault("notification.enabled", c.Notification.Enabled)
	v.SetDefault("notification.sound", c.Notification.Sound)
	v.SetDefault("notification.method", c.Notification.Method)

	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)
	v.SetDefault("logging.output_path", c.Logging.OutputPath)
	v.SetDefault("logging.logs_dir", c.Logging.LogsDir)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.OutputDir = ExpandPath(config.Download.OutputDir)
	config.History.DatabasePath = ExpandPath(config.History.DatabasePath)
	config.Logging.LogsDir = ExpandPath(config.Logging.LogsDir)
	config.Engine.YTDLPBinary = ExpandPath(config.Engine.YTDLPBinary)
	config.Engine.FFmpegBinary = ExpandPath(config.Engine.FFmpegBinary)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = ExpandPath(config.Logging.OutputPath)
	}

	return config
}

// ExpandPath expands environment variables and a leading ~ in paths
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}
	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.OutputDir == "" {
		return fmt.Errorf("download output directory not configured")
	}

	if _, err := domain.ParseResolution(config.Download.DefaultResolution); err != nil {
		return fmt.Errorf("download default resolution: %w", err)
	}

	if !domain.ValidateAudioCodec(strings.ToLower(config.Download.AudioCodec)) {
		return fmt.Errorf("unsupported audio codec: %s", config.Download.AudioCodec)
	}

	if !domain.ValidateAudioBitrate(config.Download.AudioBitrate) {
		return fmt.Errorf("unsupported audio bitrate: %d", config.Download.AudioBitrate)
	}

	if config.Download.StopGracePeriod <= 0 {
		return fmt.Errorf("stop grace period must be positive")
	}

	if config.Engine.YTDLPBinary == "" {
		return fmt.Errorf("engine binary not configured")
	}

	if config.Engine.Retries < 0 || config.Engine.FragmentRetries < 0 {
		return fmt.Errorf("retries cannot be negative")
	}

	if config.Engine.ConcurrentFragments < 1 {
		return fmt.Errorf("concurrent fragments must be at least 1")
	}

	if config.Progress.Interval < 0 {
		return fmt.Errorf("progress interval cannot be negative")
	}

	if config.Progress.BufferSize < 1 {
		config.Progress.BufferSize = 1
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("server", map[string]interface{}{
		"host": config.Server.Host,
		"port": config.Server.Port,
	})
	v.Set("download", map[string]interface{}{
		"output_dir":         config.Download.OutputDir,
		"default_resolution": config.Download.DefaultResolution,
		"audio_codec":        config.Download.AudioCodec,
		"audio_bitrate":      config.Download.AudioBitrate,
		"merge_container":    config.Download.MergeContainer,
		"stop_grace_period":  config.Download.StopGracePeriod.String(),
	})
	v.Set("engine", map[string]interface{}{
		"ytdlp_binary":         config.Engine.YTDLPBinary,
		"ffmpeg_binary":        config.Engine.FFmpegBinary,
		"concurrent_fragments": config.Engine.ConcurrentFragments,
		"retries":              config.Engine.Retries,
		"fragment_retries":     config.Engine.FragmentRetries,
	})
	v.Set("progress", map[string]interface{}{
		"interval":    config.Progress.Interval.String(),
		"buffer_size": config.Progress.BufferSize,
	})
	v.Set("history", map[string]interface{}{
		"enabled":       config.History.Enabled,
		"database_path": config.History.DatabasePath,
	})
	v.Set("notification", map[string]interface{}{
		"enabled": config.Notification.Enabled,
		"sound":   config.Notification.Sound,
		"method":  config.Notification.Method,
	})
	v.Set("logging", map[string]interface{}{
		"level":       config.Logging.Level,
		"format":      config.Logging.Format,
		"output_path": config.Logging.OutputPath,
		"logs_dir":    config.Logging.LogsDir,
	})

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
