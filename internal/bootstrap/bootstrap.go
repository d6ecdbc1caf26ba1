// Package bootstrap wires configuration into a ready session: engine,
// binary lookup, run history and notifications.
package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/media-fetch-go/internal/app"
	"github.com/yourusername/media-fetch-go/internal/domain"
	"github.com/yourusername/media-fetch-go/internal/infrastructure"
	"github.com/yourusername/media-fetch-go/pkg/logger"
)

// RequiredBinaries must be locatable before a download can succeed
var RequiredBinaries = []string{infrastructure.YTDLPBinaryName, infrastructure.FFmpegBinaryName}

// Runtime holds the wired components
type Runtime struct {
	Config   *domain.Config
	Session  *app.Session
	Engine   *infrastructure.YTDLPEngine
	Binaries *infrastructure.PathLocator
	Hub      *app.ProgressHub

	repo *infrastructure.SQLiteRunRepository
}

// Options tweak the wiring for a particular entry point
type Options struct {
	// DisableHistory skips the run history database even when configured
	DisableHistory bool
}

// Build creates the runtime. The caller owns Close.
func Build(config *domain.Config, logAdapter *logger.LoggerAdapter, opts Options) (*Runtime, error) {
	if logAdapter == nil {
		logAdapter = logger.NewSingleLoggerAdapter(nil)
	}

	binaries := infrastructure.NewEngineBinaryLocator(&config.Engine)
	engine := infrastructure.NewYTDLPEngine(
		&config.Engine,
		&config.Logging,
		binaries,
		config.Download.StopGracePeriod,
		logAdapter,
	)
	hub := app.NewProgressHub(config.Progress.Interval, config.Progress.BufferSize)

	rt := &Runtime{
		Config:   config,
		Engine:   engine,
		Binaries: binaries,
		Hub:      hub,
	}

	// A nil interface, not a typed nil, keeps history queries reporting "disabled"
	var repo domain.RunRepository
	if config.History.Enabled && !opts.DisableHistory {
		r, err := infrastructure.NewSQLiteRunRepository(config.History.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize run history: %w", err)
		}
		rt.repo = r
		repo = r
	}

	notifier := infrastructure.NewNotificationService(&config.Notification, logAdapter.Session())

	rt.Session = app.NewSession(engine, hub, repo, notifier, logAdapter, config.Download.StopGracePeriod)

	logAdapter.Session().Debug("Runtime ready",
		zap.Bool("history", repo != nil),
		zap.String("ytdlp_binary", config.Engine.YTDLPBinary),
		zap.Duration("stop_grace_period", config.Download.StopGracePeriod))

	return rt, nil
}

// Close releases the history database
func (r *Runtime) Close() error {
	if r.repo == nil {
		return nil
	}
	return r.repo.Close()
}
