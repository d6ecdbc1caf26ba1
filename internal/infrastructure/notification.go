package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/yourusername/media-fetch-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService sends desktop notifications about runs
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, appleScriptQuote(message), appleScriptQuote(title))
		if n.config.Sound {
			script += ` sound name "Glass"`
		}
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", "--app-name=mediafetch", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyRunStarted sends notification when a run starts
func (n *NotificationService) NotifyRunStarted(runID, locator string) {
	n.Send("Download Started", "Fetching: "+truncateString(locator, 40))
}

// NotifyRunFinished sends notification when a run reaches a terminal state
func (n *NotificationService) NotifyRunFinished(runID string, state domain.RunState, report *domain.BatchReport) {
	var title string
	switch state {
	case domain.RunCompleted:
		title = "Download Completed"
	case domain.RunStopped:
		title = "Download Stopped"
	default:
		title = "Download Failed"
	}

	message := "Run " + truncateString(runID, 8)
	if report != nil && report.Attempted > 0 {
		message = report.Summary()
	}
	n.Send(title, message)
}

// appleScriptQuote escapes a string for an AppleScript string literal
func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
