package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter routes session and error events either to the categorised
// files of a MultiLogger (server) or to a single process logger (headless CLI).
type LoggerAdapter struct {
	multiLogger  *MultiLogger
	singleLogger *zap.Logger
}

// NewLoggerAdapter creates an adapter over a multi-logger
func NewLoggerAdapter(multiLogger *MultiLogger) *LoggerAdapter {
	return &LoggerAdapter{multiLogger: multiLogger}
}

// NewSingleLoggerAdapter creates an adapter that sends every category to one logger
func NewSingleLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerAdapter{singleLogger: logger}
}

// Session returns the session lifecycle logger
func (la *LoggerAdapter) Session() *zap.Logger {
	if la.multiLogger != nil {
		return la.multiLogger.Session()
	}
	return la.singleLogger
}

// Error returns the error logger
func (la *LoggerAdapter) Error() *zap.Logger {
	if la.multiLogger != nil {
		return la.multiLogger.Error()
	}
	return la.singleLogger
}

// LogSessionEvent logs a run lifecycle event
func (la *LoggerAdapter) LogSessionEvent(event string, fields ...zap.Field) {
	la.Session().Info(event, fields...)
}

// LogAppError logs an application-level error
func (la *LoggerAdapter) LogAppError(msg string, fields ...zap.Field) {
	la.Error().Error(msg, fields...)
}

// Sync flushes all loggers
func (la *LoggerAdapter) Sync() error {
	if la.multiLogger != nil {
		return la.multiLogger.Sync()
	}
	return la.singleLogger.Sync()
}

// GetMultiLogger returns the underlying multi-logger, nil in single mode
func (la *LoggerAdapter) GetMultiLogger() *MultiLogger {
	return la.multiLogger
}
