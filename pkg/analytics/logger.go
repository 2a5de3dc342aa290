package analytics

import (
	"context"
	"log/slog"
)

// analyticsLogger prepends "[Analytics]" to all messages.
type analyticsLogger struct {
	logger *slog.Logger
}

func newAnalyticsLogger(logger *slog.Logger) *analyticsLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &analyticsLogger{logger: logger}
}

func (l *analyticsLogger) Debug(msg string, args ...any) {
	l.logger.Debug("[Analytics] "+msg, args...)
}

func (l *analyticsLogger) Info(msg string, args ...any) {
	l.logger.Info("[Analytics] "+msg, args...)
}

func (l *analyticsLogger) Warn(msg string, args ...any) {
	l.logger.Warn("[Analytics] "+msg, args...)
}

func (l *analyticsLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.logger.Enabled(ctx, level)
}
