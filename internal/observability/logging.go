// Package observability provides logging, metrics, and tracing helpers.
package observability

import (
	"context"
	"log/slog"
)

// RepoLogger provides structured logging for repository writes.
type RepoLogger struct {
	tableName string
	logger    *slog.Logger
}

// NewRepoLogger creates a new RepoLogger for the given table. A nil logger
// falls back to slog.Default.
func NewRepoLogger(tableName string, logger *slog.Logger) *RepoLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepoLogger{tableName: tableName, logger: logger}
}

func (l *RepoLogger) log(ctx context.Context, operation string, attrs []slog.Attr) {
	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("table", l.tableName), slog.String("operation", operation))
	for _, a := range attrs {
		args = append(args, a)
	}
	l.logger.DebugContext(ctx, "repository "+operation, args...)
}

// LogCreate logs a repository create operation.
func (l *RepoLogger) LogCreate(ctx context.Context, attrs ...slog.Attr) {
	l.log(ctx, "create", attrs)
}

// LogUpdate logs a repository update operation.
func (l *RepoLogger) LogUpdate(ctx context.Context, attrs ...slog.Attr) {
	l.log(ctx, "update", attrs)
}

// LogDelete logs a repository delete operation.
func (l *RepoLogger) LogDelete(ctx context.Context, attrs ...slog.Attr) {
	l.log(ctx, "delete", attrs)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
