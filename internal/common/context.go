package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID    contextKey = "run_id"
	ContextKeyStreamID contextKey = "stream_id"
)

// WithRunID adds an extraction run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithStreamID adds a document stream ID to the context
func WithStreamID(ctx context.Context, streamID string) context.Context {
	return context.WithValue(ctx, ContextKeyStreamID, streamID)
}

// StreamIDFromContext extracts the stream ID from context
func StreamIDFromContext(ctx context.Context) string {
	if streamID, ok := ctx.Value(ContextKeyStreamID).(string); ok {
		return streamID
	}
	return ""
}

// LoggerFrom decorates logger with the run and stream ids found in ctx.
func LoggerFrom(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := RunIDFromContext(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	if id := StreamIDFromContext(ctx); id != "" {
		logger = logger.With("stream_id", id)
	}
	return logger
}
