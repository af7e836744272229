package coffea

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with analysis-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDataset adds a dataset field to the logger.
func (l *Logger) WithDataset(dataset string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", dataset),
	}
}

// WithChunk adds file and entry range fields to the logger.
func (l *Logger) WithChunk(filename string, start, stop int) *Logger {
	return &Logger{
		Logger: l.Logger.With("file", filename, "entry_start", start, "entry_stop", stop),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogChunk logs the processing of one chunk of events.
func (l *Logger) LogChunk(ctx context.Context, dataset string, events int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "chunk failed",
			"dataset", dataset,
			"events", events,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "chunk processed",
			"dataset", dataset,
			"events", events,
			"elapsed", elapsed,
		)
	}
}

// LogMerge logs the result of folding partial outputs together.
func (l *Logger) LogMerge(ctx context.Context, inputs int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"inputs", inputs,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "merge completed",
			"inputs", inputs,
		)
	}
}

// LogRun logs the completion of a full run over a fileset.
func (l *Logger) LogRun(ctx context.Context, chunks, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "run completed with failures",
			"chunks", chunks,
			"failed", failed,
		)
	} else {
		l.InfoContext(ctx, "run completed",
			"chunks", chunks,
		)
	}
}

// LogSave logs an output save operation.
func (l *Logger) LogSave(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "output saved",
			"name", name,
			"bytes", size,
		)
	}
}

// LogLoad logs an output load operation.
func (l *Logger) LogLoad(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "output loaded",
			"name", name,
		)
	}
}
