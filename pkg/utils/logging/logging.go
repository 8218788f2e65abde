package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

var (
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	mu            sync.RWMutex
)

type ctxLoggerKey struct{}

// Default returns the process-wide logger
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger. It is expected to be called once at startup.
func SetDefault(logger *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// With embeds logger into ctx
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger embedded in ctx, or the default logger
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}
