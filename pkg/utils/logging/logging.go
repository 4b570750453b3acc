package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

var (
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	defaultMutex  sync.RWMutex
)

// Default returns the process-wide logger. It discards output until SetDefault is called.
func Default() *slog.Logger {
	defaultMutex.RLock()
	defer defaultMutex.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(logger *slog.Logger) {
	defaultMutex.Lock()
	defer defaultMutex.Unlock()
	defaultLogger = logger
}

type ctxLoggerKey struct{}

// With returns a context carrying logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger stored in ctx, or Default() when none is set
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// ErrAttr builds an "error" attribute. goerr values are expanded so that they
// appear as structured fields instead of a flat string.
func ErrAttr(err error) slog.Attr {
	if err == nil {
		return slog.Any("error", nil)
	}

	var ge *goerr.Error
	if errors.As(err, &ge) {
		attrs := []any{slog.String("message", err.Error())}
		if values := ge.Values(); len(values) > 0 {
			attrs = append(attrs, slog.Any("values", values))
		}
		return slog.Group("error", attrs...)
	}

	return slog.String("error", err.Error())
}
