package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{ name string }

var (
	loggerKey    = ctxKey{"logger"}
	requestIDKey = ctxKey{"request_id"}
)

// WithLogger stores logger in ctx. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// Ctx is FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithRequestID records the HTTP request ID in ctx and on its logger.
func WithRequestID(ctx context.Context, id string) context.Context {
	return with(context.WithValue(ctx, requestIDKey, id), func(c zerolog.Context) zerolog.Context {
		return c.Str("request_id", id)
	})
}

// RequestID returns the request ID stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithSourceFile tags the logger with the inventory file being processed.
func WithSourceFile(ctx context.Context, file string) context.Context {
	return withStr(ctx, "source_file", file)
}

// WithMachine tags the logger with a canonical machine name.
func WithMachine(ctx context.Context, name string) context.Context {
	return withStr(ctx, "machine", name)
}

// WithRun tags the logger with an analysis run ID.
func WithRun(ctx context.Context, runID string) context.Context {
	return withStr(ctx, "run_id", runID)
}

// WithSession tags the logger with an HTTP session ID.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return withStr(ctx, "session_id", sessionID)
}

// WithOperation tags the logger with the operation in progress.
func WithOperation(ctx context.Context, operation string) context.Context {
	return withStr(ctx, "operation", operation)
}

// WithError attaches err to the logger. A nil err returns ctx unchanged.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

// WithFields attaches arbitrary fields to the logger.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context {
		for k, v := range fields {
			switch v := v.(type) {
			case string:
				c = c.Str(k, v)
			case int:
				c = c.Int(k, v)
			case bool:
				c = c.Bool(k, v)
			case time.Time:
				c = c.Time(k, v)
			case time.Duration:
				c = c.Dur(k, v)
			case error:
				c = c.Str(k, v.Error())
			case fmt.Stringer:
				c = c.Stringer(k, v)
			default:
				c = c.Interface(k, v)
			}
		}
		return c
	})
}

func withStr(ctx context.Context, key, value string) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str(key, value) })
}

func with(ctx context.Context, fn func(zerolog.Context) zerolog.Context) context.Context {
	logger := fn(FromContext(ctx).With()).Logger()
	return WithLogger(ctx, &logger)
}
