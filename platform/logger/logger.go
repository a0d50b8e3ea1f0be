// Package logger is the structured logger shared by every module: a thin
// slog wrapper with one helper per recurring log event.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type contextKey string

const requestIDKey contextKey = "request_id"

type Logger struct {
	*slog.Logger
}

// New logs text at debug level in development and JSON at info level
// everywhere else.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger writing to w. Tests use it with io.Discard.
func NewWithWriter(env string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// ContextWithRequestID stores the request id picked up by WithContext.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithContext tags the logger with the request id carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.WithRequestID(id)
	}
	return l
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.With(slog.String("request_id", requestID))}
}

func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{Logger: l.With(slog.String("user_id", userID))}
}

// HTTPRequest is one served request as recorded by the access log.
type HTTPRequest struct {
	Method   string
	Route    string
	Status   int
	Latency  time.Duration
	ClientIP string
	Err      error
}

// Request writes the access log line. Handler errors and 5xx answers log at
// error level, 4xx at warn, everything else at info.
func (l *Logger) Request(r HTTPRequest) {
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("route", r.Route),
		slog.Int("status", r.Status),
		slog.Int64("latency_ms", r.Latency.Milliseconds()),
		slog.String("client_ip", r.ClientIP),
	}
	switch {
	case r.Err != nil || r.Status >= 500:
		if r.Err != nil {
			attrs = append(attrs, slog.String("error", r.Err.Error()))
		}
		l.Error("http_request", attrs...)
	case r.Status >= 400:
		l.Warn("http_request", attrs...)
	default:
		l.Info("http_request", attrs...)
	}
}

// AutomationFailure logs a failed best-effort side effect of a deal
// recomputation. The primary update has already been committed.
func (l *Logger) AutomationFailure(dealID, step string, err error) {
	l.Warn("automation_failure",
		slog.String("deal_id", dealID),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
}

// DealScored logs the outcome of a recomputation.
func (l *Logger) DealScored(dealID string, score int, temperature, stage string, tasks int) {
	l.Info("deal_scored",
		slog.String("deal_id", dealID),
		slog.Int("score", score),
		slog.String("temperature", temperature),
		slog.String("stage", stage),
		slog.Int("tasks_generated", tasks),
	)
}

func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
