package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
)

type Logger struct {
	*slog.Logger
}

type options struct {
	level  slog.Level
	json   bool
	writer io.Writer
}

type Option func(*options)

func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithFormat picks the record format, "text" or "json".
func WithFormat(format string) Option {
	return func(o *options) {
		o.json = format == "json"
	}
}

func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

func New(opts ...Option) *Logger {
	o := options{
		level:  slog.LevelInfo,
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(&o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}

	var h slog.Handler = slog.NewTextHandler(o.writer, handlerOpts)
	if o.json {
		h = slog.NewJSONHandler(o.writer, handlerOpts)
	}

	return &Logger{Logger: slog.New(h)}
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return l, fmt.Errorf("parse log level %q: %w", s, err)
	}

	return l, nil
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// NewMiddleware attaches a per-request child of base, tagged with a fresh
// request id, to the request context.
func NewMiddleware(base *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := uuid.NewString()
			w.Header().Set("X-Request-Id", reqID)

			l := base.With("request_id", reqID, "method", r.Method, "path", r.URL.Path)
			ctx := NewContext(r.Context(), l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type loggerContextKey string

const contextKeyValue loggerContextKey = "context-logger"

func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKeyValue, l)
}

func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(contextKeyValue).(*Logger); ok {
		return l
	}

	return New()
}
