// Package logger wraps zerolog with fields carried on the request context.
package logger

import (
	"context"
	"errors"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/flashmarket/storefront/pkg/env"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger. An empty Format falls back to
// LOG_FORMAT, then JSON.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Format      string
	Output      io.Writer
}

// Logger writes leveled entries enriched with whatever fields the context
// carries.
type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

type (
	entryKey     struct{}
	requestIDKey struct{}
)

var timeFormatOnce sync.Once

func New(opts Options) *Logger {
	timeFormatOnce.Do(func() { zerolog.TimeFieldFormat = time.RFC3339Nano })

	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = env.Get("LOG_FORMAT", FormatJSON)
	}
	if format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	base := zerolog.New(out).
		Level(opts.Level).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()
	return &Logger{base: base, warnStack: opts.WarnStack}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// RequestID returns the id stored by WithRequestID, if any.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (l *Logger) entry(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if e, ok := ctx.Value(entryKey{}).(zerolog.Logger); ok {
			return e
		}
	}
	return l.base
}

func withEntry(ctx context.Context, e zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, entryKey{}, e)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	e := l.entry(ctx)
	return withEntry(ctx, e.With().Interface(key, value).Logger())
}

// WithFields adds every field in key order so entries are stable across runs.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	if len(fields) == 0 {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	e := l.entry(ctx)
	b := e.With()
	for _, k := range keys {
		b = b.Interface(k, fields[k])
	}
	return withEntry(ctx, b.Logger())
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = l.WithField(ctx, "request_id", requestID)
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func (l *Logger) WithSessionID(ctx context.Context, sessionID string) context.Context {
	return l.WithField(ctx, "session_id", sessionID)
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	return l.WithField(ctx, "user_id", userID)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	e := l.entry(ctx)
	e.Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	e := l.entry(ctx)
	e.Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	e := l.entry(ctx)
	ev := e.Warn()
	if l.warnStack {
		ev = ev.Str("stack", stackTrace())
	}
	ev.Msg(msg)
}

// Error logs err with a stack trace. A cancelled context is the caller going
// away rather than a fault, so it is logged at warn without a stack.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	e := l.entry(ctx)
	if errors.Is(err, context.Canceled) {
		e.Warn().Err(err).Msg(msg)
		return
	}
	ev := e.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
