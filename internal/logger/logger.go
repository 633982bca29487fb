package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

const sentryFlushTimeout = 2 * time.Second

// Options configures the process logger.
type Options struct {
	Dev       bool
	Level     string
	ErrorFile string // error-level records are also appended here; empty disables
	SentryDSN string

	// Stdout defaults to os.Stdout.
	Stdout io.Writer
}

// New builds a logger from opts. The returned close func flushes Sentry and
// closes the error file.
//
// Development: text on stdout. Otherwise JSON.
func New(opts Options) (*slog.Logger, func(), error) {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	level := parseLevel(opts.Level)

	var handlers []slog.Handler
	closers := []func(){}

	if opts.Dev {
		handlers = append(handlers, slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	}

	if opts.ErrorFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.ErrorFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logger: create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.ErrorFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logger: open %s: %w", opts.ErrorFile, err)
		}
		closers = append(closers, func() { _ = f.Close() })
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelError}))
	}

	// Sentry only receives errors; a bad DSN is not fatal.
	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{Dsn: opts.SentryDSN})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
			closers = append(closers, func() { sentry.Flush(sentryFlushTimeout) })
		} else {
			fmt.Fprintf(out, "sentry disabled: %v\n", err)
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return slog.New(handler), closeAll, nil
}

// Init builds the logger and installs it as slog's default.
func Init(opts Options) (func(), error) {
	l, closeFn, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return closeFn, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
