package log

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Option configures NewLogger.
type Option func(*options)

type options struct {
	level slog.Level
	json  bool
}

// WithLevel sets the level used when verbose is false. The default is Warn.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithJSON switches the output to JSON.
func WithJSON() Option {
	return func(o *options) {
		o.json = true
	}
}

// NewLogger creates a redacting logger writing to w. Verbose forces Debug.
func NewLogger(w io.Writer, verbose bool, opts ...Option) *slog.Logger {
	o := options{level: slog.LevelWarn}
	for _, opt := range opts {
		opt(&o)
	}
	if verbose {
		o.level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}
	var handler slog.Handler
	if o.json {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(NewRedactingHandler(handler))
}

// Rotation limits for NewFileWriter.
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 28
)

// NewFileWriter returns a writer that appends to path and rotates it once
// it exceeds DefaultMaxSizeMB. Old files are compressed.
func NewFileWriter(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
		LocalTime:  true,
		Compress:   true,
	}
}
