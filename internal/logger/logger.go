package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a text logger writing to w.
func New(w io.Writer, debug bool, showSource bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: showSource,
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetupGlobal installs the default logger. Logs go to stderr so command
// output on stdout stays clean.
func SetupGlobal(debug bool, showSource bool) {
	slog.SetDefault(New(os.Stderr, debug, showSource))
}
