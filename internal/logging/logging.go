// Package logging holds the logger conventions shared by sift components.
//
// Loggers are injected, never global: each component takes an optional
// *slog.Logger, scopes it once with With("component", ...) at
// construction, and falls back to a discard logger when none is given.
// Handler configuration (format, level, destination) belongs in main.
//
// The lexer, parser and compiler do not log.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Default returns logger if non-nil, otherwise a discard logger:
//
//	func NewComponent(logger *slog.Logger) *Component {
//		logger = logging.Default(logger)
//		return &Component{logger: logger.With("component", "name")}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}

// NewText returns a text logger writing to w at debug level when
// verbose, info otherwise. A nil w writes to stderr.
func NewText(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
