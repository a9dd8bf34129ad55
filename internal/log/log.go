// Package log adapts the core's zerolog setup: a console-writer bootstrap
// for cmd/regimescope plus a small per-component logger helper, and (in
// progress.go) the CLI's spinner/progress-bar feedback for long-running
// subcommands.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure sets zerolog's global level and writer. In dev mode it swaps in
// a human-readable console writer; otherwise it emits structured JSON to
// w (or os.Stderr if w is nil), matching cmd/cryptorun's bootstrap idiom.
func Configure(level string, dev bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if dev {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// NewComponentLogger returns a logger tagged with a "component" field,
// generalizing the inline log.With().Str(...) pattern used throughout the
// core's packages (e.g. internal/provider's per-request logger) into a
// single entry point for the CLI and HTTP surfaces.
func NewComponentLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
