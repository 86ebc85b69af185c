// Package logging configures the pipeline's structured logger and provides
// stage-scoped child loggers: a zerolog console writer, one logger per
// run, with the per-stage logger taking the place a per-request logger
// would have in an HTTP service.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Init configures the package-level zerolog logger. Call once per process;
// safe to call multiple times (idempotent, last call wins).
func Init(verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

// NewLogger returns a console-writer logger tagged with a run identifier,
// so concurrent runs (if the caller fans them out) don't interleave in the
// output unlabeled.
func NewLogger(runID string) zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).With().Timestamp().Str("run", runID).Logger()
}

// Stage returns a child logger scoped to a pipeline stage, via the usual
// .With().Str(...).Logger() chaining.
func Stage(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("stage", name).Logger()
}

// Timed logs stage entry immediately and stage exit (with elapsed duration)
// when the returned func is deferred, e.g. `defer logging.Timed(l, "S5")()`.
func Timed(l zerolog.Logger, stage string) func() {
	start := time.Now()
	l.Debug().Str("stage", stage).Msg("stage started")
	return func() {
		l.Info().Str("stage", stage).Dur("elapsed", time.Since(start)).Msg("stage completed")
	}
}
