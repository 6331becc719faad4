// Package logging builds the zerolog logger shared by the CLI commands.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/books/internal/config"
)

// New returns a JSON logger on stderr at cfg.Level (info when empty). With
// cfg.Pretty set it writes human-readable console lines instead.
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(w io.Writer, cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	log := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	if cfg.Pretty {
		log = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true})
	}
	return log
}
