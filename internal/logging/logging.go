// Package logging builds the zerolog loggers used by the server, bot and
// turn flow.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config level name to a zerolog level; unknown names are INFO.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

type Options struct {
	Level   string
	Console bool
	// Out defaults to stdout.
	Out io.Writer
}

// New returns a timestamped logger tagged with component.
func New(component string, opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: out != os.Stdout}
	}
	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// Sampled thins high-frequency events such as pointer moves: a short burst
// passes, then one in every n.
func Sampled(l zerolog.Logger, n uint32) zerolog.Logger {
	return l.Sample(&zerolog.BurstSampler{
		Burst:       5,
		Period:      time.Second,
		NextSampler: &zerolog.BasicSampler{N: n},
	})
}

// Nop discards everything; used when a caller passes no logger.
func Nop() zerolog.Logger { return zerolog.Nop() }
