// Package logging builds the zerolog loggers shared by the engine, the
// stores and the HTTP server.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Field names used across the engine logs.
const (
	SessionKey string = "session"
	PlayerKey  string = "player"
	PhaseKey   string = "phase"
	CircuitKey string = "circuit"
	RequestKey string = "requestID"
)

// GetZeroLogger returns a logger tagged with name. Console output is human
// readable; otherwise every line is a JSON object.
func GetZeroLogger(name string, out io.Writer, console bool) *zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).With().Timestamp().Str("logger", name).Logger()
	return &logger
}

// SetLevel parses level ("debug", "info", ...) and applies it globally.
func SetLevel(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(l)
	return nil
}

// Nop is a disabled logger for tests and library defaults.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
