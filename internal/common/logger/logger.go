package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init replaces the global logger. In debug mode records go to a console
// writer at debug level; otherwise they are JSON lines at info level.
func Init(serviceName string, debug bool) {
	log.Logger = New(os.Stdout, serviceName, debug)
	log.Info().Bool("debug", debug).Msg("Logger initialized")
}

// New builds a service logger writing to w.
func New(w io.Writer, serviceName string, debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.MessageFieldName = "message"

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
