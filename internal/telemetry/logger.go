package telemetry

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Console format is human readable,
// json emits one object per line. out defaults to stderr.
func NewLogger(cfg model.LoggingConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	writer := out
	if cfg.Format != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.TimeOnly,
		}
	}

	return zerolog.New(writer).
		Level(parseLogLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
