package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/dkeye/WatchParty/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger.
func Init(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = New(os.Stderr, cfg)
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
}

func New(out io.Writer, cfg config.LogConfig) zerolog.Logger {
	w := out
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
