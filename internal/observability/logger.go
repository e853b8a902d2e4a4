package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger. Init replaces it.
var Logger = log.Logger

// LogConfig configures the process logger
type LogConfig struct {
	Level        string `json:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format       string `json:"format" validate:"omitempty,oneof=json pretty"`
	TimeFormat   string `json:"time_format"`
	ReportCaller bool   `json:"report_caller"`
}

// Init builds the process logger from cfg and installs it as the zerolog
// global. An unknown level falls back to info.
func Init(cfg LogConfig) zerolog.Logger {
	return InitWriter(cfg, os.Stdout)
}

// InitWriter is Init with an explicit destination.
func InitWriter(cfg LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	output := out
	if cfg.Format == "pretty" {
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	}

	ctx := zerolog.New(output).Level(level).With().Timestamp()
	if cfg.ReportCaller {
		ctx = ctx.Caller()
	}

	Logger = ctx.Logger()
	log.Logger = Logger
	return Logger
}

// Component returns a child of the process logger tagged with name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
