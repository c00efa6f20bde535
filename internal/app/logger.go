package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/task-tracker/internal/config"
)

const serviceName = "task-tracker"

var globalLogger zerolog.Logger

func InitDefaultLogger() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"
	zerolog.DurationFieldUnit = time.Millisecond

	globalLogger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Int("pid", os.Getpid()).
		Logger()

	globalLogger.Info().Msg("initialized default logger")
}

// MustInitApplicationLogger picks the level and output format for the
// configured env. Local runs get a human-readable console writer with
// caller info.
func MustInitApplicationLogger() {
	cfg := config.Global()

	w := io.Writer(os.Stdout)
	logger := globalLogger
	switch cfg.Env {
	case config.EnvDev:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case config.EnvProd:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case config.EnvLocal:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = os.Stdout
		w = consoleWriter
		logger = logger.With().Caller().Logger()
	default:
		globalLogger.Error().
			Str("env", cfg.Env).
			Msg("unknown env")
		panic(fmt.Errorf("unknown env: %s", cfg.Env))
	}

	globalLogger = logger.Output(w).
		With().
		Str("env", cfg.Env).
		Logger()
	globalLogger.Info().Msg("initialized application logger")
}

func componentLogger(component string) zerolog.Logger {
	return globalLogger.With().
		Str("component", component).
		Logger()
}
