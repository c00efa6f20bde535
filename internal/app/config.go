package app

import (
	"github.com/adanyl0v/task-tracker/internal/config"
)

func MustReadEnv(dotenvPath string) {
	cfg, err := config.NewEnvReader(dotenvPath).Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("storage_driver", cfg.Storage.Driver).
		Msg("read env")

	config.SetGlobal(cfg)
}
