package app

import (
	"context"
	"fmt"
	"time"

	"github.com/adanyl0v/task-tracker/internal/config"
	"github.com/adanyl0v/task-tracker/internal/storage"
	"github.com/adanyl0v/task-tracker/internal/storage/postgres"
	"github.com/adanyl0v/task-tracker/internal/storage/sqlite"
)

const migrateTimeout = 30 * time.Second

var globalStore storage.Store

// MustOpenStorage opens the backend selected by STORAGE_DRIVER.
func MustOpenStorage() {
	cfg := config.Global()
	logger := componentLogger("storage").With().
		Str("driver", cfg.Storage.Driver).
		Logger()

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		globalStore = postgres.New(logger, mustConnectPostgres())
	case config.DriverSQLite:
		store, err := sqlite.Open(logger, sqlite.Config{
			Path:     cfg.SQLite.Path,
			PoolSize: cfg.SQLite.PoolSize,
		})
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("failed to open sqlite")
			panic(err)
		}
		globalStore = store
	default:
		err := fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
		globalLogger.Error().
			Err(err).
			Msg("failed to open storage")
		panic(err)
	}
}

func MustMigrateStorage() {
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	err := globalStore.Migrate(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to migrate storage")
		panic(err)
	}
}

func CloseStorage() {
	err := globalStore.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close storage")
		return
	}
	globalLogger.Info().Msg("closed storage")
}
