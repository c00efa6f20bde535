package config

import (
	"fmt"
	"time"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Postgres PostgresConfig
	SQLite   SQLiteConfig
}

type HTTPConfig struct {
	Host              string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port              string        `env:"HTTP_PORT" env-default:"8000"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type JWTConfig struct {
	Issuer         string        `env:"JWT_ISSUER" env-default:"task-tracker"`
	SigningKey     string        `env:"JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"30m"`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" env-default:"postgres"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-default:"localhost"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-default:"postgres"`
	Password       string        `env:"POSTGRES_PASSWORD"`
	Database       string        `env:"POSTGRES_DATABASE" env-default:"tasks"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type SQLiteConfig struct {
	Path     string `env:"SQLITE_PATH" env-default:"tasks.db"`
	PoolSize int    `env:"SQLITE_POOL_SIZE" env-default:"0"`
}

// Validate checks the values cleanenv cannot express with tags.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		return fmt.Errorf("unknown env: %q", c.Env)
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Postgres.Host == "" || c.Postgres.Database == "" {
			return fmt.Errorf("postgres host and database are required")
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}

	if c.JWT.AccessTokenTTL <= 0 {
		return fmt.Errorf("jwt access token ttl must be positive")
	}
	return nil
}
