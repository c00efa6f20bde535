package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvReaderDefaults(t *testing.T) {
	t.Setenv("ENV", EnvLocal)
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("STORAGE_DRIVER", DriverSQLite)

	cfg, err := NewEnvReader("").Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.JWT.AccessTokenTTL != 30*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 30m", cfg.JWT.AccessTokenTTL)
	}
	if cfg.JWT.Issuer != "task-tracker" {
		t.Errorf("Issuer = %q", cfg.JWT.Issuer)
	}
	if cfg.HTTP.Port != "8000" || cfg.SQLite.Path != "tasks.db" {
		t.Errorf("defaults = %+v %+v", cfg.HTTP, cfg.SQLite)
	}
}

func TestEnvReaderDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "JWT_SIGNING_KEY=from-file\nSTORAGE_DRIVER=sqlite\nSQLITE_PATH=/tmp/file.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("ENV", EnvDev)
	// t.Setenv restores the variables godotenv sets during the test.
	t.Setenv("JWT_SIGNING_KEY", "")
	os.Unsetenv("JWT_SIGNING_KEY")
	t.Setenv("STORAGE_DRIVER", "")
	os.Unsetenv("STORAGE_DRIVER")
	t.Setenv("SQLITE_PATH", "/tmp/env.db")

	cfg, err := NewEnvReader(path).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.JWT.SigningKey != "from-file" || cfg.Storage.Driver != DriverSQLite {
		t.Errorf("dotenv values not loaded: %+v", cfg)
	}
	if cfg.SQLite.Path != "/tmp/env.db" {
		t.Errorf("SQLite.Path = %q, environment should win over the file", cfg.SQLite.Path)
	}
}

func TestEnvReaderMissingDotenv(t *testing.T) {
	t.Setenv("ENV", EnvProd)
	t.Setenv("JWT_SIGNING_KEY", "secret")

	_, err := NewEnvReader(filepath.Join(t.TempDir(), "missing.env")).Read()
	if err != nil {
		t.Errorf("Read with missing dotenv = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:      EnvProd,
			JWT:      JWTConfig{SigningKey: "k", AccessTokenTTL: time.Minute},
			Storage:  StorageConfig{Driver: DriverPostgres},
			Postgres: PostgresConfig{Host: "db", Database: "tasks"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown env", func(c *Config) { c.Env = "staging" }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Storage.Driver = DriverSQLite }},
		{"zero ttl", func(c *Config) { c.JWT.AccessTokenTTL = 0 }},
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate(valid) = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate = nil, want error")
			}
		})
	}
}
