package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Reader interface {
	Read() (*Config, error)
}

// EnvReader reads the config from the process environment, after
// loading the optional dotenv file into it. Variables already set in
// the environment win over the file.
type EnvReader struct {
	dotenvPath string
}

func NewEnvReader(dotenvPath string) EnvReader {
	return EnvReader{dotenvPath: dotenvPath}
}

func (r EnvReader) Read() (*Config, error) {
	if r.dotenvPath != "" {
		err := godotenv.Load(r.dotenvPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", r.dotenvPath, err)
		}
	}

	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
