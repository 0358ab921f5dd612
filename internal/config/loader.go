package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultPath = "./config.yaml"

// Load builds the configuration from an optional YAML file, environment
// variables and env-default tags, in that order of precedence from low to
// high: defaults < YAML < ENV. It then runs Validate.
//
// The file is path, else $CONFIG_PATH, else ./config.yaml. A missing file is
// an error only when it was named explicitly.
func Load(path string) (*Config, error) {
	path, explicit := resolvePath(path)

	var cfg Config
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case explicit || !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("config: file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func resolvePath(path string) (string, bool) {
	if p := strings.TrimSpace(path); p != "" {
		return p, true
	}
	if p := strings.TrimSpace(os.Getenv("CONFIG_PATH")); p != "" {
		return p, true
	}
	return defaultPath, false
}
