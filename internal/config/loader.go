package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// PathEnv names the variable holding an explicit config file path.
const PathEnv = "LISTKEEPER_CONFIG"

const defaultPath = "./listkeeper.yaml"

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// path wins over LISTKEEPER_CONFIG, which wins over ./listkeeper.yaml.
// A missing default file means ENV + defaults only; a missing explicit
// file is an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	explicitPath := path != ""
	if !explicitPath {
		path = defaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}
