package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load fills cfg from the YAML file at path when it exists, then from the
// environment. Struct tags follow cleanenv (env, env-default, env-required).
func Load(path string, cfg any) error {
	const op = "config.Load"

	path = strings.TrimSpace(path)
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%s: config file does not exist: %s", op, path)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Usage describes every supported environment variable of cfg.
func Usage(cfg any) string {
	text, err := cleanenv.GetDescription(cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}

func String(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// ValidPort checks a TCP port value taken from key.
func ValidPort(key, v string) error {
	p, err := strconv.Atoi(v)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%s must be a valid TCP port (got %q)", key, v)
	}
	return nil
}
