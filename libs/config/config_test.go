package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sample struct {
	Port     string        `yaml:"port" env:"PORT" env-default:"8080"`
	Storage  string        `yaml:"storage" env:"STORAGE" env-default:"memory"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL" env-default:"5s"`
}

func TestLoad_EnvDefaults(t *testing.T) {
	t.Setenv("STORAGE", "postgres")
	var cfg sample
	if err := Load("", &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Storage != "postgres" || cfg.Interval != 5*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"9090\"\ninterval: 1m\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var cfg sample
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.Interval != time.Minute {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidPort(t *testing.T) {
	for _, v := range []string{"0", "70000", "http", ""} {
		if err := ValidPort("PORT", v); err == nil {
			t.Fatalf("expected invalid port error for %q", v)
		}
	}
	if err := ValidPort("PORT", "8080"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
