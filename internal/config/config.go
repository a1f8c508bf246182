package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all sidecar configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Model    ModelConfig    `toml:"model"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ModelConfig holds the HLR hyperparameters. Defaults are the values
// from Settles & Meeder (2016).
type ModelConfig struct {
	LearningRate float64 `toml:"learning_rate"`
	HLWeight     float64 `toml:"hl_weight"`
	L2Weight     float64 `toml:"l2_weight"`
	Sigma        float64 `toml:"sigma"`
	OmitHTerm    bool    `toml:"omit_h_term"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 8020,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Model: ModelConfig{
			LearningRate: 0.001,
			HLWeight:     0.01,
			L2Weight:     0.1,
			Sigma:        1.0,
			OmitHTerm:    false,
		},
	}
}

// Load reads configuration: defaults, then the TOML file at path (if path
// is non-empty and the file exists), then HLR_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays HLR_* environment variables onto the config.
func (c *Config) applyEnv() error {
	if v := os.Getenv("HLR_BIND"); v != "" {
		c.Server.Bind = v
	}
	if v := os.Getenv("HLR_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("HLR_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HLR_PORT: %w", err)
		}
		c.Server.Port = n
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{"HLR_LEARNING_RATE", &c.Model.LearningRate},
		{"HLR_HL_WEIGHT", &c.Model.HLWeight},
		{"HLR_L2_WEIGHT", &c.Model.L2Weight},
		{"HLR_SIGMA", &c.Model.Sigma},
	}
	for _, f := range floats {
		if v := os.Getenv(f.env); v != "" {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", f.env, err)
			}
			*f.dst = x
		}
	}

	if v := os.Getenv("HLR_OMIT_H_TERM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HLR_OMIT_H_TERM: %w", err)
		}
		c.Model.OmitHTerm = b
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
