// Package config loads the optional .tumerge.toml project file that
// supplies defaults for values the CLI also accepts as arguments.
package config

import (
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the values a .tumerge.toml file may override.
type Config struct {
	ThreadCount int    `toml:"thread_count"`
	LogLevel    string `toml:"log_level"`
	OutputDir   string `toml:"output_dir"`
}

// defaults mirrors the CLI's own defaults (thread count 1, info logging,
// outputs written alongside their TU).
func defaults() Config {
	return Config{ThreadCount: 1, LogLevel: "info"}
}

// Load reads path and decodes it as TOML. A missing file is not an error:
// it returns the defaults unchanged, since the project file is optional.
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, err
	}
	if cfg.ThreadCount < 1 {
		cfg.ThreadCount = 1
	}
	return cfg, nil
}

// SlogLevel maps the configured LogLevel string to a slog.Level, defaulting
// to Info for an empty or unrecognised value.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
