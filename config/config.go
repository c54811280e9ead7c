// Package config loads dataflowctl settings: defaults, then an optional
// TOML file, then an optional .env file, then the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/pumped-fn/dataflow/logging"
)

const (
	TraceText = "text"
	TraceJSON = "json"
)

// Config is the resolved tool configuration
type Config struct {
	Log   LogConfig
	Trace TraceConfig
}

type LogConfig struct {
	Level   string `env:"DATAFLOW_LOG_LEVEL"`
	Format  string `env:"DATAFLOW_LOG_FORMAT"`
	NoColor bool   `env:"DATAFLOW_LOG_NOCOLOR"`
}

type TraceConfig struct {
	Format    string `env:"DATAFLOW_TRACE_FORMAT"`
	GoldenDir string `env:"DATAFLOW_GOLDEN_DIR"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
		Trace: TraceConfig{
			Format:    TraceText,
			GoldenDir: "testdata/golden",
		},
	}
}

type fileConfig struct {
	Log struct {
		Level   string `toml:"level"`
		Format  string `toml:"format"`
		NoColor bool   `toml:"no_color"`
	} `toml:"log"`
	Trace struct {
		Format    string `toml:"format"`
		GoldenDir string `toml:"golden_dir"`
	} `toml:"trace"`
}

// Load resolves the configuration. path may be empty; envFiles that do not
// exist are skipped.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := ApplyEnv(&cfg, envFiles...); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.TrimSpace(raw.Log.Format)
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("trace", "format") {
		cfg.Trace.Format = strings.TrimSpace(raw.Trace.Format)
	}
	if meta.IsDefined("trace", "golden_dir") {
		cfg.Trace.GoldenDir = strings.TrimSpace(raw.Trace.GoldenDir)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}
	return nil
}

// ApplyEnv loads envFiles into the environment, without overriding
// variables that are already set, then overlays DATAFLOW_* variables on
// cfg
func ApplyEnv(cfg *Config, envFiles ...string) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Validate rejects unknown formats and levels
func (c Config) Validate() error {
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	switch c.Trace.Format {
	case TraceText, TraceJSON:
	default:
		return fmt.Errorf("invalid trace format %q", c.Trace.Format)
	}
	return nil
}

// Logging converts the log section for the logging package
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		cfg.Level = lvl
	}
	cfg.Format = c.Log.Format
	cfg.NoColor = c.Log.NoColor
	return cfg
}
