// Package config loads controller and worker settings from an optional YAML
// file, then MD5BRUTE_* environment variables. Command-line flags are applied
// on top by the binaries themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"md5brute/internal/logging"
)

// Config is the full settings tree.
type Config struct {
	Search     SearchConfig     `yaml:"search"`
	Controller ControllerConfig `yaml:"controller"`
	Worker     WorkerConfig     `yaml:"worker"`
	Log        LogConfig        `yaml:"log"`
}

type SearchConfig struct {
	// MaxLength is the longest candidate tried when no length is given.
	MaxLength int `yaml:"max_length" validate:"min=1,max=12"`
	// Cadence is the number of attempts between cancellation checks.
	Cadence uint64 `yaml:"cadence" validate:"min=1"`
	// Strict rejects targets that are not 32 lowercase hex characters.
	Strict bool `yaml:"strict"`
	// ProgressInterval throttles PROGRESS messages; zero disables them.
	ProgressInterval time.Duration `yaml:"progress_interval" validate:"gte=0"`
}

type ControllerConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

type WorkerConfig struct {
	// MetricsAddr serves /metrics when set, e.g. ":9108".
	MetricsAddr string `yaml:"metrics_addr"`
}

type LogConfig struct {
	// Level is parsed by logging.ParseLevel, case-insensitively.
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

var validate = validator.New()

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Search: SearchConfig{
			MaxLength:        5,
			Cadence:          10000,
			Strict:           true,
			ProgressInterval: time.Second,
		},
		Controller: ControllerConfig{
			Host: "localhost",
			Port: 7000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads path (if it exists) over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) error {
	var errs []error
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = i
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	envString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envInt("MD5BRUTE_MAX_LENGTH", &cfg.Search.MaxLength)
	if v := os.Getenv("MD5BRUTE_CADENCE"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MD5BRUTE_CADENCE: %w", err))
		} else {
			cfg.Search.Cadence = n
		}
	}
	envBool("MD5BRUTE_STRICT", &cfg.Search.Strict)
	if v := os.Getenv("MD5BRUTE_PROGRESS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("MD5BRUTE_PROGRESS_INTERVAL: %w", err))
		} else {
			cfg.Search.ProgressInterval = d
		}
	}
	envString("MD5BRUTE_HOST", &cfg.Controller.Host)
	envInt("MD5BRUTE_PORT", &cfg.Controller.Port)
	envString("MD5BRUTE_METRICS_ADDR", &cfg.Worker.MetricsAddr)
	envString("MD5BRUTE_LOG_LEVEL", &cfg.Log.Level)
	envBool("MD5BRUTE_LOG_JSON", &cfg.Log.JSON)

	return errors.Join(errs...)
}
