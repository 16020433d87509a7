// Package config loads extres settings from YAML.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/extres/errors"
)

// maxMemoryPages is the wasm32 limit of 4 GiB in 64 KiB pages.
const maxMemoryPages = 65536

// Config holds every tunable of the library and the rcinspect tool.
type Config struct {
	Arena struct {
		// Size of each arena block, and the largest single allocation
		BlockSize int `yaml:"block_size"`
		// Guard the arena with a mutex
		ThreadSafe bool `yaml:"thread_safe"`
	} `yaml:"arena"`

	Array struct {
		// Capacity of fixed arrays created by the tool
		Capacity int `yaml:"capacity"`
	} `yaml:"array"`

	Modules struct {
		// Directory modules are read from
		Dir string `yaml:"dir"`
		// Memory limit per instance in 64 KiB pages, 0 for the runtime default
		MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
	} `yaml:"modules"`

	Log struct {
		// debug, info, warn or error
		Level string `yaml:"level"`
		// Human-readable console output
		Development bool `yaml:"development"`
	} `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.Arena.BlockSize = 1 << 16
	c.Arena.ThreadSafe = false

	c.Array.Capacity = 64

	c.Modules.Dir = "."
	c.Modules.MemoryLimitPages = 0

	c.Log.Level = "info"
	c.Log.Development = false
	return c
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data), yaml.Strict())
	if err := dec.Decode(c); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.ParseFailed("configuration", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Name(path).
			Detail("read configuration file").
			Cause(err).
			Build()
	}
	return Parse(data)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Arena.BlockSize <= 0 {
		return invalid("arena.block_size", "must be positive, got %d", c.Arena.BlockSize)
	}
	if c.Array.Capacity < 0 {
		return invalid("array.capacity", "must not be negative, got %d", c.Array.Capacity)
	}
	if c.Modules.MemoryLimitPages > maxMemoryPages {
		return invalid("modules.memory_limit_pages", "must be at most %d, got %d", maxMemoryPages, c.Modules.MemoryLimitPages)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}
	return nil
}

// NewLogger builds a zap logger from the log section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, invalid("log.level", "unknown level %q", c.Log.Level)
	}

	var zc zap.Config
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "build logger")
	}
	return logger, nil
}

func invalid(field, format string, args ...any) *errors.Error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Name(field).
		Detail(format, args...).
		Build()
}
