package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/hermes-ffi/memory"
	"github.com/wippyai/hermes-ffi/transcoder"
)

// fileConfig is the optional YAML configuration of the tool.
type fileConfig struct {
	Log    logConfig    `yaml:"log"`
	Limits limitsConfig `yaml:"limits"`
	Heap   heapConfig   `yaml:"heap"`
}

type limitsConfig struct {
	MaxStringSize  uint32 `yaml:"max_string_size"`
	MaxBufferSize  uint32 `yaml:"max_buffer_size"`
	MaxArrayLength uint32 `yaml:"max_array_length"`
}

type heapConfig struct {
	// Size of the in-process buffer in bytes.
	Size uint32 `yaml:"size"`
	// Pages of guest memory in -guest mode.
	GuestPages uint32 `yaml:"guest_pages"`
	Base       uint32 `yaml:"base"`
	Limit      uint32 `yaml:"limit"`
	Scrub      bool   `yaml:"scrub"`
}

type logConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func defaultConfig() *fileConfig {
	return &fileConfig{
		Log:  logConfig{Level: "warn"},
		Heap: heapConfig{Size: 1 << 20, GuestPages: 16},
	}
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (*fileConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.transcoder().Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Heap.Size == 0 {
		return nil, fmt.Errorf("config %s: heap.size must be positive", path)
	}
	if cfg.Heap.Limit != 0 && cfg.Heap.Limit <= cfg.Heap.Base {
		return nil, fmt.Errorf("config %s: heap.limit %d is not above heap.base %d", path, cfg.Heap.Limit, cfg.Heap.Base)
	}
	if _, err := zap.ParseAtomicLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *fileConfig) transcoder() *transcoder.Config {
	return &transcoder.Config{
		MaxStringSize:  c.Limits.MaxStringSize,
		MaxBufferSize:  c.Limits.MaxBufferSize,
		MaxArrayLength: c.Limits.MaxArrayLength,
	}
}

func (c *fileConfig) heap() *memory.HeapConfig {
	return &memory.HeapConfig{Base: c.Heap.Base, Limit: c.Heap.Limit, Scrub: c.Heap.Scrub}
}

// logger builds the zap logger for the tool. verbose forces debug level.
func (c *fileConfig) logger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
