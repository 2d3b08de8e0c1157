package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Defaults reproduce the tuning
// the system was developed with: depth-8 engine probes, a -100cp pruning
// threshold, top-8 candidates and 200 simulations per decision.
type Config struct {
	EnginePath         string  `yaml:"engine_path"`
	Depth              int     `yaml:"depth"`
	MoveTimeMs         int     `yaml:"movetime_ms"`
	ThresholdCP        int     `yaml:"threshold_cp"`
	TopK               int     `yaml:"top_k"`
	Simulations        int     `yaml:"simulations"`
	Exploration        float64 `yaml:"exploration"`
	RolloutCutoff      int     `yaml:"rollout_cutoff"`
	CachePath          string  `yaml:"cache_path"`
	HandshakeTimeoutMs int     `yaml:"handshake_timeout_ms"`
	SearchTimeoutMs    int     `yaml:"search_timeout_ms"`
	EngineThreads      int     `yaml:"engine_threads"`
	EngineHashMB       int     `yaml:"engine_hash_mb"`
}

func defaultConfig() Config {
	return Config{
		EnginePath:         "stockfish",
		Depth:              8,
		ThresholdCP:        -100,
		TopK:               8,
		Simulations:        200,
		Exploration:        1.5,
		HandshakeTimeoutMs: 10000,
		SearchTimeoutMs:    10000,
		EngineThreads:      1,
		EngineHashMB:       64,
	}
}

// loadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults untouched.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.EnginePath == "" {
		return errors.New("engine_path must be set")
	}
	if c.Depth > 0 && c.MoveTimeMs > 0 {
		return errors.New("depth and movetime_ms are mutually exclusive")
	}
	if c.Depth <= 0 && c.MoveTimeMs <= 0 {
		return errors.New("one of depth or movetime_ms must be set")
	}
	if c.TopK <= 0 {
		return errors.New("top_k must be positive")
	}
	if c.Simulations <= 0 {
		return errors.New("simulations must be positive")
	}
	return nil
}

func (c Config) moveTime() time.Duration {
	return time.Duration(c.MoveTimeMs) * time.Millisecond
}

func (c Config) handshakeTimeout() time.Duration {
	return time.Duration(c.HandshakeTimeoutMs) * time.Millisecond
}

func (c Config) searchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMs) * time.Millisecond
}
