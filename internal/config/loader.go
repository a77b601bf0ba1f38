package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"shardsim/internal/common/fsutil"
	"shardsim/internal/engine"
)

// Config holds runtime parameters for the simulator.
// Zero values mean "unspecified" and will be replaced by defaults.
// Durations are in milliseconds; a negative value disables the wait.
type Config struct {
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
	Seed     int64  `json:"seed" yaml:"seed" toml:"seed"`

	VocabSize       int     `json:"vocab_size" yaml:"vocab_size" toml:"vocab_size"`
	HiddenSize      int     `json:"hidden_size" yaml:"hidden_size" toml:"hidden_size"`
	EOSProbability  float64 `json:"eos_probability" yaml:"eos_probability" toml:"eos_probability"`
	LoadDelayMS     int     `json:"load_delay_ms" yaml:"load_delay_ms" toml:"load_delay_ms"`
	SimulateLatency bool    `json:"simulate_latency" yaml:"simulate_latency" toml:"simulate_latency"`
	LatencyMeanMS   int     `json:"latency_mean_ms" yaml:"latency_mean_ms" toml:"latency_mean_ms"`
	LatencyStddevMS int     `json:"latency_stddev_ms" yaml:"latency_stddev_ms" toml:"latency_stddev_ms"`
	Greedy          bool    `json:"greedy" yaml:"greedy" toml:"greedy"`

	// Pipeline layout used by the CLI.
	ModelID string `json:"model_id" yaml:"model_id" toml:"model_id"`
	NLayers int    `json:"n_layers" yaml:"n_layers" toml:"n_layers"`
	Stages  int    `json:"stages" yaml:"stages" toml:"stages"`
}

// Defaults for the pipeline layout.
const (
	DefaultModelID  = "dummy"
	DefaultNLayers  = 8
	DefaultStages   = 2
	DefaultLogLevel = "info"
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml. A leading ~ expands to the home directory.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults fills unset pipeline and logging fields. Engine fields are
// left alone; engine.New applies its own defaults.
func (c Config) WithDefaults() Config {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ModelID == "" {
		c.ModelID = DefaultModelID
	}
	if c.NLayers <= 0 {
		c.NLayers = DefaultNLayers
	}
	if c.Stages <= 0 {
		c.Stages = DefaultStages
	}
	return c
}

// EngineConfig maps file values onto engine.Config.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		VocabSize:       c.VocabSize,
		HiddenSize:      c.HiddenSize,
		EOSProbability:  c.EOSProbability,
		LoadDelay:       time.Duration(c.LoadDelayMS) * time.Millisecond,
		SimulateLatency: c.SimulateLatency,
		LatencyMean:     time.Duration(c.LatencyMeanMS) * time.Millisecond,
		LatencyStddev:   time.Duration(c.LatencyStddevMS) * time.Millisecond,
		Greedy:          c.Greedy,
		Seed:            c.Seed,
	}
}
