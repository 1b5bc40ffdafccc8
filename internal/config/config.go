// Package config provides unified configuration loading for pheromones.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/pheromones/internal/constants"
	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/universe"
)

// FileName is the config file name inside the data directory.
const FileName = "config.yaml"

// PheromonesConfig contains all pheromones configuration settings.
type PheromonesConfig struct {
	// Simulation holds the engine parameters.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Server configures the HTTP host.
	Server ServerConfig `json:"server" yaml:"server"`

	// Store configures persistence of layouts and run reports.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig mirrors universe.Config in file form.
type SimulationConfig struct {
	Width        int     `json:"width" yaml:"width"`
	Height       int     `json:"height" yaml:"height"`
	Agents       int     `json:"agents" yaml:"agents"`
	Alpha        float64 `json:"alpha" yaml:"alpha"`
	Beta         float64 `json:"beta" yaml:"beta"`
	Epsilon      float64 `json:"epsilon" yaml:"epsilon"`
	Connectivity int     `json:"connectivity" yaml:"connectivity"`
	Evaporation  float64 `json:"evaporation" yaml:"evaporation"`
	Deposit      float64 `json:"deposit" yaml:"deposit"`
	Ceiling      float64 `json:"ceiling" yaml:"ceiling"`
	Diffusion    float64 `json:"diffusion" yaml:"diffusion"`
	StepBudget   int     `json:"step_budget" yaml:"step_budget"`
	Memory       int     `json:"memory" yaml:"memory"`

	// Workers is the number of goroutines used for move selection.
	// 0 or 1 runs sequentially.
	Workers int `json:"workers" yaml:"workers"`

	// Seed fixes the random source. 0 picks a random seed per run.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// ToUniverse converts to the engine's configuration.
func (s SimulationConfig) ToUniverse() universe.Config {
	return universe.Config{
		Width:        s.Width,
		Height:       s.Height,
		Agents:       s.Agents,
		Alpha:        s.Alpha,
		Beta:         s.Beta,
		Epsilon:      s.Epsilon,
		Connectivity: grid.Connectivity(s.Connectivity),
		Evaporation:  s.Evaporation,
		Deposit:      s.Deposit,
		Ceiling:      s.Ceiling,
		Diffusion:    s.Diffusion,
		StepBudget:   s.StepBudget,
		Memory:       s.Memory,
		Workers:      s.Workers,
		Seed:         s.Seed,
	}
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	// Addr is the listen address, e.g. "localhost:8080".
	Addr string `json:"addr" yaml:"addr"`

	// TickInterval is the cadence of automatic ticks while playing.
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	// Dir is the data directory. Empty means ~/.pheromones.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the event trace in <data dir>/events.jsonl.
	// "trace" additionally logs every tick.
	Level string `json:"level" yaml:"level"`
}

// Default returns a PheromonesConfig with sensible defaults.
func Default() *PheromonesConfig {
	return &PheromonesConfig{
		Simulation: SimulationConfig{
			Width:        constants.DefaultWidth,
			Height:       constants.DefaultHeight,
			Agents:       constants.DefaultAgents,
			Alpha:        constants.DefaultAlpha,
			Beta:         constants.DefaultBeta,
			Epsilon:      constants.DefaultEpsilon,
			Connectivity: constants.DefaultConnectivity,
			Evaporation:  constants.DefaultEvaporation,
			Deposit:      constants.DefaultDeposit,
			Ceiling:      constants.DefaultCeiling,
			Diffusion:    constants.DefaultDiffusion,
			StepBudget:   constants.DefaultStepBudget,
			Memory:       constants.DefaultMemory,
			Workers:      1,
		},
		Server: ServerConfig{
			Addr:         constants.DefaultServerAddr,
			TickInterval: constants.DefaultTickIntervalMs * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.pheromones/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".pheromones", FileName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.pheromones/config.yaml -> environment variables
func Load() (*PheromonesConfig, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// LoadPath loads path when set, otherwise behaves like Load.
// Environment overrides apply either way.
func LoadPath(path string) (*PheromonesConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*PheromonesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Dir = expandEnvVars(config.Store.Dir)
	return config, nil
}

// Save writes the configuration to path as YAML, creating parent directories.
func (c *PheromonesConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *PheromonesConfig) Validate() error {
	s := c.Simulation
	if s.Width < 1 || s.Height < 1 || s.Width*s.Height < 2 {
		return fmt.Errorf("width and height must be positive with room for Start and End, got %dx%d", s.Width, s.Height)
	}
	if err := s.ToUniverse().Validate(); err != nil {
		return err
	}

	if c.Server.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.Server.TickInterval)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *PheromonesConfig) {
	sim := &config.Simulation
	envInt("PHEROMONES_WIDTH", &sim.Width)
	envInt("PHEROMONES_HEIGHT", &sim.Height)
	envInt("PHEROMONES_AGENTS", &sim.Agents)
	envInt("PHEROMONES_CONNECTIVITY", &sim.Connectivity)
	envInt("PHEROMONES_WORKERS", &sim.Workers)
	envFloat("PHEROMONES_ALPHA", &sim.Alpha)
	envFloat("PHEROMONES_BETA", &sim.Beta)
	envFloat("PHEROMONES_EVAPORATION", &sim.Evaporation)
	envFloat("PHEROMONES_DIFFUSION", &sim.Diffusion)

	if v := os.Getenv("PHEROMONES_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			sim.Seed = n
		}
	}

	if v := os.Getenv("PHEROMONES_SERVER_ADDR"); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv("PHEROMONES_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Server.TickInterval = d
		}
	}

	if v := os.Getenv("PHEROMONES_DATA_DIR"); v != "" {
		config.Store.Dir = v
	}

	if v := os.Getenv("PHEROMONES_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) {
			*dst = f
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
