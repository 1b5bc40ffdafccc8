package universe

import (
	"errors"
	"fmt"
	"math"

	"github.com/nvandessel/pheromones/internal/constants"
	"github.com/nvandessel/pheromones/internal/grid"
)

// ErrInvalidConfig is returned when engine parameters are out of range.
var ErrInvalidConfig = errors.New("invalid universe config")

// Config holds the engine's tunable parameters.
type Config struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Agents int `json:"agents"`

	Alpha        float64           `json:"alpha"`
	Beta         float64           `json:"beta"`
	Epsilon      float64           `json:"epsilon"`
	Connectivity grid.Connectivity `json:"connectivity"`

	Evaporation float64 `json:"evaporation"`
	Deposit     float64 `json:"deposit"`
	Ceiling     float64 `json:"ceiling"`
	// Diffusion shares that fraction of each cell's strength with its open
	// neighbors every tick. When non-zero, a tick with no deposits lowers
	// the field total but may raise a cell next to a stronger one.
	Diffusion float64 `json:"diffusion"`

	StepBudget int `json:"step_budget"`
	Memory     int `json:"memory"`

	// Workers > 1 spreads move selection over that many goroutines.
	Workers int `json:"workers"`
	// Seed for the default random source. Zero picks a random seed.
	Seed uint64 `json:"seed"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
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
	}
}

// Validate checks every parameter. Dimensions are only checked against the
// upper limits here; the grid rejects zero or negative sizes itself.
func (c Config) Validate() error {
	switch {
	case c.Width > constants.MaxDimension || c.Height > constants.MaxDimension:
		return fmt.Errorf("%w: width and height must be <= %d, got %dx%d", ErrInvalidConfig, constants.MaxDimension, c.Width, c.Height)
	case c.Width*c.Height > constants.MaxCells:
		return fmt.Errorf("%w: arena of %dx%d exceeds %d cells", ErrInvalidConfig, c.Width, c.Height, constants.MaxCells)
	case c.Agents < 0:
		return fmt.Errorf("%w: agents must be >= 0, got %d", ErrInvalidConfig, c.Agents)
	case !finite(c.Alpha) || c.Alpha < 0:
		return fmt.Errorf("%w: alpha must be >= 0, got %v", ErrInvalidConfig, c.Alpha)
	case !finite(c.Beta) || c.Beta < 0:
		return fmt.Errorf("%w: beta must be >= 0, got %v", ErrInvalidConfig, c.Beta)
	case !finite(c.Epsilon) || c.Epsilon <= 0:
		return fmt.Errorf("%w: epsilon must be > 0, got %v", ErrInvalidConfig, c.Epsilon)
	case !c.Connectivity.Valid():
		return fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrInvalidConfig, c.Connectivity)
	case !(c.Evaporation > 0 && c.Evaporation < 1):
		return fmt.Errorf("%w: evaporation must be in (0,1), got %v", ErrInvalidConfig, c.Evaporation)
	case !finite(c.Deposit) || c.Deposit <= 0:
		return fmt.Errorf("%w: deposit must be > 0, got %v", ErrInvalidConfig, c.Deposit)
	case !finite(c.Ceiling) || c.Ceiling <= 0:
		return fmt.Errorf("%w: ceiling must be > 0, got %v", ErrInvalidConfig, c.Ceiling)
	case !(c.Diffusion >= 0 && c.Diffusion < 1):
		return fmt.Errorf("%w: diffusion must be in [0,1), got %v", ErrInvalidConfig, c.Diffusion)
	case c.StepBudget < 1:
		return fmt.Errorf("%w: step budget must be >= 1, got %d", ErrInvalidConfig, c.StepBudget)
	case c.Memory < 0:
		return fmt.Errorf("%w: memory must be >= 0, got %d", ErrInvalidConfig, c.Memory)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
