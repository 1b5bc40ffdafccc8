// Package constants provides named constants used throughout the pheromones codebase.
// This centralizes tuning defaults so the engine, config, and CLI agree on them.
package constants

// Arena defaults. The default arena matches the classic 64x64 board with
// Start and End in opposite corners.
const (
	// DefaultWidth is the number of columns of a default Universe.
	DefaultWidth = 64

	// DefaultHeight is the number of rows of a default Universe.
	DefaultHeight = 64

	// DefaultAgents is the constant population size of the agent pool.
	DefaultAgents = 100

	// MaxDimension bounds width and height. Snapshot frames carry each
	// dimension as a uint16.
	MaxDimension = 65535

	// MaxCells bounds width*height.
	MaxCells = 1 << 22
)

// Move selection constants.
// w = (strength + Epsilon)^Alpha * proximity^Beta
const (
	// DefaultAlpha controls how strongly agents trust existing trails.
	DefaultAlpha = 1.0

	// DefaultBeta controls the greedy bias toward End.
	DefaultBeta = 2.0

	// DefaultEpsilon keeps unexplored cells selectable.
	// Must be strictly positive.
	DefaultEpsilon = 0.01

	// DefaultConnectivity is the neighborhood size (4 or 8).
	DefaultConnectivity = 4
)

// Trail dynamics constants.
const (
	// DefaultEvaporation is the fraction of strength lost per tick, in (0,1).
	DefaultEvaporation = 0.02

	// DefaultDeposit is K in amount = K / path_length.
	DefaultDeposit = 1.0

	// DefaultCeiling is the saturation ceiling for any cell's strength.
	DefaultCeiling = 100.0

	// DefaultDiffusion is the fraction of strength shared with open neighbors
	// per tick. Zero disables diffusion.
	DefaultDiffusion = 0.0
)

// Agent lifecycle constants.
const (
	// DefaultStepBudget is the number of moves an agent may make before it
	// is declared stuck and recycled.
	DefaultStepBudget = 512

	// DefaultMemory is the capacity of an agent's recent-trail window used
	// to avoid immediate backtracking.
	DefaultMemory = 8
)

// Host constants.
const (
	// DefaultServerAddr is the listen address of the HTTP host.
	DefaultServerAddr = "localhost:8080"

	// DefaultTickIntervalMs is the host's tick cadence while playing.
	DefaultTickIntervalMs = 16

	// MaxTicksPerRequest bounds a single tick request from a remote caller.
	MaxTicksPerRequest = 10000
)
