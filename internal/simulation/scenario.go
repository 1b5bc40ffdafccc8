package simulation

import (
	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/universe"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name string

	// Layout is the arena in text form. Ignored when Generate is set.
	Layout string

	// Generate, when non-nil, builds the arena with layout.Generate.
	Generate *GenerateSpec

	// Config overrides universe.DefaultConfig. Width and Height always come
	// from the layout.
	Config *universe.Config

	Ticks int
	Seed  uint64

	// Watch lists cells whose strength is sampled after every tick.
	Watch []grid.Pos

	// BeforeTick, when non-nil, is called before each tick executes.
	// Use it to edit the arena mid-run.
	BeforeTick func(tick int, u *universe.Universe)
}

// GenerateSpec selects a generated arena.
type GenerateSpec struct {
	Kind   string
	Width  int
	Height int
	Seed   uint64
	Braid  float64
}

// TickResult captures the state after a single tick.
type TickResult struct {
	Index     int
	Stats     universe.Stats
	Strengths map[grid.Pos]float64
}

// SimulationResult captures all ticks and the final universe.
type SimulationResult struct {
	Ticks    []TickResult
	Universe *universe.Universe

	// RunID is the id of the report filed in the runner's store.
	RunID string
}

// Last returns the final tick, or a zero TickResult when nothing ran.
func (r SimulationResult) Last() TickResult {
	if len(r.Ticks) == 0 {
		return TickResult{}
	}
	return r.Ticks[len(r.Ticks)-1]
}
