// Package universe is the tick engine. A Universe owns the grid, the
// pheromone field, and the agent pool, and advances them one discrete step
// per Tick.
//
// Each tick runs in a fixed order:
//
//  1. one uniform draw per agent, taken sequentially from the source
//  2. every agent selects and takes one move (in parallel when Workers > 1)
//  3. the field evaporates, then diffuses if enabled
//  4. agents that reached End deposit K/steps along their path
//  5. reached and stuck agents are recycled to Start
//
// Deposits are buffered until every agent has moved, so no agent sees
// another agent's reward from the same tick.
//
// A Universe is not safe for concurrent use. Hosts serialize access.
package universe

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/nvandessel/pheromones/internal/colony"
	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/layout"
	"github.com/nvandessel/pheromones/internal/logging"
	"github.com/nvandessel/pheromones/internal/pheromone"
	"github.com/nvandessel/pheromones/internal/snapshot"
)

// Source yields uniform samples in [0, 1).
type Source interface {
	Float64() float64
}

// Option configures a Universe.
type Option func(*Universe)

// WithSource injects the random source. Tests use it for determinism.
func WithSource(src Source) Option {
	return func(u *Universe) { u.src = src }
}

// WithLogger attaches an operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(u *Universe) { u.log = l }
}

// WithEvents attaches a JSONL event trace.
func WithEvents(el *logging.EventLogger) Option {
	return func(u *Universe) { u.events = el }
}

// Universe is one simulation instance.
type Universe struct {
	cfg     Config
	grid    *grid.Grid
	field   *pheromone.Field
	pool    *colony.Pool
	weights colony.Weights

	src    Source
	log    *slog.Logger
	events *logging.EventLogger

	tick  uint64
	stats Stats

	draws    []float64
	deposits []pheromone.Deposit
	scratch  []scratch
}

// scratch is per-worker selection buffers.
type scratch struct {
	neighbors []int
	cands     []colony.Candidate
}

// New creates a Universe with the default configuration: a 64x64 Ground
// arena, Start top-left, End bottom-right.
func New(opts ...Option) *Universe {
	u, err := NewWithConfig(DefaultConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("universe: default config rejected: %v", err))
	}
	return u
}

// NewWithConfig creates a Ground-filled Universe of cfg.Width x cfg.Height.
func NewWithConfig(cfg Config, opts ...Option) (*Universe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := grid.New(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	return build(g, cfg, opts)
}

// NewFromGrid creates a Universe over a copy of g. cfg.Width and cfg.Height
// are replaced by the grid's dimensions.
func NewFromGrid(g *grid.Grid, cfg Config, opts ...Option) (*Universe, error) {
	own, err := grid.FromCells(g.Width(), g.Height(), g.Cells())
	if err != nil {
		return nil, err
	}
	return build(own, cfg, opts)
}

// NewFromLayout creates a Universe whose arena matches l.
func NewFromLayout(l *layout.Layout, cfg Config, opts ...Option) (*Universe, error) {
	g, err := l.Grid()
	if err != nil {
		return nil, fmt.Errorf("layout %q: %w", l.Name, err)
	}
	return build(g, cfg, opts)
}

func build(g *grid.Grid, cfg Config, opts []Option) (*Universe, error) {
	cfg.Width, cfg.Height = g.Width(), g.Height()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	u := &Universe{
		cfg:   cfg,
		grid:  g,
		field: pheromone.NewField(g.Size(), cfg.Ceiling, g),
		pool:  colony.NewPool(cfg.Agents, cfg.Memory, cfg.StepBudget, g.Start()),
		weights: colony.Weights{
			Alpha:   cfg.Alpha,
			Beta:    cfg.Beta,
			Epsilon: cfg.Epsilon,
		},
		draws:   make([]float64, cfg.Agents),
		scratch: make([]scratch, cfg.Workers),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.src == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		u.src = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if u.log == nil {
		u.log = logging.Discard()
	}
	return u, nil
}

// Config returns the effective configuration.
func (u *Universe) Config() Config { return u.cfg }

// Width returns the number of columns.
func (u *Universe) Width() int { return u.grid.Width() }

// Height returns the number of rows.
func (u *Universe) Height() int { return u.grid.Height() }

// CellAt returns the classification at (row, col).
func (u *Universe) CellAt(row, col int) (grid.Cell, error) {
	return u.grid.CellAt(row, col)
}

// StrengthAt returns the trail strength at (row, col).
func (u *Universe) StrengthAt(row, col int) (float64, error) {
	if !u.grid.InBounds(row, col) {
		_, err := u.grid.CellAt(row, col)
		return 0, err
	}
	return u.field.StrengthAt(u.grid.Index(row, col)), nil
}

// Start returns the Start position.
func (u *Universe) Start() grid.Pos { return u.grid.Pos(u.grid.Start()) }

// End returns the End position.
func (u *Universe) End() grid.Pos { return u.grid.Pos(u.grid.End()) }

// Cells returns the row-major cell bytes. The slice is an owned copy; it
// goes stale on the next mutating call.
func (u *Universe) Cells() []byte {
	return snapshot.Export(u.grid)
}

// Frame returns the current snapshot tagged with the tick count.
func (u *Universe) Frame() snapshot.Frame {
	return snapshot.Capture(u.grid, u.tick)
}

// Layout captures the current arena as a named layout.
func (u *Universe) Layout(name string) *layout.Layout {
	return layout.FromGrid(name, u.grid)
}

// AgentPositions returns every agent's position.
func (u *Universe) AgentPositions() []grid.Pos {
	idx := u.pool.Positions()
	out := make([]grid.Pos, len(idx))
	for i, p := range idx {
		out[i] = u.grid.Pos(p)
	}
	return out
}

// ToggleWall flips Ground and Wall at (row, col). A new Wall loses its trail
// strength and any agent standing on it is recycled to Start.
func (u *Universe) ToggleWall(row, col int) (grid.Cell, error) {
	c, err := u.grid.ToggleWall(row, col)
	if err != nil {
		return c, err
	}
	if c == grid.Wall {
		idx := u.grid.Index(row, col)
		u.field.ResetRegion([]int{idx})
		for i := 0; i < u.pool.Len(); i++ {
			if a := u.pool.At(i); a.Pos() == idx {
				a.Reset(u.grid.Start())
			}
		}
		u.stats.BestPath = 0
	}
	u.log.Debug("wall toggled", "row", row, "col", col, "cell", c.String())
	u.events.Log("toggle_wall", map[string]any{"tick": u.tick, "row": row, "col": col, "cell": c.String()})
	return c, nil
}

// SetStart moves Start to (row, col). If it moved, every agent is reset to
// the new Start. The field is left intact.
func (u *Universe) SetStart(row, col int) error {
	moved, err := u.grid.SetStart(row, col)
	if err != nil {
		return err
	}
	if moved {
		u.relocated("set_start", row, col)
	}
	return nil
}

// SetEnd moves End to (row, col). Same reactions as SetStart.
func (u *Universe) SetEnd(row, col int) error {
	moved, err := u.grid.SetEnd(row, col)
	if err != nil {
		return err
	}
	if moved {
		u.relocated("set_end", row, col)
	}
	return nil
}

func (u *Universe) relocated(event string, row, col int) {
	u.pool.ResetAll(u.grid.Start())
	u.stats.BestPath = 0
	u.log.Debug("role moved", "event", event, "row", row, "col", col)
	u.events.Log(event, map[string]any{"tick": u.tick, "row": row, "col": col})
}

// Tick advances the simulation by one step. It never fails.
func (u *Universe) Tick() {
	n := u.pool.Len()
	for i := 0; i < n; i++ {
		u.draws[i] = u.src.Float64()
	}

	if workers := min(u.cfg.Workers, n); workers > 1 {
		u.moveParallel(n, workers)
	} else if n > 0 {
		u.moveRange(0, n, &u.scratch[0])
	}

	u.field.Evaporate(u.cfg.Evaporation)
	if u.cfg.Diffusion > 0 {
		conn := u.cfg.Connectivity
		u.field.Diffuse(u.cfg.Diffusion, func(idx int, dst []int) []int {
			return u.grid.Neighbors(idx, conn, dst)
		})
	}

	u.deposits = u.deposits[:0]
	arrived, stuck := 0, 0
	for i := 0; i < n; i++ {
		a := u.pool.At(i)
		switch a.State {
		case colony.Reached:
			arrived++
			steps := a.Steps()
			u.deposits = append(u.deposits, pheromone.Deposit{
				Path:   a.Path(),
				Amount: u.cfg.Deposit / float64(steps),
			})
			if u.stats.BestPath == 0 || steps < u.stats.BestPath {
				u.stats.BestPath = steps
			}
			u.events.Log("arrival", map[string]any{"tick": u.tick + 1, "agent": a.ID, "steps": steps})
		case colony.Stuck:
			stuck++
		}
	}
	u.field.Apply(u.deposits)

	start := u.grid.Start()
	for i := 0; i < n; i++ {
		if a := u.pool.At(i); a.State != colony.Searching {
			a.Reset(start)
		}
	}
	clear(u.deposits)

	u.tick++
	u.stats.Tick = u.tick
	u.stats.Arrivals += uint64(arrived)
	u.stats.Stuck += uint64(stuck)
	u.stats.TickArrivals = arrived
	u.stats.TickStuck = stuck

	u.log.Log(context.Background(), logging.LevelTrace, "tick",
		"tick", u.tick, "arrived", arrived, "stuck", stuck)
}

// TickN advances n steps.
func (u *Universe) TickN(n int) {
	for i := 0; i < n; i++ {
		u.Tick()
	}
}

// moveParallel splits the agents into contiguous chunks, one goroutine
// each. Moves cannot fail, so there is nothing to collect.
func (u *Universe) moveParallel(n, workers int) {
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			break
		}
		sc := &u.scratch[w]
		wg.Go(func() {
			u.moveRange(lo, hi, sc)
		})
	}
	wg.Wait()
}

// moveRange moves agents [lo, hi). It reads the grid and field and writes
// only to those agents.
func (u *Universe) moveRange(lo, hi int, sc *scratch) {
	conn := u.cfg.Connectivity
	end := u.grid.End()
	budget := u.pool.Budget()

	for i := lo; i < hi; i++ {
		a := u.pool.At(i)
		if a.State != colony.Searching {
			continue
		}

		sc.neighbors = u.grid.Neighbors(a.Pos(), conn, sc.neighbors[:0])
		sc.cands = sc.cands[:0]
		for _, nb := range sc.neighbors {
			if a.Remembers(nb) {
				continue
			}
			sc.cands = append(sc.cands, colony.Candidate{
				Cell:   nb,
				Weight: u.weights.Weight(u.field.StrengthAt(nb), u.grid.Distance(nb, end, conn)),
			})
		}
		if len(sc.cands) == 0 {
			a.State = colony.Stuck
			continue
		}

		a.MoveTo(sc.cands[colony.Pick(sc.cands, u.draws[i])].Cell)
		switch {
		case a.Pos() == end:
			a.State = colony.Reached
		case a.Steps() >= budget:
			a.State = colony.Stuck
		}
	}
}
