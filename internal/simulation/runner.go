package simulation

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/layout"
	"github.com/nvandessel/pheromones/internal/store"
	"github.com/nvandessel/pheromones/internal/universe"
)

// Runner orchestrates multi-tick experiments against a real universe and
// files a run report for each one.
type Runner struct {
	t     *testing.T
	store *store.SQLiteStore
}

// NewRunner creates a simulation runner with an isolated SQLite store
// and sandboxed HOME directory.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	s, err := store.NewSQLiteStore(tmpDir)
	if err != nil {
		t.Fatalf("NewRunner: failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return &Runner{t: t, store: s}
}

// Store returns the runner's report store.
func (r *Runner) Store() *store.SQLiteStore { return r.store }

// Run executes the scenario and returns the collected results.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()
	ctx := context.Background()

	// Phase 1: Build the arena.
	l := r.buildLayout(scenario)

	// Phase 2: Configure the universe.
	cfg := universe.DefaultConfig()
	if scenario.Config != nil {
		cfg = *scenario.Config
	}
	cfg.Seed = scenario.Seed
	src := rand.New(rand.NewPCG(scenario.Seed, scenario.Seed^0x5bd1e995))
	u, err := universe.NewFromLayout(l, cfg, universe.WithSource(src))
	if err != nil {
		r.t.Fatalf("Run(%s): NewFromLayout: %v", scenario.Name, err)
	}

	// Phase 3: Run ticks.
	run := store.NewRun(l.Name, u.Config(), time.Now())
	ticks := make([]TickResult, scenario.Ticks)
	for i := range ticks {
		if scenario.BeforeTick != nil {
			scenario.BeforeTick(i, u)
		}
		u.Tick()
		ticks[i] = r.snapshot(i, u, scenario)
	}

	// Phase 4: File the report.
	run.Finish(u.Stats(), time.Now())
	if err := r.store.RecordRun(ctx, run); err != nil {
		r.t.Fatalf("Run(%s): RecordRun: %v", scenario.Name, err)
	}

	return SimulationResult{
		Ticks:    ticks,
		Universe: u,
		RunID:    run.ID,
	}
}

func (r *Runner) buildLayout(scenario Scenario) *layout.Layout {
	r.t.Helper()

	var (
		l   *layout.Layout
		err error
	)
	if g := scenario.Generate; g != nil {
		l, err = layout.Generate(g.Kind, g.Width, g.Height, layout.Options{Seed: g.Seed, Braid: g.Braid})
	} else {
		l, err = layout.ParseString(scenario.Layout)
	}
	if err != nil {
		r.t.Fatalf("Run(%s): layout: %v", scenario.Name, err)
	}
	l.Name = scenario.Name
	if err := r.store.SaveLayout(context.Background(), l); err != nil {
		r.t.Fatalf("Run(%s): SaveLayout: %v", scenario.Name, err)
	}
	return l
}

// snapshot samples stats and watched strengths after tick i.
func (r *Runner) snapshot(i int, u *universe.Universe, scenario Scenario) TickResult {
	r.t.Helper()

	tr := TickResult{Index: i, Stats: u.Stats()}
	if len(scenario.Watch) > 0 {
		tr.Strengths = make(map[grid.Pos]float64, len(scenario.Watch))
		for _, p := range scenario.Watch {
			s, err := u.StrengthAt(p.Row, p.Col)
			if err != nil {
				r.t.Fatalf("tick %d: StrengthAt(%d,%d): %v", i, p.Row, p.Col, err)
			}
			tr.Strengths[p] = s
		}
	}
	return tr
}
