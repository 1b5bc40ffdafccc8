package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/pheromones/internal/grid"
)

// AssertStrengthBounded asserts that every cell holds a finite strength in
// [0, Ceiling] at the end of the run and that every wall holds zero.
func AssertStrengthBounded(t *testing.T, result SimulationResult) {
	t.Helper()
	u := result.Universe
	ceiling := u.Config().Ceiling
	for r := 0; r < u.Height(); r++ {
		for c := 0; c < u.Width(); c++ {
			s, _ := u.StrengthAt(r, c)
			if math.IsNaN(s) || s < 0 || s > ceiling {
				t.Errorf("AssertStrengthBounded: (%d,%d) strength %.6f outside [0, %.4f]", r, c, s, ceiling)
			}
			if cell, _ := u.CellAt(r, c); cell == grid.Wall && s != 0 {
				t.Errorf("AssertStrengthBounded: wall (%d,%d) has strength %.6f", r, c, s)
			}
		}
	}
	for _, tr := range result.Ticks {
		if tr.Stats.MaxStrength > ceiling {
			t.Errorf("AssertStrengthBounded: tick %d: max strength %.6f > %.4f", tr.Index, tr.Stats.MaxStrength, ceiling)
		}
	}
}

// AssertRolesUnique asserts that the final arena has exactly one Start and
// one End.
func AssertRolesUnique(t *testing.T, result SimulationResult) {
	t.Helper()
	starts, ends := 0, 0
	for _, b := range result.Universe.Cells() {
		switch grid.Cell(b) {
		case grid.Start:
			starts++
		case grid.End:
			ends++
		}
	}
	if starts != 1 || ends != 1 {
		t.Errorf("AssertRolesUnique: %d starts and %d ends, want 1 and 1", starts, ends)
	}
}

// AssertNoReward asserts that no agent ever arrived and the field stayed empty.
func AssertNoReward(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, tr := range result.Ticks {
		if tr.Stats.TickArrivals != 0 || tr.Stats.TotalStrength != 0 {
			t.Errorf("AssertNoReward: tick %d: %d arrivals, total strength %.6f", tr.Index, tr.Stats.TickArrivals, tr.Stats.TotalStrength)
			return
		}
	}
}

// AssertArrivals asserts that at least min agents reached End over the run.
func AssertArrivals(t *testing.T, result SimulationResult, min uint64) {
	t.Helper()
	if got := result.Last().Stats.Arrivals; got < min {
		t.Errorf("AssertArrivals: %d arrivals, want at least %d", got, min)
	}
}

// AssertStrengthConverges asserts that a watched cell's strength settles
// within [min, max] from tick afterTick onwards.
func AssertStrengthConverges(t *testing.T, result SimulationResult, p grid.Pos, min, max float64, afterTick int) {
	t.Helper()
	for i := afterTick; i < len(result.Ticks); i++ {
		s, ok := result.Ticks[i].Strengths[p]
		if !ok {
			t.Errorf("AssertStrengthConverges: tick %d: cell %v not watched", i, p)
			return
		}
		if s < min || s > max {
			t.Errorf("AssertStrengthConverges: tick %d: cell %v strength %.6f not in [%.4f, %.4f]", i, p, s, min, max)
		}
	}
}

// AssertMonotoneDecay asserts that a watched cell's strength never rises
// from tick fromTick onwards and ends below threshold.
func AssertMonotoneDecay(t *testing.T, result SimulationResult, p grid.Pos, fromTick int, threshold float64) {
	t.Helper()
	if fromTick >= len(result.Ticks) {
		t.Fatalf("AssertMonotoneDecay: fromTick %d beyond %d ticks", fromTick, len(result.Ticks))
	}
	prev := result.Ticks[fromTick].Strengths[p]
	for i := fromTick + 1; i < len(result.Ticks); i++ {
		s := result.Ticks[i].Strengths[p]
		if s > prev {
			t.Errorf("AssertMonotoneDecay: tick %d: cell %v rose from %.6f to %.6f", i, p, prev, s)
			return
		}
		prev = s
	}
	if prev >= threshold {
		t.Errorf("AssertMonotoneDecay: cell %v ended at %.6f, want below %.6f", p, prev, threshold)
	}
}

// AssertStronger asserts that cell a ends with more trail than cell b.
func AssertStronger(t *testing.T, result SimulationResult, a, b grid.Pos) {
	t.Helper()
	last := result.Last()
	sa, okA := last.Strengths[a]
	sb, okB := last.Strengths[b]
	if !okA || !okB {
		t.Fatalf("AssertStronger: cells %v and %v must both be watched", a, b)
	}
	if sa <= sb {
		t.Errorf("AssertStronger: %v strength %.6f not above %v strength %.6f", a, sa, b, sb)
	}
}

// AssertAgentsAt asserts that every agent currently stands on p.
func AssertAgentsAt(t *testing.T, result SimulationResult, p grid.Pos) {
	t.Helper()
	for i, pos := range result.Universe.AgentPositions() {
		if pos != p {
			t.Errorf("AssertAgentsAt: agent %d at %v, want %v", i, pos, p)
			return
		}
	}
}
