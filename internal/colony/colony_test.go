package colony

import (
	"math"
	"testing"
)

func TestAgent_ResetAndMove(t *testing.T) {
	a := newAgent(0, 3, 10, 5)

	if a.Pos() != 5 || a.Steps() != 0 || a.State != Searching {
		t.Fatalf("new agent = pos %d steps %d state %s", a.Pos(), a.Steps(), a.State)
	}

	a.MoveTo(6)
	a.MoveTo(7)
	if a.Pos() != 7 {
		t.Errorf("Pos() = %d, want 7", a.Pos())
	}
	if a.Steps() != 2 {
		t.Errorf("Steps() = %d, want 2", a.Steps())
	}
	want := []int{5, 6, 7}
	for i, p := range a.Path() {
		if p != want[i] {
			t.Errorf("Path()[%d] = %d, want %d", i, p, want[i])
		}
	}
	if !a.Remembers(5) || !a.Remembers(6) {
		t.Error("agent should remember 5 and 6")
	}
	if a.Remembers(7) {
		t.Error("current position is not part of the recent trail")
	}

	a.State = Reached
	a.Reset(1)
	if a.Pos() != 1 || a.Steps() != 0 || a.State != Searching {
		t.Errorf("after reset = pos %d steps %d state %s", a.Pos(), a.Steps(), a.State)
	}
	if a.Remembers(5) {
		t.Error("reset should clear the recent trail")
	}
}

func TestAgent_RecentDropsOldestFirst(t *testing.T) {
	a := newAgent(0, 2, 10, 0)
	a.MoveTo(1)
	a.MoveTo(2)
	a.MoveTo(3)

	// Ring holds the two most recent previous positions: 1, 2.
	if a.Remembers(0) {
		t.Error("oldest position should have been dropped")
	}
	got := a.Recent()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Recent() = %v, want [1 2]", got)
	}
}

func TestAgent_ZeroMemory(t *testing.T) {
	a := newAgent(0, 0, 10, 0)
	a.MoveTo(1)
	if a.Remembers(0) {
		t.Error("zero-memory agent remembered a position")
	}
	if len(a.Recent()) != 0 {
		t.Error("zero-memory agent has a recent trail")
	}
}

func TestPool(t *testing.T) {
	p := NewPool(4, 2, 8, 3)
	if p.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", p.Len())
	}
	for i, pos := range p.Positions() {
		if pos != 3 {
			t.Errorf("agent %d at %d, want 3", i, pos)
		}
	}

	p.At(0).MoveTo(4)
	p.At(1).State = Stuck
	p.ResetAll(9)

	for i := 0; i < p.Len(); i++ {
		a := p.At(i)
		if a.Pos() != 9 || a.Steps() != 0 || a.State != Searching {
			t.Errorf("agent %d = pos %d steps %d state %s", i, a.Pos(), a.Steps(), a.State)
		}
	}
	if c := p.Counts(); c[Searching] != 4 {
		t.Errorf("Counts()[Searching] = %d, want 4", c[Searching])
	}
}

func TestProximity_Decreasing(t *testing.T) {
	prev := Proximity(0)
	if prev != 1 {
		t.Errorf("Proximity(0) = %f, want 1", prev)
	}
	for d := 1; d < 50; d++ {
		p := Proximity(d)
		if p >= prev || p <= 0 {
			t.Fatalf("Proximity(%d) = %f, not in (0, %f)", d, p, prev)
		}
		prev = p
	}
}

func TestWeights_Weight(t *testing.T) {
	w := Weights{Alpha: 1, Beta: 2, Epsilon: 0.01}

	// Stronger trail wins at equal distance.
	if w.Weight(1, 3) <= w.Weight(0, 3) {
		t.Error("stronger trail should weigh more")
	}
	// Closer cell wins at equal strength.
	if w.Weight(0, 1) <= w.Weight(0, 5) {
		t.Error("closer cell should weigh more")
	}
	// Unexplored cells keep a positive weight.
	if w.Weight(0, 100) <= 0 {
		t.Error("epsilon should keep weight positive")
	}

	got := w.Weight(0.99, 1)
	want := 1.0 * 0.25
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Weight(0.99, 1) = %f, want %f", got, want)
	}

	frac := Weights{Alpha: 0.5, Beta: 0.5, Epsilon: 0}
	if got := frac.Weight(4, 3); math.Abs(got-1) > 1e-12 {
		t.Errorf("fractional Weight = %f, want 1", got)
	}
}

func TestPick(t *testing.T) {
	cands := []Candidate{{Cell: 10, Weight: 1}, {Cell: 11, Weight: 3}}

	tests := []struct {
		name string
		u    float64
		want int
	}{
		{"low draw", 0.0, 0},
		{"just below boundary", 0.2499, 0},
		{"boundary", 0.25, 1},
		{"high draw", 0.99, 1},
		{"one clamps", 1.0, 1},
		{"negative clamps", -0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pick(cands, tt.u); got != tt.want {
				t.Errorf("Pick(u=%f) = %d, want %d", tt.u, got, tt.want)
			}
		})
	}
}

func TestPick_Empty(t *testing.T) {
	if got := Pick(nil, 0.5); got != -1 {
		t.Errorf("Pick(nil) = %d, want -1", got)
	}
}

func TestPick_AllZeroIsUniform(t *testing.T) {
	cands := []Candidate{{Cell: 1}, {Cell: 2}, {Cell: 3}, {Cell: 4}}
	for i, u := range []float64{0.1, 0.3, 0.6, 0.9} {
		if got := Pick(cands, u); got != i {
			t.Errorf("Pick(u=%f) = %d, want %d", u, got, i)
		}
	}
}

func TestPick_Distribution(t *testing.T) {
	cands := []Candidate{{Cell: 0, Weight: 1}, {Cell: 1, Weight: 2}, {Cell: 2, Weight: 1}}
	counts := make([]int, 3)
	const n = 4000
	for i := 0; i < n; i++ {
		u := (float64(i) + 0.5) / n
		counts[Pick(cands, u)]++
	}
	want := []int{1000, 2000, 1000}
	for i := range counts {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %d, want %d", i, counts[i], want[i])
		}
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Searching: "searching", Reached: "reached", Stuck: "stuck"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
