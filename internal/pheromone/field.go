// Package pheromone implements the trail-strength field laid over the arena.
//
// The field is a dense row-major array with one scalar per cell. Strength is
// always within [0, ceiling]. Wall cells always carry zero strength: they are
// skipped by deposits and diffusion and zeroed when a cell becomes a Wall.
package pheromone

import (
	"math"
)

// Topology is the view of the arena the field needs.
type Topology interface {
	// IsWall reports whether the cell at a flat index is a Wall.
	IsWall(idx int) bool
}

// flushBelow is the strength under which evaporation snaps a cell to zero,
// keeping long-idle fields out of subnormal arithmetic.
const flushBelow = 1e-300

// Deposit is a buffered reinforcement: Amount is added to every cell of Path.
type Deposit struct {
	Path   []int
	Amount float64
}

// Field holds trail strength for every cell.
// It is not safe for concurrent mutation; reads may run concurrently when no
// mutation is in progress.
type Field struct {
	values  []float64
	ceiling float64
	topo    Topology

	// stamp/gen dedupe cells within a single deposit path.
	stamp []uint32
	gen   uint32

	scratch []float64
}

// NewField allocates a zeroed field of size cells with the given saturation
// ceiling.
func NewField(size int, ceiling float64, topo Topology) *Field {
	return &Field{
		values:  make([]float64, size),
		ceiling: ceiling,
		topo:    topo,
		stamp:   make([]uint32, size),
	}
}

// Len returns the number of cells.
func (f *Field) Len() int { return len(f.values) }

// Ceiling returns the saturation ceiling.
func (f *Field) Ceiling() float64 { return f.ceiling }

// StrengthAt returns the strength at a flat index. Walls always read 0.
func (f *Field) StrengthAt(idx int) float64 {
	if f.topo != nil && f.topo.IsWall(idx) {
		return 0
	}
	return f.values[idx]
}

// Deposit adds amount to every distinct non-Wall cell along path, clamped to
// the ceiling. A cell visited more than once is reinforced once.
func (f *Field) Deposit(path []int, amount float64) {
	if amount <= 0 || math.IsNaN(amount) || len(path) == 0 {
		return
	}
	f.gen++
	if f.gen == 0 {
		clear(f.stamp)
		f.gen = 1
	}
	for _, idx := range path {
		if idx < 0 || idx >= len(f.values) || f.stamp[idx] == f.gen {
			continue
		}
		f.stamp[idx] = f.gen
		if f.topo != nil && f.topo.IsWall(idx) {
			continue
		}
		f.values[idx] = clamp(f.values[idx]+amount, 0, f.ceiling)
	}
}

// Apply merges buffered deposits in order.
func (f *Field) Apply(deposits []Deposit) {
	for _, d := range deposits {
		f.Deposit(d.Path, d.Amount)
	}
}

// Evaporate multiplies every cell's strength by (1 - rate). Rates outside
// (0,1) are clamped into [0,1].
func (f *Field) Evaporate(rate float64) {
	keep := 1 - clamp(rate, 0, 1)
	for i, v := range f.values {
		if v == 0 {
			continue
		}
		nv := v * keep
		if nv < flushBelow {
			nv = 0
		}
		f.values[i] = nv
	}
}

// Diffuse moves a fraction coef of every open cell's strength equally onto
// its open neighbors. Walls neither emit nor receive. A cell with no open
// neighbor keeps all of its strength. Total strength is conserved up to the
// ceiling clamp, but single cells can gain: with diffusion on, decay without
// deposits is monotone only for the field total.
func (f *Field) Diffuse(coef float64, neighbors func(idx int, dst []int) []int) {
	coef = clamp(coef, 0, 1)
	if coef == 0 {
		return
	}
	if cap(f.scratch) < len(f.values) {
		f.scratch = make([]float64, len(f.values))
	}
	next := f.scratch[:len(f.values)]
	clear(next)

	var buf [8]int
	for i, v := range f.values {
		if v == 0 {
			continue
		}
		if f.topo != nil && f.topo.IsWall(i) {
			continue
		}
		ns := neighbors(i, buf[:0])
		if len(ns) == 0 {
			next[i] += v
			continue
		}
		share := v * coef / float64(len(ns))
		next[i] += v * (1 - coef)
		for _, n := range ns {
			next[n] += share
		}
	}
	for i, v := range next {
		f.values[i] = clamp(v, 0, f.ceiling)
	}
}

// ResetRegion zeroes strength at the given cells. Out-of-range indices are
// ignored.
func (f *Field) ResetRegion(cells []int) {
	for _, idx := range cells {
		if idx >= 0 && idx < len(f.values) {
			f.values[idx] = 0
		}
	}
}

// Total returns the sum of all strengths.
func (f *Field) Total() float64 {
	sum := 0.0
	for _, v := range f.values {
		sum += v
	}
	return sum
}

// Max returns the largest strength in the field.
func (f *Field) Max() float64 {
	m := 0.0
	for _, v := range f.values {
		if v > m {
			m = v
		}
	}
	return m
}

// clamp restricts v to [lo, hi]; NaN and -Inf collapse to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, -1) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
