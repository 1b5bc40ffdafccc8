package layout

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/nvandessel/pheromones/internal/grid"
)

// Generator kinds accepted by Generate.
const (
	KindEmpty   = "empty"
	KindStriped = "striped"
	KindMaze    = "maze"
)

// Kinds lists the generator names in a stable order.
func Kinds() []string {
	k := []string{KindEmpty, KindStriped, KindMaze}
	sort.Strings(k)
	return k
}

// Options tunes Generate. Seed and Braid only apply to mazes.
type Options struct {
	Seed  uint64
	Braid float64
}

// Generate builds a layout of the named kind.
func Generate(kind string, width, height int, opts Options) (*Layout, error) {
	switch kind {
	case KindEmpty:
		return Empty(width, height)
	case KindStriped:
		return Striped(width, height)
	case KindMaze:
		return Maze(width, height, opts.Seed, opts.Braid)
	default:
		return nil, fmt.Errorf("unknown layout kind %q (want one of %v)", kind, Kinds())
	}
}

// Empty returns an all-Ground layout with Start top-left and End bottom-right.
func Empty(width, height int) (*Layout, error) {
	g, err := grid.New(width, height)
	if err != nil {
		return nil, err
	}
	return FromGrid(KindEmpty, g), nil
}

// Striped returns the classic demo board: cell i is Ground when i is even
// or a multiple of 7, Wall otherwise. Start and End sit in opposite corners.
func Striped(width, height int) (*Layout, error) {
	g, err := grid.New(width, height)
	if err != nil {
		return nil, err
	}
	cells := g.Cells()
	for i := range cells {
		if cells[i] != grid.Ground {
			continue
		}
		if !(i%2 == 0 || i%7 == 0) {
			cells[i] = grid.Wall
		}
	}
	return &Layout{Name: KindStriped, Width: width, Height: height, Cells: cells}, nil
}

// Maze returns a recursive-backtracker maze. Rooms sit on even coordinates;
// Start is the top-left room and End the bottom-right one. braid in [0,1] is
// the chance that each dead end gets an extra opening, adding loops. A zero
// seed picks a random one.
func Maze(width, height int, seed uint64, braid float64) (*Layout, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", grid.ErrInvalidDimension, width, height)
	}
	lastRow, lastCol := (height-1)&^1, (width-1)&^1
	if lastRow == 0 && lastCol == 0 {
		return nil, fmt.Errorf("%w: %dx%d too small for a maze", grid.ErrInvalidDimension, width, height)
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	cells := make([]grid.Cell, width*height)
	for i := range cells {
		cells[i] = grid.Wall
	}
	at := func(r, c int) *grid.Cell { return &cells[r*width+c] }
	isRoom := func(r, c int) bool {
		return r >= 0 && c >= 0 && r <= lastRow && c <= lastCol
	}
	dirs := [4][2]int{{-2, 0}, {0, 2}, {2, 0}, {0, -2}}

	// Carve.
	stack := [][2]int{{0, 0}}
	*at(0, 0) = grid.Ground
	var cand [][2]int
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		cand = cand[:0]
		for _, d := range dirs {
			r, c := cur[0]+d[0], cur[1]+d[1]
			if isRoom(r, c) && *at(r, c) == grid.Wall {
				cand = append(cand, d)
			}
		}
		if len(cand) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		d := cand[rng.IntN(len(cand))]
		*at(cur[0]+d[0]/2, cur[1]+d[1]/2) = grid.Ground
		next := [2]int{cur[0] + d[0], cur[1] + d[1]}
		*at(next[0], next[1]) = grid.Ground
		stack = append(stack, next)
	}

	// Braid.
	if braid > 0 {
		for r := 0; r <= lastRow; r += 2 {
			for c := 0; c <= lastCol; c += 2 {
				exits := 0
				cand = cand[:0]
				for _, d := range dirs {
					nr, nc := r+d[0], c+d[1]
					if !isRoom(nr, nc) {
						continue
					}
					if *at(r+d[0]/2, c+d[1]/2) == grid.Ground {
						exits++
					} else {
						cand = append(cand, d)
					}
				}
				if exits == 1 && len(cand) > 0 && rng.Float64() < braid {
					d := cand[rng.IntN(len(cand))]
					*at(r+d[0]/2, c+d[1]/2) = grid.Ground
				}
			}
		}
	}

	*at(0, 0) = grid.Start
	*at(lastRow, lastCol) = grid.End

	l := &Layout{Name: KindMaze, Width: width, Height: height, Cells: cells}
	if _, err := l.Grid(); err != nil {
		return nil, err
	}
	return l, nil
}
