// Package grid implements the arena: a fixed width x height board of cells,
// each classified as Ground, Wall, Start, or End.
//
// A Grid always holds exactly one Start and exactly one End, on distinct
// cells, and neither is ever a Wall. Mutators validate their input before
// writing anything, so a failed call leaves the grid untouched.
package grid

import (
	"fmt"
)

// Connectivity is the neighborhood used for movement.
type Connectivity int

const (
	// Four connects orthogonal neighbors only.
	Four Connectivity = 4
	// Eight also connects diagonal neighbors.
	Eight Connectivity = 8
)

// Valid reports whether c is Four or Eight.
func (c Connectivity) Valid() bool {
	return c == Four || c == Eight
}

var (
	orthogonal = [4][2]int{{-1, 0}, {0, 1}, {1, 0}, {0, -1}}
	diagonal   = [4][2]int{{-1, 1}, {1, 1}, {1, -1}, {-1, -1}}
)

// Grid is a row-major arena of cells. Cells are addressed either by (row, col)
// or by their flat index row*width+col.
type Grid struct {
	width  int
	height int
	cells  []Cell
	start  int
	end    int
}

// New allocates a Ground-filled grid with Start at the top-left corner and
// End at the bottom-right corner. It fails with ErrInvalidDimension when
// either dimension is zero or negative, or when the grid has a single cell
// and cannot hold two distinct roles.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}
	if width*height < 2 {
		return nil, fmt.Errorf("%w: %dx%d cannot hold both Start and End", ErrInvalidDimension, width, height)
	}

	g := &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		start:  0,
		end:    width*height - 1,
	}
	g.cells[g.start] = Start
	g.cells[g.end] = End
	return g, nil
}

// FromCells builds a grid from a row-major cell slice. The slice is copied.
// It must contain exactly one Start and exactly one End.
func FromCells(width, height int, cells []Cell) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("%w: got %d cells for %dx%d", ErrInvalidDimension, len(cells), width, height)
	}

	g := &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, len(cells)),
		start:  -1,
		end:    -1,
	}
	for i, c := range cells {
		if !c.Valid() {
			return nil, fmt.Errorf("unknown cell value %d at index %d", c, i)
		}
		switch c {
		case Start:
			if g.start >= 0 {
				return nil, fmt.Errorf("%w: more than one Start", ErrRoleConflict)
			}
			g.start = i
		case End:
			if g.end >= 0 {
				return nil, fmt.Errorf("%w: more than one End", ErrRoleConflict)
			}
			g.end = i
		}
		g.cells[i] = c
	}
	if g.start < 0 || g.end < 0 {
		return nil, fmt.Errorf("grid needs exactly one Start and one End")
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Size returns width*height.
func (g *Grid) Size() int { return len(g.cells) }

// InBounds reports whether (row, col) lies inside the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.height && col >= 0 && col < g.width
}

// Index returns the flat index of (row, col). The caller must check bounds.
func (g *Grid) Index(row, col int) int {
	return row*g.width + col
}

// Pos returns the coordinate of a flat index.
func (g *Grid) Pos(idx int) Pos {
	return Pos{Row: idx / g.width, Col: idx % g.width}
}

// At returns the cell at a flat index.
func (g *Grid) At(idx int) Cell {
	return g.cells[idx]
}

// IsWall reports whether the cell at a flat index is a Wall.
func (g *Grid) IsWall(idx int) bool {
	return g.cells[idx] == Wall
}

// Start returns the flat index of the Start cell.
func (g *Grid) Start() int { return g.start }

// End returns the flat index of the End cell.
func (g *Grid) End() int { return g.end }

// CellAt returns the classification at (row, col).
func (g *Grid) CellAt(row, col int) (Cell, error) {
	if err := g.check(row, col); err != nil {
		return Ground, err
	}
	return g.cells[g.Index(row, col)], nil
}

// ToggleWall flips Ground and Wall at (row, col) and returns the new
// classification. Start and End are protected.
func (g *Grid) ToggleWall(row, col int) (Cell, error) {
	if err := g.check(row, col); err != nil {
		return Ground, err
	}
	idx := g.Index(row, col)
	switch g.cells[idx] {
	case Ground:
		g.cells[idx] = Wall
	case Wall:
		g.cells[idx] = Ground
	default:
		return g.cells[idx], fmt.Errorf("%w: %s at %s", ErrProtectedCell, g.cells[idx], Pos{row, col})
	}
	return g.cells[idx], nil
}

// SetStart moves the Start marker to (row, col). A Wall there is cleared and
// the previous Start reverts to Ground. It reports whether the marker moved.
func (g *Grid) SetStart(row, col int) (bool, error) {
	return g.setRole(row, col, Start, &g.start, g.end)
}

// SetEnd moves the End marker to (row, col). Symmetric to SetStart.
func (g *Grid) SetEnd(row, col int) (bool, error) {
	return g.setRole(row, col, End, &g.end, g.start)
}

func (g *Grid) setRole(row, col int, role Cell, holder *int, other int) (bool, error) {
	if err := g.check(row, col); err != nil {
		return false, err
	}
	idx := g.Index(row, col)
	if idx == other {
		return false, fmt.Errorf("%w: %s already holds %s", ErrRoleConflict, Pos{row, col}, g.cells[other])
	}
	if idx == *holder {
		return false, nil
	}
	g.cells[*holder] = Ground
	g.cells[idx] = role
	*holder = idx
	return true, nil
}

// Neighbors appends to dst the in-bounds, non-Wall neighbors of idx and
// returns the extended slice. With Eight connectivity a diagonal step is only
// allowed when neither orthogonal cell it passes is a Wall.
func (g *Grid) Neighbors(idx int, conn Connectivity, dst []int) []int {
	row, col := idx/g.width, idx%g.width
	for _, d := range orthogonal {
		r, c := row+d[0], col+d[1]
		if !g.InBounds(r, c) {
			continue
		}
		n := g.Index(r, c)
		if g.cells[n] != Wall {
			dst = append(dst, n)
		}
	}
	if conn != Eight {
		return dst
	}
	for _, d := range diagonal {
		r, c := row+d[0], col+d[1]
		if !g.InBounds(r, c) {
			continue
		}
		n := g.Index(r, c)
		if g.cells[n] == Wall {
			continue
		}
		if g.cells[g.Index(row, c)] == Wall || g.cells[g.Index(r, col)] == Wall {
			continue
		}
		dst = append(dst, n)
	}
	return dst
}

// Distance returns the movement distance between two flat indices: Manhattan
// distance for Four connectivity, Chebyshev distance for Eight.
func (g *Grid) Distance(a, b int, conn Connectivity) int {
	dr := abs(a/g.width - b/g.width)
	dc := abs(a%g.width - b%g.width)
	if conn == Eight {
		return max(dr, dc)
	}
	return dr + dc
}

// Cells returns a copy of the row-major cell slice.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// AppendBytes appends one byte per cell, row-major, to dst.
func (g *Grid) AppendBytes(dst []byte) []byte {
	for _, c := range g.cells {
		dst = append(dst, byte(c))
	}
	return dst
}

// Count returns how many cells hold the given classification.
func (g *Grid) Count(c Cell) int {
	n := 0
	for _, v := range g.cells {
		if v == c {
			n++
		}
	}
	return n
}

func (g *Grid) check(row, col int) error {
	if !g.InBounds(row, col) {
		return fmt.Errorf("%w: %s outside %dx%d", ErrOutOfBounds, Pos{row, col}, g.height, g.width)
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
