// Package layout describes arena layouts: the initial cell classification of
// a grid, independent of any running simulation. Layouts have a plain text
// form, one line per row:
//
//	. Ground   # Wall   S Start   E End
package layout

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nvandessel/pheromones/internal/grid"
)

// ErrMalformed is returned when layout text cannot be parsed.
var ErrMalformed = errors.New("malformed layout")

// Layout is a named arena description.
type Layout struct {
	Name   string      `json:"name,omitempty"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Cells  []grid.Cell `json:"-"`
}

// Grid builds a validated grid from the layout.
func (l *Layout) Grid() (*grid.Grid, error) {
	return grid.FromCells(l.Width, l.Height, l.Cells)
}

// FromGrid captures the current classification of g.
func FromGrid(name string, g *grid.Grid) *Layout {
	return &Layout{
		Name:   name,
		Width:  g.Width(),
		Height: g.Height(),
		Cells:  g.Cells(),
	}
}

// Parse reads the text form. Blank lines are ignored. Every row must have
// the same width and the layout must hold exactly one Start and one End.
func Parse(r io.Reader) (*Layout, error) {
	var (
		cells  []grid.Cell
		width  int
		height int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r \t")
		if line == "" {
			continue
		}
		row := []rune(line)
		if height == 0 {
			width = len(row)
		} else if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformed, height, len(row), width)
		}
		for col, r := range row {
			c, ok := grid.CellFromRune(r)
			if !ok {
				return nil, fmt.Errorf("%w: unknown cell %q at row %d col %d", ErrMalformed, r, height, col)
			}
			cells = append(cells, c)
		}
		height++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}
	if height == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrMalformed)
	}

	l := &Layout{Width: width, Height: height, Cells: cells}
	if _, err := l.Grid(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return l, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Layout, error) {
	return Parse(strings.NewReader(s))
}

// Format writes the text form, one newline-terminated line per row.
func (l *Layout) Format(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for row := 0; row < l.Height; row++ {
		for _, c := range l.Cells[row*l.Width : (row+1)*l.Width] {
			bw.WriteRune(c.Rune())
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// String returns the text form.
func (l *Layout) String() string {
	var sb strings.Builder
	_ = l.Format(&sb)
	return sb.String()
}

// Count returns how many cells hold c.
func (l *Layout) Count(c grid.Cell) int {
	n := 0
	for _, v := range l.Cells {
		if v == c {
			n++
		}
	}
	return n
}
