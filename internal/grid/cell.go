package grid

import "fmt"

// Cell classifies a single arena cell. The numeric values are the bytes
// exported to renderers and must not change.
type Cell uint8

const (
	Ground Cell = 0
	Wall   Cell = 1
	Start  Cell = 2
	End    Cell = 3
)

// String returns the variant name.
func (c Cell) String() string {
	switch c {
	case Ground:
		return "Ground"
	case Wall:
		return "Wall"
	case Start:
		return "Start"
	case End:
		return "End"
	default:
		return fmt.Sprintf("Cell(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the four known variants.
func (c Cell) Valid() bool {
	return c <= End
}

// Rune returns the text-layout rune for c.
func (c Cell) Rune() rune {
	switch c {
	case Wall:
		return '#'
	case Start:
		return 'S'
	case End:
		return 'E'
	default:
		return '.'
	}
}

// CellFromRune is the inverse of Cell.Rune.
func CellFromRune(r rune) (Cell, bool) {
	switch r {
	case '.':
		return Ground, true
	case '#':
		return Wall, true
	case 'S':
		return Start, true
	case 'E':
		return End, true
	default:
		return Ground, false
	}
}

// Pos is a 0-based (row, col) coordinate.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}
