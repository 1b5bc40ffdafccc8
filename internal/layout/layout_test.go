package layout

import (
	"errors"
	"strings"
	"testing"

	"github.com/nvandessel/pheromones/internal/grid"
)

func TestParse(t *testing.T) {
	text := "S.#\n.#.\n..E\n"
	l, err := ParseString(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if l.Width != 3 || l.Height != 3 {
		t.Errorf("size = %dx%d, want 3x3", l.Width, l.Height)
	}
	if l.Count(grid.Wall) != 2 {
		t.Errorf("walls = %d, want 2", l.Count(grid.Wall))
	}
	if got := l.String(); got != text {
		t.Errorf("String() = %q, want %q", got, text)
	}
}

func TestParse_ToleratesBlankLinesAndCRLF(t *testing.T) {
	l, err := ParseString("\r\nSE\r\n\r\n..\r\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if l.Width != 2 || l.Height != 2 {
		t.Errorf("size = %dx%d, want 2x2", l.Width, l.Height)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"ragged", "S..\n.E\n"},
		{"unknown rune", "S?E\n"},
		{"no start", "..E\n"},
		{"no end", "S..\n"},
		{"two starts", "S.S\n..E\n"},
		{"two ends", "SEE\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.text)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformed", tt.text, err)
			}
		})
	}
}

func TestLayout_Grid(t *testing.T) {
	l, err := ParseString("S#\n.E\n")
	if err != nil {
		t.Fatal(err)
	}
	g, err := l.Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	if c, _ := g.CellAt(0, 1); c != grid.Wall {
		t.Errorf("CellAt(0,1) = %s, want wall", c)
	}
	if g.Start() != 0 || g.End() != 3 {
		t.Errorf("start/end = %d/%d, want 0/3", g.Start(), g.End())
	}

	back := FromGrid("copy", g)
	if back.String() != l.String() {
		t.Errorf("FromGrid round trip = %q, want %q", back.String(), l.String())
	}
}

func TestEmpty(t *testing.T) {
	l, err := Empty(4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if l.Count(grid.Ground) != 10 || l.Count(grid.Wall) != 0 {
		t.Errorf("empty layout:\n%s", l)
	}
	if l.Cells[0] != grid.Start || l.Cells[11] != grid.End {
		t.Errorf("roles misplaced:\n%s", l)
	}
}

func TestStriped(t *testing.T) {
	l, err := Striped(8, 2)
	if err != nil {
		t.Fatal(err)
	}
	// i: 0 S, 1 #, 2 ., 3 #, 4 ., 5 #, 6 ., 7 .(7%7), 8 ., 9 #, 10 ., 11 #, 12 ., 13 #, 14 ., 15 E
	want := "S#.#.#..\n.#.#.#.E\n"
	if got := l.String(); got != want {
		t.Errorf("Striped =\n%s\nwant\n%s", got, want)
	}
}

func TestMaze(t *testing.T) {
	l, err := Maze(21, 15, 42, 0)
	if err != nil {
		t.Fatalf("Maze: %v", err)
	}
	if l.Cells[0] != grid.Start {
		t.Errorf("top-left = %s, want start", l.Cells[0])
	}
	if l.Cells[14*21+20] != grid.End {
		t.Errorf("bottom-right = %s, want end", l.Cells[14*21+20])
	}
	if !reachable(t, l) {
		t.Errorf("End unreachable in maze:\n%s", l)
	}
}

func TestMaze_EvenDimensions(t *testing.T) {
	l, err := Maze(10, 8, 7, 0.5)
	if err != nil {
		t.Fatalf("Maze: %v", err)
	}
	// End is the last even-coordinate room.
	if l.Cells[6*10+8] != grid.End {
		t.Errorf("end misplaced:\n%s", l)
	}
	if !reachable(t, l) {
		t.Errorf("End unreachable:\n%s", l)
	}
}

func TestMaze_Deterministic(t *testing.T) {
	a, _ := Maze(31, 31, 99, 0.3)
	b, _ := Maze(31, 31, 99, 0.3)
	if a.String() != b.String() {
		t.Error("same seed produced different mazes")
	}
}

func TestMaze_BraidAddsOpenings(t *testing.T) {
	perfect, _ := Maze(41, 41, 5, 0)
	braided, _ := Maze(41, 41, 5, 1)
	if braided.Count(grid.Wall) >= perfect.Count(grid.Wall) {
		t.Errorf("braided walls %d, perfect walls %d", braided.Count(grid.Wall), perfect.Count(grid.Wall))
	}
}

func TestMaze_TooSmall(t *testing.T) {
	if _, err := Maze(2, 2, 1, 0); !errors.Is(err, grid.ErrInvalidDimension) {
		t.Errorf("Maze(2,2) error = %v, want ErrInvalidDimension", err)
	}
}

func TestGenerate(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			l, err := Generate(kind, 9, 9, Options{Seed: 3})
			if err != nil {
				t.Fatalf("Generate(%s): %v", kind, err)
			}
			if l.Name != kind {
				t.Errorf("Name = %q, want %q", l.Name, kind)
			}
		})
	}
	if _, err := Generate("spiral", 9, 9, Options{}); err == nil || !strings.Contains(err.Error(), "spiral") {
		t.Errorf("unknown kind error = %v", err)
	}
}

// reachable runs a 4-connected flood fill from Start.
func reachable(t *testing.T, l *Layout) bool {
	t.Helper()
	g, err := l.Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	seen := make([]bool, g.Size())
	queue := []int{g.Start()}
	seen[g.Start()] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == g.End() {
			return true
		}
		for _, n := range g.Neighbors(cur, grid.Four, nil) {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}
