// Package snapshot exports read-only views of the arena for rendering.
//
// A snapshot carries cell classifications only. Trail strength and agent
// state never leave the engine through this package.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/nvandessel/pheromones/internal/grid"
)

// HeaderSize is the size of an encoded frame header in bytes.
const HeaderSize = 8

// ErrBadFrame is returned when decoding a truncated or inconsistent frame.
var ErrBadFrame = errors.New("bad snapshot frame")

// Export returns an owned row-major copy of the grid, one byte per cell.
func Export(g *grid.Grid) []byte {
	return g.AppendBytes(make([]byte, 0, g.Size()))
}

// Frame is a point-in-time snapshot tagged with the tick it was taken at.
type Frame struct {
	Tick   uint64 `json:"tick"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Cells  []byte `json:"cells"`
}

// Capture takes a frame of g at tick.
func Capture(g *grid.Grid, tick uint64) Frame {
	return Frame{
		Tick:   tick,
		Width:  g.Width(),
		Height: g.Height(),
		Cells:  Export(g),
	}
}

// At returns the cell at (row, col). The caller must stay in bounds.
func (f Frame) At(row, col int) grid.Cell {
	return grid.Cell(f.Cells[row*f.Width+col])
}

// Encode serializes the frame: a big-endian header of uint32 tick, uint16
// width and uint16 height, followed by the cells. The tick wraps modulo 2^32.
func (f Frame) Encode() ([]byte, error) {
	if f.Width <= 0 || f.Height <= 0 || f.Width > math.MaxUint16 || f.Height > math.MaxUint16 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrBadFrame, f.Width, f.Height)
	}
	if len(f.Cells) != f.Width*f.Height {
		return nil, fmt.Errorf("%w: %d cells for %dx%d", ErrBadFrame, len(f.Cells), f.Width, f.Height)
	}
	buf := make([]byte, HeaderSize, HeaderSize+len(f.Cells))
	binary.BigEndian.PutUint32(buf[0:4], uint32(f.Tick))
	binary.BigEndian.PutUint16(buf[4:6], uint16(f.Width))
	binary.BigEndian.PutUint16(buf[6:8], uint16(f.Height))
	return append(buf, f.Cells...), nil
}

// Decode parses an encoded frame. The returned cells are a copy.
func Decode(data []byte) (Frame, error) {
	if len(data) < HeaderSize {
		return Frame{}, fmt.Errorf("%w: %d bytes, header needs %d", ErrBadFrame, len(data), HeaderSize)
	}
	f := Frame{
		Tick:   uint64(binary.BigEndian.Uint32(data[0:4])),
		Width:  int(binary.BigEndian.Uint16(data[4:6])),
		Height: int(binary.BigEndian.Uint16(data[6:8])),
	}
	body := data[HeaderSize:]
	if len(body) != f.Width*f.Height {
		return Frame{}, fmt.Errorf("%w: %d cells for %dx%d", ErrBadFrame, len(body), f.Width, f.Height)
	}
	for i, b := range body {
		if !grid.Cell(b).Valid() {
			return Frame{}, fmt.Errorf("%w: cell %d has value %d", ErrBadFrame, i, b)
		}
	}
	f.Cells = append([]byte(nil), body...)
	return f, nil
}

// ASCII renders the frame using the layout runes, one line per row.
func (f Frame) ASCII() string {
	var sb strings.Builder
	sb.Grow((f.Width + 1) * f.Height)
	for row := 0; row < f.Height; row++ {
		for col := 0; col < f.Width; col++ {
			sb.WriteRune(f.At(row, col).Rune())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
