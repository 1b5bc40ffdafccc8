// Package viewer renders a Universe in the terminal and lets the user edit it.
//
// Each grid cell takes two terminal columns so cells come out roughly square.
// The bottom line shows tick, arrivals and the current mode. Only the cell
// snapshot and the run stats are drawn; trail strength and agent positions
// stay inside the engine.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/nvandessel/pheromones/internal/constants"
	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/logging"
	"github.com/nvandessel/pheromones/internal/universe"
)

// cellWidth is the number of terminal columns per grid cell.
const cellWidth = 2

var (
	groundColor = tcell.NewRGBColor(0xFF, 0xFF, 0xFF)
	wallColor   = tcell.NewRGBColor(0x00, 0x00, 0x00)
	startColor  = tcell.NewRGBColor(0xFF, 0x00, 0x00)
	endColor    = tcell.NewRGBColor(0x00, 0xFF, 0x00)
)

// Options configures a Viewer.
type Options struct {
	// TickInterval is the play cadence. Zero means the default.
	TickInterval time.Duration
	Logger       *slog.Logger
}

// Viewer draws a Universe to a tcell screen. It is not safe for concurrent
// use; Run owns both the screen and the Universe.
type Viewer struct {
	screen   tcell.Screen
	uni      *universe.Universe
	interval time.Duration
	logger   *slog.Logger

	playing bool
	// armed is Start or End while the next click moves that role.
	armed   grid.Cell
	message string
	buttons tcell.ButtonMask
}

// New creates a viewer. The screen must already be initialized.
func New(screen tcell.Screen, u *universe.Universe, opts Options) *Viewer {
	v := &Viewer{
		screen:   screen,
		uni:      u,
		interval: opts.TickInterval,
		logger:   opts.Logger,
		armed:    grid.Ground,
	}
	if v.interval <= 0 {
		v.interval = constants.DefaultTickIntervalMs * time.Millisecond
	}
	if v.logger == nil {
		v.logger = logging.Discard()
	}
	return v
}

// Playing reports whether the viewer is auto-ticking.
func (v *Viewer) Playing() bool { return v.playing }

// Message returns the last status message, usually an edit error.
func (v *Viewer) Message() string { return v.message }

// Run processes input and ticks while playing until the user quits or ctx
// is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	v.screen.EnableMouse()
	defer v.screen.DisableMouse()

	events := make(chan tcell.Event, 100)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if v.HandleEvent(ev) {
				return nil
			}
			v.Draw()
		case <-ticker.C:
			if v.playing {
				v.uni.Tick()
				v.Draw()
			}
		}
	}
}

// HandleEvent applies one input event. It returns true when the user asked
// to quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev)
	case *tcell.EventMouse:
		v.handleMouse(ev)
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return false
}

func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q':
		return true
	case ' ':
		v.playing = !v.playing
		v.logger.Debug("play toggled", "playing", v.playing)
	case 'n':
		v.uni.Tick()
	case 's':
		v.arm(grid.Start)
	case 'e':
		v.arm(grid.End)
	}
	return false
}

func (v *Viewer) arm(role grid.Cell) {
	if v.armed == role {
		v.armed = grid.Ground
		v.message = ""
		return
	}
	v.armed = role
	v.message = "click to place " + role.String()
}

// handleMouse acts on a primary-button press. Holding the button does not
// repeat the edit.
func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	pressed := ev.Buttons()&tcell.Button1 != 0 && v.buttons&tcell.Button1 == 0
	v.buttons = ev.Buttons()
	if !pressed {
		return
	}

	x, y := ev.Position()
	row, col := y, x/cellWidth
	if row >= v.uni.Height() || col >= v.uni.Width() {
		return
	}

	var err error
	switch v.armed {
	case grid.Start:
		err = v.uni.SetStart(row, col)
	case grid.End:
		err = v.uni.SetEnd(row, col)
	default:
		_, err = v.uni.ToggleWall(row, col)
	}
	v.armed = grid.Ground
	if err != nil {
		v.message = err.Error()
		return
	}
	v.message = ""
}

// Draw renders the arena and the status line.
func (v *Viewer) Draw() {
	v.screen.Clear()
	sw, sh := v.screen.Size()

	frame := v.uni.Frame()
	st := v.uni.Stats()
	for row := 0; row < frame.Height && row < sh; row++ {
		for col := 0; col < frame.Width && col*cellWidth < sw; col++ {
			style := tcell.StyleDefault.Background(cellColor(frame.At(row, col)))
			for i := 0; i < cellWidth; i++ {
				v.screen.SetContent(col*cellWidth+i, row, ' ', nil, style)
			}
		}
	}

	if frame.Height < sh {
		v.drawText(0, frame.Height, v.statusLine(st))
	}
	v.screen.Show()
}

func (v *Viewer) statusLine(st universe.Stats) string {
	state := "paused"
	if v.playing {
		state = "playing"
	}
	line := fmt.Sprintf("tick %d  arrivals %d  best %d  %s", st.Tick, st.Arrivals, st.BestPath, state)
	if v.message != "" {
		line += "  | " + v.message
	}
	return line
}

func (v *Viewer) drawText(x, y int, text string) {
	for _, r := range text {
		v.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		x++
	}
}

func cellColor(c grid.Cell) tcell.Color {
	switch c {
	case grid.Wall:
		return wallColor
	case grid.Start:
		return startColor
	case grid.End:
		return endColor
	default:
		return groundColor
	}
}
