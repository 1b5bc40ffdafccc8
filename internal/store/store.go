// Package store persists arena layouts and run reports.
//
// It never stores in-flight simulation state: trail strength and agents
// live only inside a running Universe.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/pheromones/internal/layout"
	"github.com/nvandessel/pheromones/internal/universe"
)

var (
	// ErrNotFound is returned when a layout or run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidName is returned for layout names outside [A-Za-z0-9_.-]{1,64}.
	ErrInvalidName = errors.New("invalid layout name")
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// ValidateName checks a layout name.
func ValidateName(name string) error {
	if !nameRE.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// LayoutInfo summarizes a saved layout.
type LayoutInfo struct {
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Walls     int       `json:"walls"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Run is the report of one headless or hosted simulation run.
type Run struct {
	ID            string          `json:"id"`
	Layout        string          `json:"layout"`
	Ticks         uint64          `json:"ticks"`
	Arrivals      uint64          `json:"arrivals"`
	Stuck         uint64          `json:"stuck"`
	BestPath      int             `json:"best_path"`
	TotalStrength float64         `json:"total_strength"`
	Params        universe.Config `json:"params"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
}

// NewRun starts a report with a fresh ID.
func NewRun(layoutName string, params universe.Config, startedAt time.Time) Run {
	return Run{
		ID:        uuid.NewString(),
		Layout:    layoutName,
		Params:    params,
		StartedAt: startedAt.UTC(),
	}
}

// Finish copies the final stats into the report.
func (r *Run) Finish(st universe.Stats, at time.Time) {
	r.Ticks = st.Tick
	r.Arrivals = st.Arrivals
	r.Stuck = st.Stuck
	r.BestPath = st.BestPath
	r.TotalStrength = st.TotalStrength
	r.FinishedAt = at.UTC()
}

// Duration returns the wall-clock length of the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists layouts and run reports.
type Store interface {
	// SaveLayout inserts or replaces a layout under l.Name.
	SaveLayout(ctx context.Context, l *layout.Layout) error
	GetLayout(ctx context.Context, name string) (*layout.Layout, error)
	ListLayouts(ctx context.Context) ([]LayoutInfo, error)
	DeleteLayout(ctx context.Context, name string) error

	RecordRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns the most recent runs first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Close() error
}

func checkLayout(l *layout.Layout) error {
	if l == nil {
		return fmt.Errorf("layout is nil")
	}
	if err := ValidateName(l.Name); err != nil {
		return err
	}
	if _, err := l.Grid(); err != nil {
		return fmt.Errorf("layout %q: %w", l.Name, err)
	}
	return nil
}

func checkRun(r Run) error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("run id %q: %w", r.ID, err)
	}
	return nil
}
