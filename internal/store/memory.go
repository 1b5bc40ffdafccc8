package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/layout"
)

// InMemoryStore implements Store for tests and throwaway sessions.
type InMemoryStore struct {
	mu      sync.RWMutex
	layouts map[string]memLayout
	runs    map[string]Run
}

type memLayout struct {
	l       layout.Layout
	updated time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		layouts: make(map[string]memLayout),
		runs:    make(map[string]Run),
	}
}

// SaveLayout stores a copy of l.
func (s *InMemoryStore) SaveLayout(ctx context.Context, l *layout.Layout) error {
	if err := checkLayout(l); err != nil {
		return err
	}
	cp := *l
	cp.Cells = append([]grid.Cell(nil), l.Cells...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[l.Name] = memLayout{l: cp, updated: time.Now().UTC()}
	return nil
}

// GetLayout returns a copy of the named layout.
func (s *InMemoryStore) GetLayout(ctx context.Context, name string) (*layout.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.layouts[name]
	if !ok {
		return nil, fmt.Errorf("layout %q: %w", name, ErrNotFound)
	}
	cp := m.l
	cp.Cells = append([]grid.Cell(nil), m.l.Cells...)
	return &cp, nil
}

// ListLayouts returns every layout ordered by name.
func (s *InMemoryStore) ListLayouts(ctx context.Context) ([]LayoutInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LayoutInfo, 0, len(s.layouts))
	for _, m := range s.layouts {
		out = append(out, LayoutInfo{
			Name:      m.l.Name,
			Width:     m.l.Width,
			Height:    m.l.Height,
			Walls:     m.l.Count(grid.Wall),
			UpdatedAt: m.updated,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteLayout removes a layout.
func (s *InMemoryStore) DeleteLayout(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layouts[name]; !ok {
		return fmt.Errorf("layout %q: %w", name, ErrNotFound)
	}
	delete(s.layouts, name)
	return nil
}

// RecordRun inserts or replaces a run.
func (s *InMemoryStore) RecordRun(ctx context.Context, r Run) error {
	if err := checkRun(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
	return nil
}

// GetRun returns a run by ID.
func (s *InMemoryStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return &r, nil
}

// ListRuns returns runs newest first.
func (s *InMemoryStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }
