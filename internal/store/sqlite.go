package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/layout"
)

// DBFile is the database file name inside the data directory.
const DBFile = "pheromones.db"

// SQLiteStore implements Store on a single SQLite database.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) dir/pheromones.db.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dir, DBFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.dbPath }

// SaveLayout inserts or replaces a layout.
func (s *SQLiteStore) SaveLayout(ctx context.Context, l *layout.Layout) error {
	if err := checkLayout(l); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO layouts (name, width, height, walls, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			walls = excluded.walls,
			body = excluded.body,
			updated_at = excluded.updated_at
	`, l.Name, l.Width, l.Height, l.Count(grid.Wall), l.String(), now, now)
	if err != nil {
		return fmt.Errorf("failed to save layout %q: %w", l.Name, err)
	}
	return nil
}

// GetLayout loads a layout by name.
func (s *SQLiteStore) GetLayout(ctx context.Context, name string) (*layout.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM layouts WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("layout %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load layout %q: %w", name, err)
	}
	l, err := layout.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("stored layout %q: %w", name, err)
	}
	l.Name = name
	return l, nil
}

// ListLayouts returns every saved layout, ordered by name.
func (s *SQLiteStore) ListLayouts(ctx context.Context) ([]LayoutInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT name, width, height, walls, updated_at FROM layouts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query layouts: %w", err)
	}
	defer rows.Close()

	var out []LayoutInfo
	for rows.Next() {
		var info LayoutInfo
		var updated string
		if err := rows.Scan(&info.Name, &info.Width, &info.Height, &info.Walls, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan layout: %w", err)
		}
		info.UpdatedAt = parseTime(updated)
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteLayout removes a layout. Deleting a missing layout is ErrNotFound.
func (s *SQLiteStore) DeleteLayout(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete layout %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("layout %q: %w", name, ErrNotFound)
	}
	return nil
}

// RecordRun inserts or replaces a run report.
func (s *SQLiteStore) RecordRun(ctx context.Context, r Run) error {
	if err := checkRun(r); err != nil {
		return err
	}
	params, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal run params: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var finished *string
	if !r.FinishedAt.IsZero() {
		f := formatTime(r.FinishedAt)
		finished = &f
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, layout, ticks, arrivals, stuck, best_path, total_strength, params, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Layout, int64(r.Ticks), int64(r.Arrivals), int64(r.Stuck), r.BestPath, r.TotalStrength,
		string(params), formatTime(r.StartedAt), finished)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.ID, err)
	}
	return nil
}

const runColumns = `id, layout, ticks, arrivals, stuck, best_path, total_strength, params, started_at, finished_at`

// GetRun loads a run report by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r                 Run
		ticks, arr, stuck int64
		params, started   string
		finished          sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Layout, &ticks, &arr, &stuck, &r.BestPath, &r.TotalStrength,
		&params, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	r.Ticks, r.Arrivals, r.Stuck = uint64(ticks), uint64(arr), uint64(stuck)
	if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
		return nil, fmt.Errorf("run %s: corrupt params: %w", r.ID, err)
	}
	r.StartedAt = parseTime(started)
	if finished.Valid {
		r.FinishedAt = parseTime(finished.String)
	}
	return &r, nil
}

// timeLayout keeps a fixed number of fractional digits so stored times sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
