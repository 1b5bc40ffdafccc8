package universe

import "github.com/nvandessel/pheromones/internal/colony"

// Stats summarizes a Universe.
type Stats struct {
	Tick uint64 `json:"tick"`

	// Arrivals and Stuck are lifetime totals of recycled agents.
	Arrivals uint64 `json:"arrivals"`
	Stuck    uint64 `json:"stuck"`

	TickArrivals int `json:"tick_arrivals"`
	TickStuck    int `json:"tick_stuck"`

	// BestPath is the shortest successful path, in steps, since the last
	// topology edit that could invalidate it. Zero means none yet.
	BestPath int `json:"best_path"`

	Agents    int `json:"agents"`
	Searching int `json:"searching"`

	TotalStrength float64 `json:"total_strength"`
	MaxStrength   float64 `json:"max_strength"`
}

// Stats returns the current summary.
func (u *Universe) Stats() Stats {
	s := u.stats
	s.Tick = u.tick
	s.Agents = u.pool.Len()
	s.Searching = u.pool.Counts()[colony.Searching]
	s.TotalStrength = u.field.Total()
	s.MaxStrength = u.field.Max()
	return s
}

// TickCount returns the number of completed ticks.
func (u *Universe) TickCount() uint64 { return u.tick }
