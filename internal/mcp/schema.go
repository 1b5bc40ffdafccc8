package mcp

import (
	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/universe"
)

// InfoInput defines the input for pheromones_info tool.
type InfoInput struct{}

// InfoOutput defines the output for pheromones_info tool.
type InfoOutput struct {
	Width  int             `json:"width" jsonschema:"Number of columns"`
	Height int             `json:"height" jsonschema:"Number of rows"`
	Start  grid.Pos        `json:"start" jsonschema:"Position of the Start cell"`
	End    grid.Pos        `json:"end" jsonschema:"Position of the End cell"`
	Tick   uint64          `json:"tick" jsonschema:"Number of completed ticks"`
	Config universe.Config `json:"config" jsonschema:"Engine parameters"`
}

// CellInput addresses one grid cell.
type CellInput struct {
	Row int `json:"row" jsonschema:"Zero-based row"`
	Col int `json:"col" jsonschema:"Zero-based column"`
}

// ToggleWallOutput defines the output for pheromones_toggle_wall tool.
type ToggleWallOutput struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Cell string `json:"cell" jsonschema:"Cell variant after the toggle: Ground or Wall"`
}

// SetRoleOutput defines the output for pheromones_set_start and pheromones_set_end.
type SetRoleOutput struct {
	Start grid.Pos `json:"start"`
	End   grid.Pos `json:"end"`
}

// TickInput defines the input for pheromones_tick tool.
type TickInput struct {
	N int `json:"n,omitempty" jsonschema:"Number of ticks to run (default 1)"`
}

// TickOutput defines the output for pheromones_tick tool.
type TickOutput struct {
	Ran   int            `json:"ran" jsonschema:"Ticks executed by this call"`
	Stats universe.Stats `json:"stats"`
}

// CellsInput defines the input for pheromones_cells tool.
type CellsInput struct {
	Format string `json:"format,omitempty" jsonschema:"Either ascii (default) or bytes"`
}

// CellsOutput defines the output for pheromones_cells tool.
type CellsOutput struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tick   uint64 `json:"tick"`
	ASCII  string `json:"ascii,omitempty" jsonschema:"One line per row: . Ground, # Wall, S Start, E End"`
	Cells  []byte `json:"cells,omitempty" jsonschema:"Row-major cell codes (0 Ground, 1 Wall, 2 Start, 3 End), base64 encoded"`
}

// StatsInput defines the input for pheromones_stats tool.
type StatsInput struct{}
