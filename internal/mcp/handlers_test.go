package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/pheromones/internal/constants"
	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/ratelimit"
)

func TestHandleInfo(t *testing.T) {
	server, _ := setupTestServer(t, "S...\n...E\n")

	_, out, err := server.handleInfo(context.Background(), &sdk.CallToolRequest{}, InfoInput{})
	if err != nil {
		t.Fatalf("handleInfo: %v", err)
	}
	if out.Width != 4 || out.Height != 2 {
		t.Errorf("dimensions = %dx%d, want 4x2", out.Width, out.Height)
	}
	if out.Start != (grid.Pos{Row: 0, Col: 0}) || out.End != (grid.Pos{Row: 1, Col: 3}) {
		t.Errorf("roles = %v %v", out.Start, out.End)
	}
	if out.Config.Agents != 4 {
		t.Errorf("Config.Agents = %d, want 4", out.Config.Agents)
	}
}

func TestHandleToggleWall(t *testing.T) {
	server, _ := setupTestServer(t, "S..\n..E\n")
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	_, out, err := server.handleToggleWall(ctx, req, CellInput{Row: 0, Col: 1})
	if err != nil {
		t.Fatalf("handleToggleWall: %v", err)
	}
	if out.Cell != "Wall" {
		t.Errorf("Cell = %q, want Wall", out.Cell)
	}
	_, out, _ = server.handleToggleWall(ctx, req, CellInput{Row: 0, Col: 1})
	if out.Cell != "Ground" {
		t.Errorf("second toggle Cell = %q, want Ground", out.Cell)
	}

	tests := []struct {
		name string
		in   CellInput
		want error
	}{
		{"out of bounds", CellInput{Row: 5, Col: 0}, grid.ErrOutOfBounds},
		{"negative", CellInput{Row: -1, Col: 0}, grid.ErrOutOfBounds},
		{"start", CellInput{Row: 0, Col: 0}, grid.ErrProtectedCell},
		{"end", CellInput{Row: 1, Col: 2}, grid.ErrProtectedCell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := server.handleToggleWall(ctx, req, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHandleSetStartEnd(t *testing.T) {
	server, _ := setupTestServer(t, "S..\n...\n..E\n")
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	_, out, err := server.handleSetStart(ctx, req, CellInput{Row: 1, Col: 1})
	if err != nil {
		t.Fatalf("handleSetStart: %v", err)
	}
	if out.Start != (grid.Pos{Row: 1, Col: 1}) {
		t.Errorf("Start = %v, want (1,1)", out.Start)
	}

	_, out, err = server.handleSetEnd(ctx, req, CellInput{Row: 0, Col: 2})
	if err != nil {
		t.Fatalf("handleSetEnd: %v", err)
	}
	if out.End != (grid.Pos{Row: 0, Col: 2}) {
		t.Errorf("End = %v, want (0,2)", out.End)
	}

	if _, _, err := server.handleSetEnd(ctx, req, CellInput{Row: 1, Col: 1}); !errors.Is(err, grid.ErrRoleConflict) {
		t.Errorf("SetEnd onto Start error = %v, want ErrRoleConflict", err)
	}
	if _, _, err := server.handleSetStart(ctx, req, CellInput{Row: 9, Col: 9}); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("SetStart out of bounds error = %v, want ErrOutOfBounds", err)
	}
}

func TestHandleTick(t *testing.T) {
	server, _ := setupTestServer(t, "SE\n")
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	_, out, err := server.handleTick(ctx, req, TickInput{})
	if err != nil {
		t.Fatalf("handleTick: %v", err)
	}
	if out.Ran != 1 || out.Stats.Tick != 1 {
		t.Errorf("default tick: ran=%d tick=%d, want 1 and 1", out.Ran, out.Stats.Tick)
	}
	if out.Stats.TickArrivals != 4 {
		t.Errorf("TickArrivals = %d, want 4", out.Stats.TickArrivals)
	}

	_, out, err = server.handleTick(ctx, req, TickInput{N: 10})
	if err != nil {
		t.Fatalf("handleTick(10): %v", err)
	}
	if out.Stats.Tick != 11 {
		t.Errorf("Tick = %d, want 11", out.Stats.Tick)
	}

	for _, n := range []int{-1, constants.MaxTicksPerRequest + 1} {
		if _, _, err := server.handleTick(ctx, req, TickInput{N: n}); err == nil {
			t.Errorf("n=%d: expected error", n)
		}
	}
}

func TestHandleTick_Cancelled(t *testing.T) {
	server, _ := setupTestServer(t, "SE\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, out, err := server.handleTick(ctx, &sdk.CallToolRequest{}, TickInput{N: 100})
	if err != nil {
		t.Fatalf("handleTick: %v", err)
	}
	if out.Ran != 0 {
		t.Errorf("Ran = %d on a cancelled context, want 0", out.Ran)
	}
}

func TestHandleCells(t *testing.T) {
	server, _ := setupTestServer(t, "S#\n.E\n")
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	_, out, err := server.handleCells(ctx, req, CellsInput{})
	if err != nil {
		t.Fatalf("handleCells: %v", err)
	}
	if out.ASCII != "S#\n.E\n" {
		t.Errorf("ASCII = %q", out.ASCII)
	}
	if out.Cells != nil {
		t.Error("ascii format should omit raw cells")
	}

	_, out, err = server.handleCells(ctx, req, CellsInput{Format: "bytes"})
	if err != nil {
		t.Fatalf("handleCells(bytes): %v", err)
	}
	want := []byte{byte(grid.Start), byte(grid.Wall), byte(grid.Ground), byte(grid.End)}
	if string(out.Cells) != string(want) {
		t.Errorf("Cells = %v, want %v", out.Cells, want)
	}

	if _, _, err := server.handleCells(ctx, req, CellsInput{Format: "png"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestHandleStats(t *testing.T) {
	server, _ := setupTestServer(t, "SE\n")
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	server.handleTick(ctx, req, TickInput{N: 3})
	_, st, err := server.handleStats(ctx, req, StatsInput{})
	if err != nil {
		t.Fatalf("handleStats: %v", err)
	}
	if st.Tick != 3 || st.Arrivals != 12 || st.BestPath != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.TotalStrength <= 0 {
		t.Errorf("TotalStrength = %f, want > 0", st.TotalStrength)
	}
}

func TestHandlers_RateLimited(t *testing.T) {
	server, _ := setupTestServer(t, "SE\n")
	server.toolLimiters = ratelimit.ToolLimiters{"pheromones_stats": ratelimit.NewLimiter(0, 1)}
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	if _, _, err := server.handleStats(ctx, req, StatsInput{}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, _, err := server.handleStats(ctx, req, StatsInput{}); !errors.Is(err, ratelimit.ErrLimited) {
		t.Errorf("second call error = %v, want ErrLimited", err)
	}
}

func TestHandlers_Audited(t *testing.T) {
	server, tmpDir := setupTestServer(t, "S.\n.E\n")
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	server.handleToggleWall(ctx, req, CellInput{Row: 0, Col: 1})
	server.handleToggleWall(ctx, req, CellInput{Row: 0, Col: 0})
	server.Close()

	f, err := os.Open(filepath.Join(tmpDir, AuditFile))
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var entries []AuditEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("malformed audit line %q: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}
	if entries[0].Tool != "pheromones_toggle_wall" || entries[0].Status != "success" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[0].Params["row"] != "0" || entries[0].Params["col"] != "1" {
		t.Errorf("params = %v", entries[0].Params)
	}
	if entries[1].Status != "error" || entries[1].Error == "" {
		t.Errorf("second entry should record the protected-cell error: %+v", entries[1])
	}
}
