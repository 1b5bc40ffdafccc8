package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/pheromones/internal/constants"
	"github.com/nvandessel/pheromones/internal/ratelimit"
	"github.com/nvandessel/pheromones/internal/universe"
)

// CellsResourceURI is the resource that renders the arena as text.
const CellsResourceURI = "pheromones://cells"

// registerTools registers all pheromones MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pheromones_info",
		Description: "Describe the hosted universe: dimensions, Start and End positions, tick count and engine parameters",
	}, s.handleInfo)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pheromones_toggle_wall",
		Description: "Flip a cell between Ground and Wall. Start and End cannot be toggled",
	}, s.handleToggleWall)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pheromones_set_start",
		Description: "Move the Start cell. All agents restart from the new Start; trails are kept",
	}, s.handleSetStart)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pheromones_set_end",
		Description: "Move the End cell. All agents restart from Start; trails are kept",
	}, s.handleSetEnd)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pheromones_tick",
		Description: fmt.Sprintf("Advance the simulation by n ticks (1 to %d)", constants.MaxTicksPerRequest),
	}, s.handleTick)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pheromones_cells",
		Description: "Return the arena layout, as text or as raw cell codes. Trail strength is not included",
	}, s.handleCells)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pheromones_stats",
		Description: "Return arrival counts, best path length and field totals",
	}, s.handleStats)
}

// registerResources exposes the arena as a text resource.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         CellsResourceURI,
		Name:        "pheromones-cells",
		Description: "The current arena, one line per row.",
		MIMEType:    "text/plain",
	}, s.handleCellsResource)
}

func (s *Server) handleCellsResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	s.mu.Lock()
	text := s.uni.Frame().ASCII()
	s.mu.Unlock()

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      CellsResourceURI,
				MIMEType: "text/plain",
				Text:     text,
			},
		},
	}, nil
}

func (s *Server) handleInfo(ctx context.Context, req *sdk.CallToolRequest, args InfoInput) (_ *sdk.CallToolResult, out InfoOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("pheromones_info", start, out.Tick, retErr, nil) }()

	if err := ratelimit.CheckLimit(s.toolLimiters, "pheromones_info"); err != nil {
		return nil, InfoOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return nil, InfoOutput{
		Width:  s.uni.Width(),
		Height: s.uni.Height(),
		Start:  s.uni.Start(),
		End:    s.uni.End(),
		Tick:   s.uni.TickCount(),
		Config: s.uni.Config(),
	}, nil
}

func (s *Server) handleToggleWall(ctx context.Context, req *sdk.CallToolRequest, args CellInput) (_ *sdk.CallToolResult, _ ToggleWallOutput, retErr error) {
	start := time.Now()
	var tick uint64
	defer func() {
		s.auditTool("pheromones_toggle_wall", start, tick, retErr, toolParams("row", args.Row, "col", args.Col))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "pheromones_toggle_wall"); err != nil {
		return nil, ToggleWallOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tick = s.uni.TickCount()
	cell, err := s.uni.ToggleWall(args.Row, args.Col)
	if err != nil {
		return nil, ToggleWallOutput{}, fmt.Errorf("toggle wall: %w", err)
	}
	s.logger.Debug("tool toggled wall", "row", args.Row, "col", args.Col, "cell", cell.String())
	return nil, ToggleWallOutput{Row: args.Row, Col: args.Col, Cell: cell.String()}, nil
}

func (s *Server) handleSetStart(ctx context.Context, req *sdk.CallToolRequest, args CellInput) (*sdk.CallToolResult, SetRoleOutput, error) {
	return s.setRole("pheromones_set_start", args, (*universe.Universe).SetStart)
}

func (s *Server) handleSetEnd(ctx context.Context, req *sdk.CallToolRequest, args CellInput) (*sdk.CallToolResult, SetRoleOutput, error) {
	return s.setRole("pheromones_set_end", args, (*universe.Universe).SetEnd)
}

func (s *Server) setRole(tool string, args CellInput, set func(*universe.Universe, int, int) error) (_ *sdk.CallToolResult, _ SetRoleOutput, retErr error) {
	start := time.Now()
	var tick uint64
	defer func() {
		s.auditTool(tool, start, tick, retErr, toolParams("row", args.Row, "col", args.Col))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, tool); err != nil {
		return nil, SetRoleOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tick = s.uni.TickCount()
	if err := set(s.uni, args.Row, args.Col); err != nil {
		return nil, SetRoleOutput{}, fmt.Errorf("%s: %w", tool, err)
	}
	return nil, SetRoleOutput{Start: s.uni.Start(), End: s.uni.End()}, nil
}

func (s *Server) handleTick(ctx context.Context, req *sdk.CallToolRequest, args TickInput) (_ *sdk.CallToolResult, out TickOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("pheromones_tick", start, out.Stats.Tick, retErr, toolParams("n", args.N))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "pheromones_tick"); err != nil {
		return nil, TickOutput{}, err
	}

	n := args.N
	if n == 0 {
		n = 1
	}
	if n < 1 || n > constants.MaxTicksPerRequest {
		return nil, TickOutput{}, fmt.Errorf("n must be between 1 and %d, got %d", constants.MaxTicksPerRequest, args.N)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ran := 0
	for ; ran < n; ran++ {
		if ctx.Err() != nil {
			break
		}
		s.uni.Tick()
	}
	return nil, TickOutput{Ran: ran, Stats: s.uni.Stats()}, nil
}

func (s *Server) handleCells(ctx context.Context, req *sdk.CallToolRequest, args CellsInput) (_ *sdk.CallToolResult, out CellsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("pheromones_cells", start, out.Tick, retErr, toolParams("format", args.Format))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "pheromones_cells"); err != nil {
		return nil, CellsOutput{}, err
	}

	s.mu.Lock()
	frame := s.uni.Frame()
	s.mu.Unlock()

	out = CellsOutput{Width: frame.Width, Height: frame.Height, Tick: frame.Tick}
	switch args.Format {
	case "", "ascii":
		out.ASCII = frame.ASCII()
	case "bytes":
		out.Cells = frame.Cells
	default:
		return nil, CellsOutput{}, fmt.Errorf("invalid format %q (valid: ascii, bytes)", args.Format)
	}
	return nil, out, nil
}

func (s *Server) handleStats(ctx context.Context, req *sdk.CallToolRequest, args StatsInput) (_ *sdk.CallToolResult, out universe.Stats, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("pheromones_stats", start, out.Tick, retErr, nil) }()

	if err := ratelimit.CheckLimit(s.toolLimiters, "pheromones_stats"); err != nil {
		return nil, universe.Stats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return nil, s.uni.Stats(), nil
}
