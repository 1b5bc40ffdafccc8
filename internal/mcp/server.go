// Package mcp provides an MCP (Model Context Protocol) server that hosts a
// single pheromones Universe and exposes its operations as tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/pheromones/internal/logging"
	"github.com/nvandessel/pheromones/internal/ratelimit"
	"github.com/nvandessel/pheromones/internal/universe"
)

// Server wraps the MCP SDK server and owns one Universe.
type Server struct {
	server *sdk.Server

	// mu serializes every call into uni.
	mu  sync.Mutex
	uni *universe.Universe

	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "pheromones")
	Version string // Server version

	// Universe is the simulation to host. Required.
	Universe *universe.Universe

	// DataDir receives audit.jsonl. Empty disables auditing.
	DataDir string

	Logger *slog.Logger
}

// NewServer creates a new MCP server with the pheromones tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil || cfg.Universe == nil {
		return nil, fmt.Errorf("mcp server requires a universe")
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{})

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		server:       mcpServer,
		uni:          cfg.Universe,
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       logger,
	}
	if cfg.DataDir != "" {
		s.auditLogger = NewAuditLogger(cfg.DataDir)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
// Callers wire OS signals into ctx.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server started", "name", "pheromones")
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()
	return err
}

// Close releases the audit log. Safe to call more than once.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
