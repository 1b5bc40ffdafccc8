package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pheromones/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Host a simulation as an MCP server over stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout.

Tools: pheromones_info, pheromones_toggle_wall, pheromones_set_start,
pheromones_set_end, pheromones_tick, pheromones_cells, pheromones_stats.
Every call is appended to <data dir>/audit.jsonl.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			seed, _ := cmd.Flags().GetUint64("seed")

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			st, err := e.openStore()
			if err != nil {
				return err
			}
			l, err := e.resolveLayout(ctx, layoutSourceFromFlags(cmd), st)
			st.Close()
			if err != nil {
				return err
			}
			u, events, err := e.newUniverse(l, seed)
			if err != nil {
				return err
			}
			defer events.Close()

			srv, err := mcp.NewServer(&mcp.Config{
				Name:     "pheromones",
				Version:  version,
				Universe: u,
				DataDir:  e.dataDir,
				Logger:   e.logger,
			})
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}
			defer srv.Close()

			e.logger.Debug("hosting layout", "layout", l.Name, "data_dir", e.dataDir)
			return srv.Run(ctx)
		},
	}

	addLayoutFlags(cmd)
	cmd.Flags().Uint64("seed", 0, "Random seed (0 uses the configured seed)")

	return cmd
}
