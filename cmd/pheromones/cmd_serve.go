package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pheromones/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live arena in the browser",
		Long: `Start an HTTP server hosting one simulation. The page at / draws the
arena from a websocket frame stream; click cells to edit walls, Start or End.

The JSON API lives under /api (info, stats, cells, wall, start, end, tick,
play, pause).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			addr, _ := cmd.Flags().GetString("addr")
			noOpen, _ := cmd.Flags().GetBool("no-open")
			seed, _ := cmd.Flags().GetUint64("seed")
			if addr == "" {
				addr = e.cfg.Server.Addr
			}

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

			srv, err := server.NewServer(server.Config{
				Universe:     u,
				Addr:         addr,
				TickInterval: e.cfg.Server.TickInterval,
				Logger:       e.logger,
			})
			if err != nil {
				return err
			}
			return runServer(ctx, cmd, srv, noOpen)
		},
	}

	addLayoutFlags(cmd)
	cmd.Flags().String("addr", "", "Listen address (default from config)")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 uses the configured seed)")
	cmd.Flags().Bool("no-open", false, "Don't open the browser")

	return cmd
}

// runServer starts srv and blocks until ctx is cancelled.
func runServer(ctx context.Context, cmd *cobra.Command, srv *server.Server, noOpen bool) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && srv.Addr() == "" {
		select {
		case err := <-errCh:
			if err == nil {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-time.After(10 * time.Millisecond):
		}
	}

	addr := srv.Addr()
	if addr == "" {
		return fmt.Errorf("server failed to start")
	}

	url := "http://" + addr
	fmt.Fprintf(cmd.OutOrStdout(), "Arena running at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if !noOpen {
		if err := server.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	// Block until server exits
	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
