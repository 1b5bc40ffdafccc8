package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/nvandessel/pheromones/internal/logging"
	"github.com/nvandessel/pheromones/internal/viewer"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch and edit a simulation in the terminal",
		Long: `Render the arena in the terminal.

Keys:
  space   play / pause
  n       single tick
  s, e    the next click moves Start or End
  q, Esc  quit

Click a cell to toggle a wall.`,
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

			// Logs would scribble over the screen; the event trace still works.
			e.logger = logging.Discard()
			u, events, err := e.newUniverse(l, seed)
			if err != nil {
				return err
			}
			defer events.Close()

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("init terminal: %w", err)
			}
			defer screen.Fini()

			v := viewer.New(screen, u, viewer.Options{TickInterval: e.cfg.Server.TickInterval})
			return v.Run(ctx)
		},
	}

	addLayoutFlags(cmd)
	cmd.Flags().Uint64("seed", 0, "Random seed (0 uses the configured seed)")

	return cmd
}
