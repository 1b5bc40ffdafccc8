package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pheromones",
		Short: "Ant-colony pathfinding simulator",
		Long: `pheromones simulates a colony of agents searching a grid arena for a
path from Start to End. Successful agents lay trails that evaporate over
time, so the colony converges on short routes and re-routes when walls move.

Run headless, serve a live arena in the browser, watch it in the terminal,
or host it over MCP.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.pheromones/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory for layouts, runs and logs (default ~/.pheromones)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newServeCmd(),
		newWatchCmd(),
		newMCPServerCmd(),
		newLayoutCmd(),
		newRunsCmd(),
		newConfigCmd(),
	)
	return rootCmd
}
