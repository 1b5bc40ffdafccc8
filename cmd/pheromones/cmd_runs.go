package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pheromones/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded run reports",
		Long: `List, show, export and import run reports recorded with "run --save".

Reports hold final stats and engine parameters, never trail state.`,
	}

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsExportCmd(),
		newRunsImportCmd(),
	)
	return cmd
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			st, err := e.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if e.jsonOut {
				if runs == nil {
					runs = []store.Run{}
				}
				return e.printJSON(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(e.out, "No recorded runs.")
				return nil
			}
			fmt.Fprintf(e.out, "%-36s  %-16s %8s %10s %5s  %s\n", "ID", "LAYOUT", "TICKS", "ARRIVALS", "BEST", "STARTED")
			for _, r := range runs {
				fmt.Fprintf(e.out, "%-36s  %-16s %8d %10d %5d  %s\n",
					r.ID, r.Layout, r.Ticks, r.Arrivals, r.BestPath, r.StartedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			st, err := e.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			r, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			if e.jsonOut {
				return e.printJSON(r)
			}

			p := r.Params
			fmt.Fprintf(e.out, "Run:            %s\n", r.ID)
			fmt.Fprintf(e.out, "Layout:         %s (%dx%d)\n", r.Layout, p.Width, p.Height)
			fmt.Fprintf(e.out, "Started:        %s (took %s)\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Duration())
			fmt.Fprintf(e.out, "Ticks:          %d\n", r.Ticks)
			fmt.Fprintf(e.out, "Arrivals:       %d\n", r.Arrivals)
			fmt.Fprintf(e.out, "Stuck:          %d\n", r.Stuck)
			fmt.Fprintf(e.out, "Best path:      %d\n", r.BestPath)
			fmt.Fprintf(e.out, "Total strength: %.3f\n", r.TotalStrength)
			fmt.Fprintln(e.out)
			fmt.Fprintln(e.out, "Parameters:")
			fmt.Fprintf(e.out, "  agents %d, connectivity %d, seed %d\n", p.Agents, p.Connectivity, p.Seed)
			fmt.Fprintf(e.out, "  alpha %.2f, beta %.2f, epsilon %.3f\n", p.Alpha, p.Beta, p.Epsilon)
			fmt.Fprintf(e.out, "  evaporation %.3f, deposit %.2f, ceiling %.1f, diffusion %.3f\n", p.Evaporation, p.Deposit, p.Ceiling, p.Diffusion)
			fmt.Fprintf(e.out, "  step budget %d, memory %d\n", p.StepBudget, p.Memory)
			return nil
		},
	}
}

func newRunsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every run report as JSONL",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")

			st, err := e.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var w io.Writer = e.out
			if output != "" {
				f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			n, err := store.ExportRuns(cmd.Context(), st, w)
			if err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d runs to %s\n", n, output)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newRunsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import run reports from a JSONL export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			st, err := e.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := store.ImportRuns(cmd.Context(), st, f)
			if err != nil {
				return err
			}
			if e.jsonOut {
				return e.printJSON(map[string]int{"imported": n})
			}
			fmt.Fprintf(e.out, "Imported %d runs\n", n)
			return nil
		},
	}
}
