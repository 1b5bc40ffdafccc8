package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pheromones/internal/logging"
	"github.com/nvandessel/pheromones/internal/report"
	"github.com/nvandessel/pheromones/internal/store"
	"github.com/nvandessel/pheromones/internal/universe"
)

// runSummary is the output of a headless run.
type runSummary struct {
	RunID  string         `json:"run_id,omitempty"`
	Layout string         `json:"layout"`
	Ticks  int            `json:"ticks"`
	Stats  universe.Stats `json:"stats"`
	Chart  string         `json:"chart,omitempty"`
	CSV    string         `json:"csv,omitempty"`
	Took   string         `json:"took"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation headless for a number of ticks",
		Long: `Run a simulation without any display and report the final stats.

Examples:
  pheromones run --ticks 2000
  pheromones run --generate maze --width 41 --height 41 --braid 0.2 --chart maze.png
  pheromones run --layout corridor --ticks 500 --csv corridor.csv --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			ticks, _ := cmd.Flags().GetInt("ticks")
			seed, _ := cmd.Flags().GetUint64("seed")
			chartPath, _ := cmd.Flags().GetString("chart")
			csvPath, _ := cmd.Flags().GetString("csv")
			save, _ := cmd.Flags().GetBool("save")
			if ticks < 1 {
				return fmt.Errorf("--ticks must be at least 1, got %d", ticks)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			st, err := e.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			l, err := e.resolveLayout(ctx, layoutSourceFromFlags(cmd), st)
			if err != nil {
				return err
			}
			u, events, err := e.newUniverse(l, seed)
			if err != nil {
				return err
			}
			defer events.Close()

			summary, series, run := headlessRun(ctx, e, u, l.Name, ticks)

			if chartPath != "" {
				if err := writeReport(chartPath, func(f *os.File) error {
					return report.RenderChart(f, series, report.Options{Title: l.Name})
				}); err != nil {
					return fmt.Errorf("write chart: %w", err)
				}
				summary.Chart = chartPath
			}
			if csvPath != "" {
				if err := writeReport(csvPath, func(f *os.File) error {
					return report.WriteCSV(f, series)
				}); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
				summary.CSV = csvPath
			}
			if save {
				if err := st.RecordRun(ctx, run); err != nil {
					return fmt.Errorf("record run: %w", err)
				}
				summary.RunID = run.ID
			}

			if e.jsonOut {
				return e.printJSON(summary)
			}
			printSummary(e, summary)
			return nil
		},
	}

	addLayoutFlags(cmd)
	cmd.Flags().Int("ticks", 1000, "Number of ticks to run")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 uses the configured seed)")
	cmd.Flags().String("chart", "", "Write a PNG convergence chart to this path")
	cmd.Flags().String("csv", "", "Write per-tick stats as CSV to this path")
	cmd.Flags().Bool("save", false, "Record the run report in the store")

	return cmd
}

// headlessRun ticks u up to n times, stopping early if ctx is cancelled.
func headlessRun(ctx context.Context, e *cliEnv, u *universe.Universe, layoutName string, n int) (runSummary, *report.Series, store.Run) {
	started := time.Now()
	run := store.NewRun(layoutName, u.Config(), started)
	series := &report.Series{}

	ran := 0
	for ; ran < n; ran++ {
		if ctx.Err() != nil {
			e.logger.Warn("run interrupted", "tick", u.TickCount())
			break
		}
		u.Tick()
		st := u.Stats()
		series.Add(st)
		e.logger.Log(ctx, logging.LevelTrace, "tick", "tick", st.Tick, "arrivals", st.TickArrivals, "total", st.TotalStrength)
	}

	final := u.Stats()
	run.Finish(final, time.Now())
	e.logger.Debug("run finished", "layout", layoutName, "ticks", ran, "arrivals", final.Arrivals, "best_path", final.BestPath)

	return runSummary{
		Layout: layoutName,
		Ticks:  ran,
		Stats:  final,
		Took:   time.Since(started).Round(time.Millisecond).String(),
	}, series, run
}

func writeReport(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func printSummary(e *cliEnv, s runSummary) {
	fmt.Fprintf(e.out, "Layout:         %s\n", s.Layout)
	fmt.Fprintf(e.out, "Ticks:          %d (%s)\n", s.Ticks, s.Took)
	fmt.Fprintf(e.out, "Arrivals:       %d\n", s.Stats.Arrivals)
	fmt.Fprintf(e.out, "Stuck:          %d\n", s.Stats.Stuck)
	if s.Stats.BestPath > 0 {
		fmt.Fprintf(e.out, "Best path:      %d steps\n", s.Stats.BestPath)
	} else {
		fmt.Fprintf(e.out, "Best path:      (none)\n")
	}
	fmt.Fprintf(e.out, "Trail strength: total %.3f, max %.3f\n", s.Stats.TotalStrength, s.Stats.MaxStrength)
	if s.Chart != "" {
		fmt.Fprintf(e.out, "Chart:          %s\n", s.Chart)
	}
	if s.CSV != "" {
		fmt.Fprintf(e.out, "CSV:            %s\n", s.CSV)
	}
	if s.RunID != "" {
		fmt.Fprintf(e.out, "Run ID:         %s\n", s.RunID)
	}
}
