package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/layout"
	"github.com/nvandessel/pheromones/internal/store"
)

// layoutView is the JSON form of a layout.
type layoutView struct {
	Name   string   `json:"name"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Walls  int      `json:"walls"`
	Start  grid.Pos `json:"start"`
	End    grid.Pos `json:"end"`
	Text   string   `json:"text"`
}

func viewLayout(l *layout.Layout) (layoutView, error) {
	g, err := l.Grid()
	if err != nil {
		return layoutView{}, err
	}
	return layoutView{
		Name:   l.Name,
		Width:  l.Width,
		Height: l.Height,
		Walls:  l.Count(grid.Wall),
		Start:  g.Pos(g.Start()),
		End:    g.Pos(g.End()),
		Text:   l.String(),
	}, nil
}

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Manage saved arena layouts",
		Long: `Save, inspect and generate arena layouts.

A layout file is plain text, one line per row:
  .  ground    #  wall    S  start    E  end

Examples:
  pheromones layout generate maze --width 31 --height 21 --save maze-a
  pheromones layout save corridor ./corridor.txt
  pheromones layout show corridor
  pheromones run --layout corridor`,
	}

	cmd.AddCommand(
		newLayoutListCmd(),
		newLayoutShowCmd(),
		newLayoutSaveCmd(),
		newLayoutGenerateCmd(),
		newLayoutDeleteCmd(),
	)
	return cmd
}

func newLayoutListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved layouts",
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

			infos, err := st.ListLayouts(cmd.Context())
			if err != nil {
				return err
			}
			if e.jsonOut {
				if infos == nil {
					infos = []store.LayoutInfo{}
				}
				return e.printJSON(infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(e.out, "No saved layouts.")
				return nil
			}
			fmt.Fprintf(e.out, "%-24s %9s %6s  %s\n", "NAME", "SIZE", "WALLS", "UPDATED")
			for _, info := range infos {
				size := fmt.Sprintf("%dx%d", info.Width, info.Height)
				fmt.Fprintf(e.out, "%-24s %9s %6d  %s\n", info.Name, size, info.Walls, info.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newLayoutShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved layout",
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

			l, err := st.GetLayout(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("layout %q: %w", args[0], err)
			}
			return printLayout(e, l)
		},
	}
}

func printLayout(e *cliEnv, l *layout.Layout) error {
	if e.jsonOut {
		v, err := viewLayout(l)
		if err != nil {
			return err
		}
		return e.printJSON(v)
	}
	return l.Format(e.out)
}

func newLayoutSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <file>",
		Short: "Save a layout file under a name (use - for stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			name, path := args[0], args[1]
			if err := store.ValidateName(name); err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			l, err := layout.Parse(r)
			if err != nil {
				return err
			}
			l.Name = name

			st, err := e.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.SaveLayout(cmd.Context(), l); err != nil {
				return err
			}

			if e.jsonOut {
				v, _ := viewLayout(l)
				return e.printJSON(v)
			}
			fmt.Fprintf(e.out, "Saved layout %s (%dx%d, %d walls)\n", name, l.Width, l.Height, l.Count(grid.Wall))
			return nil
		},
	}
}

func newLayoutGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "generate <kind>",
		Short:     "Generate a layout and print or save it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: layout.Kinds(),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")
			seed, _ := cmd.Flags().GetUint64("maze-seed")
			braid, _ := cmd.Flags().GetFloat64("braid")
			saveAs, _ := cmd.Flags().GetString("save")
			if width == 0 {
				width = e.cfg.Simulation.Width
			}
			if height == 0 {
				height = e.cfg.Simulation.Height
			}

			l, err := layout.Generate(args[0], width, height, layout.Options{Seed: seed, Braid: braid})
			if err != nil {
				return err
			}
			l.Name = args[0]

			if saveAs != "" {
				l.Name = saveAs
				st, err := e.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.SaveLayout(cmd.Context(), l); err != nil {
					return err
				}
				if !e.jsonOut {
					fmt.Fprintf(cmd.ErrOrStderr(), "Saved layout %s\n", saveAs)
				}
			}
			return printLayout(e, l)
		},
	}

	cmd.Flags().Int("width", 0, "Arena width (default from config)")
	cmd.Flags().Int("height", 0, "Arena height (default from config)")
	cmd.Flags().Uint64("maze-seed", 1, "Seed for mazes")
	cmd.Flags().Float64("braid", 0, "Fraction of maze dead ends to open, in [0,1]")
	cmd.Flags().String("save", "", "Also save the layout under this name")

	return cmd
}

func newLayoutDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved layout",
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

			if err := st.DeleteLayout(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("layout %q: %w", args[0], err)
			}
			if e.jsonOut {
				return e.printJSON(map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(e.out, "Deleted layout %s\n", args[0])
			return nil
		},
	}
}
