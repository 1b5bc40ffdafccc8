package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pheromones/internal/config"
	"github.com/nvandessel/pheromones/internal/layout"
	"github.com/nvandessel/pheromones/internal/logging"
	"github.com/nvandessel/pheromones/internal/store"
	"github.com/nvandessel/pheromones/internal/universe"
)

// cliEnv is the per-invocation context shared by commands.
type cliEnv struct {
	cfg        *config.PheromonesConfig
	configPath string
	dataDir    string
	jsonOut    bool
	logger     *slog.Logger
	out        io.Writer
}

// loadEnv resolves config, data directory and logger from the global flags.
func loadEnv(cmd *cobra.Command) (*cliEnv, error) {
	jsonOut, _ := cmd.Flags().GetBool("json")
	configPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfg, err := config.LoadPath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if dataDir == "" {
		dataDir = cfg.Store.Dir
	}
	dataDir, err = store.ResolveDataDir(dataDir)
	if err != nil {
		return nil, err
	}

	return &cliEnv{
		cfg:        cfg,
		configPath: configPath,
		dataDir:    dataDir,
		jsonOut:    jsonOut,
		logger:     logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
		out:        cmd.OutOrStdout(),
	}, nil
}

// openStore opens the SQLite store in the data directory, creating it if needed.
func (e *cliEnv) openStore() (*store.SQLiteStore, error) {
	if err := store.EnsureDataDir(e.dataDir); err != nil {
		return nil, err
	}
	s, err := store.NewSQLiteStore(e.dataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

func (e *cliEnv) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newUniverse builds a Universe over l with the configured engine
// parameters. The event trace is returned so the caller can close it.
func (e *cliEnv) newUniverse(l *layout.Layout, seed uint64) (*universe.Universe, *logging.EventLogger, error) {
	ucfg := e.cfg.Simulation.ToUniverse()
	if seed != 0 {
		ucfg.Seed = seed
	}
	events := logging.NewEventLogger(e.dataDir, e.cfg.Logging.Level)
	u, err := universe.NewFromLayout(l, ucfg,
		universe.WithLogger(e.logger),
		universe.WithEvents(events),
	)
	if err != nil {
		events.Close()
		return nil, nil, err
	}
	return u, events, nil
}

// layoutSource describes where a command's arena comes from.
type layoutSource struct {
	name     string // stored layout name or file path
	generate string // generator kind
	width    int
	height   int
	seed     uint64
	braid    float64
}

func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().String("layout", "", "Stored layout name or layout file path (default: empty arena)")
	cmd.Flags().String("generate", "", fmt.Sprintf("Generate the arena instead: one of %v", layout.Kinds()))
	cmd.Flags().Int("width", 0, "Generated arena width (default from config)")
	cmd.Flags().Int("height", 0, "Generated arena height (default from config)")
	cmd.Flags().Uint64("maze-seed", 1, "Seed for generated mazes")
	cmd.Flags().Float64("braid", 0, "Fraction of maze dead ends to open, in [0,1]")
}

func layoutSourceFromFlags(cmd *cobra.Command) layoutSource {
	src := layoutSource{}
	src.name, _ = cmd.Flags().GetString("layout")
	src.generate, _ = cmd.Flags().GetString("generate")
	src.width, _ = cmd.Flags().GetInt("width")
	src.height, _ = cmd.Flags().GetInt("height")
	src.seed, _ = cmd.Flags().GetUint64("maze-seed")
	src.braid, _ = cmd.Flags().GetFloat64("braid")
	return src
}

// resolveLayout builds the arena for src. A --layout value naming an
// existing file is parsed from disk; otherwise it is looked up in the store.
func (e *cliEnv) resolveLayout(ctx context.Context, src layoutSource, st store.Store) (*layout.Layout, error) {
	if src.name != "" && src.generate != "" {
		return nil, errors.New("--layout and --generate are mutually exclusive")
	}

	width, height := src.width, src.height
	if width == 0 {
		width = e.cfg.Simulation.Width
	}
	if height == 0 {
		height = e.cfg.Simulation.Height
	}

	switch {
	case src.generate != "":
		l, err := layout.Generate(src.generate, width, height, layout.Options{Seed: src.seed, Braid: src.braid})
		if err != nil {
			return nil, err
		}
		l.Name = src.generate
		return l, nil
	case src.name == "":
		l, err := layout.Empty(width, height)
		if err != nil {
			return nil, err
		}
		l.Name = layout.KindEmpty
		return l, nil
	}

	if info, err := os.Stat(src.name); err == nil && !info.IsDir() {
		return readLayoutFile(src.name)
	}
	if st == nil {
		return nil, fmt.Errorf("layout %q: no such file", src.name)
	}
	l, err := st.GetLayout(ctx, src.name)
	if err != nil {
		return nil, fmt.Errorf("layout %q: %w", src.name, err)
	}
	return l, nil
}

// readLayoutFile parses a layout file and names it after the file.
func readLayoutFile(path string) (*layout.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l, err := layout.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return l, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
