package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pheromones/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pheromones configuration",
		Long: `View and modify pheromones configuration settings.

Configuration is stored in ~/.pheromones/config.yaml unless --config is given.
PHEROMONES_* environment variables override the file.

Examples:
  pheromones config list                          # Show all settings
  pheromones config get simulation.agents         # Get a specific setting
  pheromones config set simulation.evaporation 0.05
  pheromones config set server.tick_interval 33ms`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			if e.jsonOut {
				return e.printJSON(e.cfg)
			}

			path := e.configPath
			if path == "" {
				path, _ = config.DefaultPath()
			}
			fmt.Fprintf(e.out, "Configuration (%s):\n\n", path)
			for _, key := range config.Keys() {
				value, _ := e.cfg.Get(key)
				fmt.Fprintf(e.out, "  %-26s %v\n", key+":", displayValue(value))
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			key := args[0]

			value, found := e.cfg.Get(key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s (valid: %v)", key, config.Keys())
			}

			if e.jsonOut {
				return e.printJSON(map[string]any{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(e.out, "%s = %v\n", key, displayValue(value))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			configPath, _ := cmd.Flags().GetString("config")
			key, value := args[0], args[1]

			path, cfg, err := loadConfigForEdit(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Set(key, value); err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				stored, _ := cfg.Get(key)
				e := &cliEnv{out: out}
				return e.printJSON(map[string]any{
					"status": "updated",
					"key":    key,
					"value":  stored,
					"path":   path,
				})
			}
			fmt.Fprintf(out, "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// loadConfigForEdit reads the config file without environment overrides so
// that saving it back does not capture them. A missing file starts from the
// defaults.
func loadConfigForEdit(path string) (string, *config.PheromonesConfig, error) {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return "", nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = p
	}
	cfg, err := config.LoadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return path, config.Default(), nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	return path, cfg, nil
}

func displayValue(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return "(not set)"
	}
	return v
}
