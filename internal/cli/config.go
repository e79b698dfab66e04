package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alnah/go-slidecast/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/slidecast/config.
Settings can also be overridden via environment variables.

Supported settings:
  output-dir      Default directory for output videos (env: SLIDECAST_OUTPUT_DIR)
  canvas-width    Video frame width in pixels (default 1280)
  canvas-height   Video frame height in pixels (default 720)
  max-parallel    Concurrent image generation requests (env: SLIDECAST_MAX_PARALLEL)`,
		Example: `  slidecast config set output-dir ~/Videos/slidecasts
  slidecast config get output-dir
  slidecast config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Example: `  slidecast config set output-dir ~/Videos/slidecasts
  slidecast config set canvas-width 1920`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  slidecast config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable overrides.`,
		Example: `  slidecast config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !config.IsValidKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v)", key, config.Keys)
	}

	// Key-specific validation.
	switch key {
	case config.KeyOutputDir:
		expanded := config.ExpandPath(value)
		if err := config.ValidOutputDir(expanded); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
		// Store the expanded path for consistency.
		value = expanded
	case config.KeyCanvasWidth, config.KeyCanvasHeight, config.KeyMaxParallel:
		if n, err := strconv.Atoi(value); err != nil || n < 1 {
			return fmt.Errorf("invalid %s %q: must be a positive integer", key, value)
		}
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !config.IsValidKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v)", key, config.Keys)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}

	// Check environment variable fallback.
	if value == "" {
		switch key {
		case config.KeyOutputDir:
			value = env.Getenv(config.EnvOutputDir)
		case config.KeyMaxParallel:
			value = env.Getenv(config.EnvMaxParallel)
		}
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}

	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	// Add environment variable values for completeness.
	envFallbacks := map[string]string{
		config.KeyOutputDir:   config.EnvOutputDir,
		config.KeyMaxParallel: config.EnvMaxParallel,
	}
	for key, envVar := range envFallbacks {
		if _, ok := data[key]; !ok {
			if envVal := env.Getenv(envVar); envVal != "" {
				data[key] = envVal + " (from env)"
			}
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stderr, "No configuration set")
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		fmt.Fprintf(env.Stdout, "%s = %s\n", k, data[k])
	}

	return nil
}
