// Package commands implements the ctxflow CLI commands using cobra.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jholhewres/ctxflow/pkg/ctxflow/config"
	"github.com/jholhewres/ctxflow/pkg/ctxflow/store"
)

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ctxflow",
		Short: "ctxflow - execution contexts for LLM requests",
		Long: `ctxflow builds, prunes, routes, and executes bounded execution
contexts for LLM requests, with a portable JSON snapshot format.

Examples:
  ctxflow context create --intent analyze --max-tokens 4000
  ctxflow context add <id> "relevant notes" --relevance 0.9
  ctxflow context exec <id> --task "Extract key themes"
  ctxflow copilot run --prompt "build me a weekend planner" --user matthew --budget 0.05`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newContextCmd(),
		newModelsCmd(),
		newCopilotCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}

// resolveConfig loads the config named by --config, found in a standard
// location, or the built-in defaults when neither exists.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		path = config.Find()
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

// newLogger builds the CLI logger from config and the --verbose flag.
// Diagnostics go to stderr so command output stays pipeable.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	return slog.New(handler)
}

// openStore opens the context store configured for this invocation.
func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(cfg.Store.Path)
}
