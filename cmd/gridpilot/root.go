package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridpilot-ai/gridpilot/internal/config"
)

var (
	cfgFile string
	verbose bool

	// cfg is populated by the persistent pre-run for all subcommands.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gridpilot",
	Short: "LLM-driven spreadsheet automation",
	Long: `gridpilot turns natural-language requests into reviewed, executable
spreadsheet automation plans. A request is expanded into a goal plan,
reviewed interactively, and executed step by step against the target
application.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.NewLoader(config.NewValidator()).LoadWithDefaults(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		setupLogging(cfg)
		return nil
	},
}

// Execute runs the root command with signal-driven cancellation.
func Execute(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gridpilot.yaml"
	}
	return home + "/.gridpilot/config.yaml"
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
