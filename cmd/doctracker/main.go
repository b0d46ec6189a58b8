// Command doctracker serves and inspects the document approval tracker.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spk-docs/doctracker/internal/config"
	"github.com/spk-docs/doctracker/internal/document/service"
	"github.com/spk-docs/doctracker/internal/document/state"
	"github.com/spk-docs/doctracker/pkg/logger"
)

const (
	Version = "1.0.0"
	appName = "doctracker"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	backend    string
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Document approval tracker",
		Long: `doctracker tracks proposals through four department reviews and a
director decision. Documents live either in a remote spreadsheet service
reached over HTTP or NATS, or in a local slot (file, SQLite, Redis, MongoDB).

Configuration comes from environment variables, an optional .env file and
an optional config file.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := g.logLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			logger.Init(level)
			// stdout carries command output
			logger.SetOutput(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML, JSON or TOML)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.backend, "backend", "", "Override BACKEND_MODE (remote or local)")

	cmd.AddCommand(serveCmd(&g), listCmd(&g), exportCmd(&g), tokenCmd(&g))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

// loadConfig applies the global flags on top of the environment.
func loadConfig(g *globalFlags) (*config.Config, error) {
	if g.configPath != "" {
		viper.Set("CONFIG_FILE", g.configPath)
	}
	if g.backend != "" {
		viper.Set("BACKEND_MODE", strings.ToLower(g.backend))
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openController builds the gateway and loads the collection once.
func openController(ctx context.Context, cfg *config.Config) (*state.Controller, func(), error) {
	gw, cleanup, err := service.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	ctrl := state.NewController(gw, state.WithDefaultGroup(defaultGroup(cfg)))
	if err := ctrl.Load(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return ctrl, cleanup, nil
}

func defaultGroup(cfg *config.Config) string {
	if len(cfg.Documents.Groups) == 0 {
		return ""
	}
	return cfg.Documents.Groups[0]
}
