// Package main provides the entry point for the portfolio server and its content tools.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/config"
	"github.com/jonathan/portfolio/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "portfolio",
	Short:        "Single-page portfolio server",
	Long:         "Serves a single-page portfolio rendered from a schema-validated resume document and records scroll-depth and link-click telemetry.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (defaults to $PORTFOLIO_CONFIG)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the layered configuration and builds the logger it describes.
func loadConfig(ctx context.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat), nil
}

// commandContext returns the command's context, which is nil when a run
// function is invoked directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
