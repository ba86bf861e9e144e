package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/db"
	"github.com/jonathan/portfolio/internal/observability"
)

var (
	statsSince time.Duration
	statsJSON  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded telemetry from the event store",
	Long:  "Reads scroll-depth and link-click counts directly from the PostgreSQL event store. Requires database_url.",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().DurationVar(&statsSince, "since", 0, "How far back to count events (defaults to summary_window)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the summary as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("database_url is not configured (set PORTFOLIO_DATABASE_URL)")
	}
	window := cfg.SummaryWindow
	if statsSince > 0 {
		window = statsSince
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	summary, err := database.Summary(ctx, time.Now().Add(-window))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(out, "Events since %s\n", time.Now().Add(-window).Format(time.RFC3339))
	observability.NewPrinter(out).PrintSummary(summary)
	return nil
}
