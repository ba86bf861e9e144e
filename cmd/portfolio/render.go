package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/content"
	"github.com/jonathan/portfolio/internal/rendering"
)

var (
	renderOut      string
	renderSiteURL  string
	renderTemplate string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the portfolio as a static site",
	Long: `Validates the content document and writes index.html plus the static assets
to the output directory. The tracker script posts to the same origin, so a
statically hosted copy only records telemetry when the API is reachable there.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "dist", "Output directory")
	renderCmd.Flags().StringVar(&renderSiteURL, "site-url", "", "Canonical site URL (overrides config)")
	renderCmd.Flags().StringVar(&renderTemplate, "template", "", "Page template file (overrides config)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(commandContext(cmd))
	if err != nil {
		return err
	}
	if renderSiteURL != "" {
		cfg.SiteURL = renderSiteURL
	}
	if renderTemplate != "" {
		cfg.TemplatePath = renderTemplate
	}

	resume, err := content.LoadFile(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("refusing to render %s: %w", cfg.ContentPath, err)
	}

	page, err := rendering.NewPage(cfg.TemplatePath)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := page.Render(&buf, resume, cfg.SiteURL); err != nil {
		return err
	}

	if err := os.MkdirAll(renderOut, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	indexPath := filepath.Join(renderOut, "index.html")
	if err := os.WriteFile(indexPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", indexPath, err)
	}

	staticDir := filepath.Join(renderOut, "static")
	if err := os.RemoveAll(staticDir); err != nil {
		return fmt.Errorf("failed to clear %s: %w", staticDir, err)
	}
	if err := os.CopyFS(staticDir, rendering.StaticFiles()); err != nil {
		return fmt.Errorf("failed to copy static assets: %w", err)
	}

	logger.Debug("rendered site", "content", cfg.ContentPath, "out", renderOut)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Rendered %s\n", indexPath)
	return nil
}
