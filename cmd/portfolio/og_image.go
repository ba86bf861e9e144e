package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/capture"
	"github.com/jonathan/portfolio/internal/content"
	"github.com/jonathan/portfolio/internal/rendering"
	"github.com/jonathan/portfolio/internal/types"
)

var (
	ogImageOut     string
	ogImageTimeout time.Duration
)

var ogImageCmd = &cobra.Command{
	Use:   "og-image",
	Short: "Capture the OpenGraph social card as a PNG",
	Long: `Renders the social preview card for the content document and captures it at
1200x630 in a headless browser. The server serves the result at
/opengraph-image.png. Requires Chrome/Chromium to be installed.`,
	RunE: runOGImage,
}

func init() {
	ogImageCmd.Flags().StringVarP(&ogImageOut, "out", "o", "", "Output PNG path (defaults to og_image_path from config)")
	ogImageCmd.Flags().DurationVar(&ogImageTimeout, "timeout", capture.DefaultTimeout, "Timeout for the browser capture")
	rootCmd.AddCommand(ogImageCmd)
}

func runOGImage(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	out := ogImageOut
	if out == "" {
		out = cfg.OGImagePath
	}

	resume, err := content.LoadFile(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("refusing to render %s: %w", cfg.ContentPath, err)
	}

	card, err := rendering.NewOGCard()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := card.Render(&buf, resume); err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "portfolio-og-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	cardPath := filepath.Join(tmpDir, "card.html")
	if err := os.WriteFile(cardPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write card: %w", err)
	}

	result, err := capture.Page(ctx, "file://"+cardPath, capture.Options{
		Width:   rendering.OGImageWidth,
		Height:  rendering.OGImageHeight,
		Timeout: ogImageTimeout,
		Settle:  250 * time.Millisecond,
	}, logger)
	if err != nil {
		return err
	}

	if err := verifyCard(result.HTML, resume); err != nil {
		return err
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, result.PNG, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%dx%d)\n", out, rendering.OGImageWidth, rendering.OGImageHeight)
	return nil
}

// verifyCard checks that the browser rendered the card for this resume rather
// than an error page.
func verifyCard(html string, resume *types.Resume) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse captured page: %w", err)
	}
	name := strings.TrimSpace(doc.Find(".name").First().Text())
	if name != resume.Basics.Name {
		return fmt.Errorf("captured page does not show the card for %q (got %q)", resume.Basics.Name, name)
	}
	title := strings.TrimSpace(doc.Find(".title").First().Text())
	if title != resume.Basics.Title {
		return fmt.Errorf("captured card title is %q, want %q", title, resume.Basics.Title)
	}
	return nil
}
