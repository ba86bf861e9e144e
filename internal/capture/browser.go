// Package capture renders pages in a headless browser and captures them as images.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds a whole capture, including browser start-up.
const DefaultTimeout = 30 * time.Second

// Options controls the browser viewport and timing for a capture.
type Options struct {
	Width   int64
	Height  int64
	Timeout time.Duration

	// Settle is how long to wait after the body is ready, for fonts and
	// images to finish loading.
	Settle time.Duration
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.Height <= 0 {
		o.Height = 630
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Settle < 0 {
		o.Settle = 0
	}
	return o
}

// Result is a rendered page: its final DOM and a PNG of the viewport.
type Result struct {
	HTML string
	PNG  []byte
}

// Page loads url in a headless browser sized to the viewport in opts and
// returns the rendered HTML together with a PNG screenshot.
// Requires Chrome/Chromium to be installed on the system.
func Page(ctx context.Context, url string, opts Options, logger *slog.Logger) (*Result, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("starting headless browser", slog.String("url", url),
		slog.Int64("width", opts.Width), slog.Int64("height", opts.Height))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("hide-scrollbars", true),
			chromedp.WindowSize(int(opts.Width), int(opts.Height)),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	var (
		html string
		png  []byte
	)
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(opts.Width, opts.Height),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(opts.Settle),
		chromedp.OuterHTML("html", &html),
		chromedp.CaptureScreenshot(&png),
	)
	if err != nil {
		return nil, fmt.Errorf("browser capture failed: %w", err)
	}

	logger.Debug("captured page", slog.Int("html_bytes", len(html)), slog.Int("png_bytes", len(png)))
	return &Result{HTML: html, PNG: png}, nil
}
