package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/analytics"
	"github.com/jonathan/portfolio/internal/content"
	"github.com/jonathan/portfolio/internal/db"
	"github.com/jonathan/portfolio/internal/metrics"
	"github.com/jonathan/portfolio/internal/rendering"
	"github.com/jonathan/portfolio/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portfolio server",
	Long: `Validate the content document and start an HTTP server that renders the page,
serves the tracker script and ingests telemetry. The server refuses to start
when the document does not match the resume schema.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	slog.SetDefault(logger)

	resume, err := content.LoadFile(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("refusing to serve %s: %w", cfg.ContentPath, err)
	}

	page, err := rendering.NewPage(cfg.TemplatePath)
	if err != nil {
		return fmt.Errorf("failed to load page template: %w", err)
	}

	jwtCfg, err := cfg.JWT()
	if err != nil {
		return err
	}
	if jwtCfg == nil {
		logger.Info("no jwt_secret configured, analytics summary disabled")
	}

	m := metrics.NewManager()
	sinks := analytics.MultiSink{analytics.NewLogSink(logger), m}

	var (
		store     server.SummaryStore
		storeSink *analytics.StoreSink
	)
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}

		storeSink = analytics.NewStoreSink(database, logger, cfg.EventQueueSize)
		sinks = append(sinks, storeSink)
		store = database
	} else {
		logger.Info("no database_url configured, telemetry is logged and counted only")
	}

	client := analytics.NewClient(sinks)
	srv, err := server.New(server.Config{
		Addr:          cfg.Addr,
		SiteURL:       cfg.SiteURL,
		Resume:        resume,
		Page:          page,
		OGImagePath:   cfg.OGImagePath,
		Metrics:       m,
		Analytics:     client,
		PageViews:     analytics.NewPageViews(client, cfg.PageViewTTL),
		SweepInterval: cfg.SweepInterval,
		Store:         store,
		SummaryWindow: cfg.SummaryWindow,
		JWT:           jwtCfg,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if storeSink == nil {
		return srv.Run(ctx)
	}

	// The store keeps draining after the server stops accepting requests.
	sinkCtx, stopSink := context.WithCancel(context.Background())
	go func() {
		_ = storeSink.Run(sinkCtx)
	}()

	err = srv.Run(ctx)
	stopSink()
	<-storeSink.Done()
	return err
}
