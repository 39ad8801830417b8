package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/storescan/zepto-scraper/config"
	"github.com/storescan/zepto-scraper/internal/domain"
	"github.com/storescan/zepto-scraper/internal/infrastructure/metrics"
	"github.com/storescan/zepto-scraper/internal/infrastructure/report"
	"github.com/storescan/zepto-scraper/internal/infrastructure/zepto"
	logpkg "github.com/storescan/zepto-scraper/internal/logger"
	"github.com/storescan/zepto-scraper/internal/telemetry"
	"github.com/storescan/zepto-scraper/internal/usecase"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zepto-scraper",
		Short: "Scrape the Zepto catalogue of every configured store into an Excel report",
		Long: `zepto-scraper runs every configured search query against every configured
Zepto dark store and writes the deduplicated products to a timestamped .xlsx file.

Configuration is read from config.yaml (., ./config, /etc/zepto-scraper/),
a .env file and ZEPTO_* environment variables, for example:
  ZEPTO_SESSION_XSRF_TOKEN        x-xsrf-token copied from DevTools
  ZEPTO_SESSION_REQUEST_SIGNATURE request-signature copied from DevTools
  ZEPTO_REPORT_OUTPUT_DIR         directory for the report (default: .)`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			logger, err := logpkg.NewLogger(cfg.Log.Environment, cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			flush := telemetry.Init(telemetry.Config{
				DSN:         cfg.Sentry.DSN,
				Environment: cfg.Sentry.Environment,
				Release:     version,
			}, logger)
			defer flush()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, cfg, logger); err != nil {
				telemetry.CaptureError(ctx, err)
				logger.Error("Scrape failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

// run wires the scrape pipeline and writes the report
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting zepto scraper",
		zap.String("version", version),
		zap.Int("stores", len(cfg.Scrape.Stores)),
		zap.Int("queries", len(cfg.Scrape.Queries)),
		zap.Int("max_pages", cfg.Scrape.MaxPages),
	)

	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		logger.Warn("Session credentials not configured, the API will likely reject requests",
			zap.Strings("missing", missing))
	}
	if cfg.API.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled")
	}

	m := metrics.New()

	client := zepto.NewClient(zepto.ClientConfig{
		BaseURL:            cfg.API.BaseURL,
		SearchPath:         cfg.API.SearchPath,
		Timeout:            cfg.API.Timeout,
		InsecureSkipVerify: cfg.API.InsecureSkipVerify,
		RequestsPerSecond:  cfg.API.RequestsPerSecond,
		Burst:              cfg.API.Burst,
		Headers:            cfg.RequestHeaders(),
	}, logger, m)

	service := usecase.NewScrapeService(client, usecase.NewRandomPacer(), logger, m, usecase.ScrapeServiceConfig{
		Queries:    cfg.Scrape.Queries,
		PageSize:   cfg.Scrape.PageSize,
		MaxPages:   cfg.Scrape.MaxPages,
		PagePause:  cfg.Scrape.PagePause,
		QueryPause: cfg.Scrape.QueryPause,
		StorePause: cfg.Scrape.StorePause,
	})

	result := service.Run(ctx, cfg.Scrape.Stores)
	if ctx.Err() != nil {
		logger.Warn("Scrape interrupted, writing partial results", zap.Int("products", result.Len()))
	}

	defer func() {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("Failed to write metrics textfile",
				zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
		}
	}()

	writer := report.NewExcelWriter(cfg.Report.OutputDir, cfg.Report.FilePrefix, logger)
	path, err := writer.Write(context.WithoutCancel(ctx), result)
	if errors.Is(err, domain.ErrNoProducts) {
		logger.Warn("No data collected, no report written",
			zap.Int("stores", len(cfg.Scrape.Stores)),
			zap.String("hint", usecase.AuthHint))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	for _, s := range report.Summarize(result) {
		logger.Info("Store summary",
			zap.String("store", s.StoreName),
			zap.Int("products", s.TotalProducts),
			zap.Int("unique_products", s.UniqueProducts),
			zap.Int("out_of_stock", s.OutOfStock),
		)
	}
	logger.Info("Scrape complete",
		zap.String("file", path),
		zap.Int("products", result.Len()),
		zap.Int("stores", len(cfg.Scrape.Stores)),
	)
	return nil
}
