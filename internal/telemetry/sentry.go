// Package telemetry reports fatal scrape errors to Sentry when a DSN is configured.
package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const (
	serverName   = "zepto-scraper"
	flushTimeout = 5 * time.Second
)

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN         string
	Environment string
	Release     string
}

// Init initializes Sentry and returns a function that flushes pending events.
// If DSN is empty, returns a no-op flush function.
func Init(cfg Config, logger *zap.Logger) func() {
	if cfg.DSN == "" {
		return func() {}
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		ServerName:  serverName,
	})
	if err != nil {
		logger.Warn("sentry: failed to initialize, continuing without error reporting", zap.Error(err))
		return func() {}
	}

	logger.Info("sentry: error reporting initialized", zap.String("environment", cfg.Environment))
	return func() {
		sentry.Flush(flushTimeout)
	}
}

// CaptureError captures an error to Sentry with the current context.
func CaptureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
}

// CaptureMessage captures a message to Sentry with the current context.
func CaptureMessage(ctx context.Context, message string) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureMessage(message)
	} else {
		sentry.CaptureMessage(message)
	}
}
