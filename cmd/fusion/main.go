package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/metrics"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     "fusion@" + Version,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Sentry, errors will not be reported")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer("127.0.0.1", cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	if err := newRootCommand(cfg).ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("Interrupted")
			return 130
		}
		logger.Error().Err(err).Msg("Command failed")
		sentry.CaptureException(err)
		return 1
	}
	return 0
}
