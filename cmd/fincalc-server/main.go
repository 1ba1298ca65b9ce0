package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/fincalc/internal/advisor"
	"github.com/iwvelando/fincalc/internal/cache"
	"github.com/iwvelando/fincalc/internal/config"
	"github.com/iwvelando/fincalc/internal/history"
	"github.com/iwvelando/fincalc/internal/observability"
	"github.com/iwvelando/fincalc/internal/report"
	"github.com/iwvelando/fincalc/internal/server"
	"github.com/iwvelando/fincalc/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := config.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(logger, cfg); err != nil {
		logger.Fatal("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

func run(logger *zap.Logger, cfg *server.Config) error {
	ctx := context.Background()

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close history store", zap.String("op", "main.run"), zap.Error(err))
		}
	}()

	calcCache, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() {
		_ = calcCache.Close()
	}()

	opts := server.Options{
		MaxUploadSize: cfg.UploadSizeBytes(),
		Version:       version,
		History:       store,
		Cache:         calcCache,
		Metrics:       observability.NewMetrics(cfg.Metrics.Namespace),
	}

	if cfg.RateLimit.Capacity > 0 {
		limiter := server.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Refill)
		defer limiter.Stop()
		opts.Limiter = limiter
	}

	if cfg.Advisor.Enabled {
		adv, err := advisor.NewFromEnv(logger, cfg.Advisor)
		switch {
		case errors.Is(err, advisor.ErrNotConfigured):
			logger.Warn("advisor enabled but ANTHROPIC_API_KEY is not set", zap.String("op", "main.run"))
		case err != nil:
			return fmt.Errorf("create advisor: %w", err)
		default:
			opts.Advisor = adv
		}
	}

	if renderer := report.NewChromiumPDFRenderer(cfg.Report.ChromePath); renderer.Available() {
		opts.PDF = renderer
	} else {
		logger.Info("no Chromium found, pdf export disabled", zap.String("op", "main.run"))
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main.run"),
			zap.String("address", cfg.Address),
			zap.String("history", cfg.History.Driver),
			zap.String("cache", cfg.Cache.Driver),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("op", "main.run"), zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
