package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/api"
	"github.com/patrickwarner/marketpulse/internal/cache"
	"github.com/patrickwarner/marketpulse/internal/config"
	"github.com/patrickwarner/marketpulse/internal/loader"
	"github.com/patrickwarner/marketpulse/internal/middleware"
	"github.com/patrickwarner/marketpulse/internal/observability"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.Environment, cfg.TempoEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer shutdown()
	}

	// Initialize metrics registry
	metricsRegistry := observability.NewPrometheusRegistry()

	// The memoization cache keeps aggregation off the hot path. Redis is
	// optional; a single instance gets the same behavior from process memory.
	var store cache.Cache
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedis(ctx, cfg.RedisAddr, logger)
		if err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		store = cache.NewMemory()
	}

	ld := loader.NewLoader(logger, metricsRegistry)
	srvDeps := api.NewServer(logger, cfg, ld, store, metricsRegistry)

	r := mux.NewRouter()
	r.Use(middleware.WithRenderContext(logger))
	srvDeps.RegisterRoutes(r)

	// Static file server for the dashboard assets (HTML, CSS, JS)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))

	// metrics endpoint (includes render pass and cache metrics)
	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port

	var handler http.Handler = r
	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(r, "marketpulse.http")
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("MarketPulse dashboard running",
		zap.String("addr", addr),
		zap.String("data_dir", cfg.DataDir),
		zap.String("default_grouping", cfg.DefaultGrouping))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
