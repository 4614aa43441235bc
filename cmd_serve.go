package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rigcheck/internal/config"
	"rigcheck/internal/middleware"
	"rigcheck/internal/observability"
	"rigcheck/internal/routes"
	"rigcheck/internal/services"
	"rigcheck/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string // Overrides server.addr

// Per-IP rate limiter state is dropped after this long without a request
const limiterIdleTTL = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger := newLogger(os.Stderr, cfg.Server.LogFormat)
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracer(context.Background())

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	analysis, err := newAnalysisService(cfg, metrics, logger)
	if err != nil {
		return err
	}

	storeCfg := storage.DefaultConfig(cfg.Storage.Path)
	if cfg.Storage.InMemory {
		storeCfg = storage.InMemoryConfig()
	}
	storeCfg.Logger = logger.With("component", "badger")
	db, err := storage.Open(storeCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	auth, err := newAuthService(cfg)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	hub := services.NewWebSocketHub(logger)
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Analysis: analysis,
		Builds:   services.NewBuildService(db, metrics),
		Host:     services.NewHostService(services.DefaultHostProbe(), cfg.Host.RAMType),
		Auth:     auth,
		Hub:      hub,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logger,
		Limiter:  limiter,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Server.Addr, "catalog_entries", analysis.Catalog().Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		return limiter.RunSweeper(gctx, time.Minute, limiterIdleTTL, logger)
	})
	g.Go(func() error {
		return storage.RunGC(gctx, db, cfg.Storage.GCInterval, logger)
	})
	return g.Wait()
}
