package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/reelgraph/internal/cache"
	"github.com/zfogg/reelgraph/internal/config"
	"github.com/zfogg/reelgraph/internal/container"
	"github.com/zfogg/reelgraph/internal/database"
	"github.com/zfogg/reelgraph/internal/handlers"
	"github.com/zfogg/reelgraph/internal/logger"
	"github.com/zfogg/reelgraph/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("REELGRAPH_CONFIG_DIR"))
	if err != nil {
		return err
	}

	zl, err := logger.Initialize(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := container.New().SetLogger(zl).EnableMetrics()

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.SetDB(db).OnCleanup(func(context.Context) error { return database.Close(db) })

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	zl.Info("database ready", zap.String("driver", cfg.Database.Driver))

	var redisPinger handlers.Pinger
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisClient(ctx, cfg.Redis, zl.Named("redis"))
		if err != nil {
			// rate limiting degrades to a pass-through
			zl.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		} else {
			c.SetCache(rc).OnCleanup(func(context.Context) error { return rc.Close() })
			redisPinger = rc
		}
	}

	tp, err := telemetry.InitTracer(ctx, cfg.Tracing, cfg.Server.Environment)
	if err != nil {
		zl.Warn("tracing disabled", zap.Error(err))
	} else if tp != nil {
		c.OnCleanup(func(ctx context.Context) error { return telemetry.Shutdown(ctx, tp) })
		zl.Info("tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	}

	services, err := c.Build(cfg.Feed)
	if err != nil {
		return err
	}

	h := handlers.NewHandlers(services, db, redisPinger, cfg, zl.Named("http"))
	router := handlers.NewRouter(h, cfg, handlers.RouterOptions{
		Metrics:  c.Metrics(),
		Gatherer: c.Registry(),
		Counter:  c.RateCounter(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("reelgraph server starting", zap.Int("port", cfg.Server.Port), zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	zl.Info("shutting down server")

	// outstanding requests get 30 seconds
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	if err := c.Cleanup(shutdownCtx); err != nil {
		zl.Warn("cleanup incomplete", zap.Error(err))
	}

	zl.Info("server exited")
	return nil
}
