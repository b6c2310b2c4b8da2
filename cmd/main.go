package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sqlconsole/backend/internal/config"
	"sqlconsole/backend/internal/handler"
	"sqlconsole/backend/internal/logger"
	"sqlconsole/backend/internal/metrics"
	"sqlconsole/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("sqlconsole failed: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	if err := config.LoadEnv(".env", "../.env"); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		AppName:  "sqlconsole",
		LogFile:  cfg.Log.File,
		LogLevel: cfg.Log.Level,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	zlog := logger.Get()
	defer zlog.Sync()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	handler.PoolOptions = service.PoolOptions{
		MaxOpenConns:     cfg.DB.MaxOpenConns,
		MaxIdleConns:     cfg.DB.MaxIdleConns,
		ConnMaxLifetime:  cfg.DB.ConnMaxLifetime,
		StatementTimeout: cfg.DB.StatementTimeout,
	}

	if cfg.DB.DSN != "" {
		if err := handler.ConnectDB(cfg.DB.Driver, cfg.DB.DSN); err != nil {
			return fmt.Errorf("failed to connect to %s: %w", cfg.DB.Driver, err)
		}
		zlog.Info("connected to database", zap.String("driver", cfg.DB.Driver))
	} else {
		zlog.Warn("no DSN configured, waiting for POST /connect")
	}
	defer handler.CloseDB()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.NewRouter(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
