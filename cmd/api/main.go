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

	"shop-catalog/internal/config"
	"shop-catalog/internal/database"
	"shop-catalog/internal/logger"
	"shop-catalog/internal/server"
	"shop-catalog/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("catalog API stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.JWT.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log.Info("starting catalog API", zap.String("env", cfg.Server.Env), zap.String("port", cfg.Server.Port))

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	log.Info("database reachable", zap.Any("health", db.Health()))

	if err := database.RunMigrations(db.DB(), log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	images, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("image storage: %w", err)
	}

	srv := server.NewServer(cfg, log, server.Dependencies{
		Database: db,
		Redis:    connectRedis(cfg.Redis, log),
		Images:   images,
		Registry: newRegistry(db, cfg.Database.Database),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Driver))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			srv.Close()
			return err
		}
	case <-ctx.Done():
		stop()
		log.Info("shutting down, press Ctrl+C again to force")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("in-flight requests cut off", zap.Error(err))
	}
	if err := srv.Close(); err != nil {
		log.Error("closing resources", zap.Error(err))
	}
	log.Info("shutdown complete")
	return nil
}

// connectRedis never fails: the rate limiter lets traffic through while Redis is down.
func connectRedis(cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr(), Password: cfg.Password, DB: cfg.DB})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, rate limiting suspended", zap.String("addr", cfg.Addr()), zap.Error(err))
	}
	return client
}

func newRegistry(db database.Service, dbName string) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB(), dbName),
	)
	return reg
}
