package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sorenmh/nextintern/internal/internd/api"
	"github.com/sorenmh/nextintern/internal/internd/auth"
	"github.com/sorenmh/nextintern/internal/internd/config"
	"github.com/sorenmh/nextintern/internal/internd/db"
	"github.com/sorenmh/nextintern/internal/internd/events"
	"github.com/sorenmh/nextintern/internal/internd/metrics"
	"github.com/sorenmh/nextintern/internal/internd/ops"
	"github.com/sorenmh/nextintern/internal/internd/ratelimit"
	"github.com/sorenmh/nextintern/internal/internd/service"
	"github.com/sorenmh/nextintern/internal/logging"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("INTERND_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info("starting internd", map[string]interface{}{
		"version": version,
		"commit":  commit,
		"built":   date,
	})

	// Ensure database directory exists
	if cfg.Database.Driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
	}

	// Open database
	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()
	logger.Info("database initialized", map[string]interface{}{"driver": cfg.Database.Driver})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]ops.Pinger{"database": database}

	// Redis backs refresh tokens and rate limiting when configured
	var (
		rdb        *redis.Client
		tokenStore auth.TokenStore = auth.NewMemoryTokenStore()
		limiter    ratelimit.Limiter
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		tokenStore = auth.NewRedisTokenStore(rdb)
		checks["redis"] = ops.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	} else {
		logger.Warn("redis not configured, using in-process token store and rate limiter", nil)
	}

	if cfg.RateLimit.Enabled {
		if rdb != nil {
			limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, "internd:ratelimit")
		} else {
			limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	}

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, tokenStore)

	publisher, err := events.NewPublisher(ctx, cfg.Events, logger)
	if err != nil {
		log.Fatalf("Failed to create event publisher: %v", err)
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	svc := service.New(database.DB, tokens, publisher, m, logger)

	if cfg.Auth.AdminEmail != "" {
		if _, err := svc.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, ""); err != nil {
			log.Fatalf("Failed to provision admin: %v", err)
		}
	}

	server := api.NewServer(cfg, api.Deps{
		DB:      database,
		Service: svc,
		Redis:   rdb,
		Limiter: limiter,
		Metrics: m,
		Logger:  logger,
		Version: version,
	})
	opsServer := ops.NewServer(cfg.Server.OpsPort, reg, checks, logger)

	errCh := make(chan error, 2)
	go func() { errCh <- server.Start() }()
	go func() { errCh <- opsServer.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down", nil)
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("server error", nil)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("API server shutdown failed", nil)
	}
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("ops server shutdown failed", nil)
	}
}
