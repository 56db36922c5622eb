package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudkenya/hostpanel/internal/api"
	"github.com/cloudkenya/hostpanel/internal/infrastructure/audit"
	mongodb "github.com/cloudkenya/hostpanel/internal/infrastructure/db/mongo"
	redisdb "github.com/cloudkenya/hostpanel/internal/infrastructure/db/redis"
	"github.com/cloudkenya/hostpanel/internal/pkg/config"
	"github.com/cloudkenya/hostpanel/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.Auth.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx := context.Background()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	accountRepo := mongodb.NewAccountRepository(db)
	if err := accountRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("account index creation failed")
	}
	activityRepo := mongodb.NewActivityRepository(db)
	if err := activityRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("activity index creation failed")
	}

	dispatcher := audit.NewDispatcher(activityRepo, cfg.Auth.AuditWorkers, cfg.Auth.AuditBuffer, log)
	// Drained last so audit entries from in-flight requests still land.
	defer dispatcher.Close()

	e := api.NewRouter(db, rdb, cfg, dispatcher, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("hostpanel api started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}
