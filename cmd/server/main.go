package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/acquaintance/internal/api"
	"github.com/oggyb/acquaintance/internal/app"
	"github.com/oggyb/acquaintance/internal/auth"
	"github.com/oggyb/acquaintance/internal/cache"
	"github.com/oggyb/acquaintance/internal/config"
	"github.com/oggyb/acquaintance/internal/db"
	"github.com/oggyb/acquaintance/internal/logger"
	"github.com/oggyb/acquaintance/internal/server"
	"github.com/oggyb/acquaintance/internal/service/likes"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		SigningKey: []byte(cfg.Token.SigningKey),
		TTL:        cfg.Token.TTL,
		Issuer:     cfg.Token.Issuer,
	})
	if err != nil {
		log.Error("failed to init token issuer", "err", err)
		os.Exit(1)
	}

	// Init DB
	database, err := db.NewDB(cfg, log)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis; without it counters and caches are skipped
	redisCache := cache.NewRedisCache(cfg)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, running without cache", "addr", cfg.Redis.Addr, "err", err)
		_ = redisCache.Close()
		redisCache = nil
	}
	cancel()

	appCtx := app.New(cfg, database, redisCache, log, issuer, auth.NewBcryptHasher(0))

	if cfg.App.ENV == "development" && os.Getenv("SEED_ON_START") != "" {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	httpServer := server.NewHTTPServer(cfg, api.NewRouter(appCtx), log)
	grpcServer := server.NewGRPCServer(log, issuer, "/"+likes.ServiceName+"/",
		likes.NewRegistrar(appCtx),
	)

	errCh := make(chan error, 2)
	go func() { errCh <- httpServer.Start() }()
	go func() { errCh <- grpcServer.ListenAndServe(cfg) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", "err", err)
		}
	}

	ctx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := httpServer.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Error("http shutdown failed", "err", err)
	}
	grpcServer.Stop(ctx)

	if redisCache != nil {
		_ = redisCache.Close()
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("bye")
}
