package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"useraccounts/internal/cache"
	"useraccounts/internal/config"
	"useraccounts/internal/database"
	"useraccounts/internal/handlers"
	"useraccounts/internal/jobs"
	"useraccounts/internal/log"
	"useraccounts/internal/repository"
	"useraccounts/internal/server"
	"useraccounts/internal/service"
	"useraccounts/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open user store")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, user events disabled")
		redisClient = nil
	}

	var avatars service.AvatarStore
	if cfg.Storage.Endpoint == "" {
		logger.Info().Msg("storage endpoint not set, avatar uploads disabled")
	} else {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBuckets(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure buckets failed")
		}
		avatars = objectStore
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, store, redisClient, avatars)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(redisClient, cfg.Events, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, closeStore, redisClient)
}

// openStore connects the configured user store and prepares its indexes.
func openStore(ctx context.Context, cfg *config.AppConfig) (repository.UserStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		db, err := database.NewMongoDatabase(ctx, cfg.Store.Mongo)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return repo, func() { _ = db.Client().Disconnect(context.Background()) }, nil
	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Store.Postgres)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresUserRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, pool.Close, nil
	case config.StoreMemory:
		return repository.NewMemoryUserRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, closeStore func(), redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()
	closeStore()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
