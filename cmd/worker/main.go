package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"useraccounts/internal/cache"
	"useraccounts/internal/config"
	"useraccounts/internal/log"
	"useraccounts/internal/queue"
	"useraccounts/internal/storage"
	"useraccounts/internal/tasks"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment).With().Str("component", "worker").Logger()

	client, err := cache.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	var remover tasks.AvatarRemover
	if cfg.Storage.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		remover = objectStore
	} else {
		logger.Warn().Msg("storage endpoint not set, avatar cleanup disabled")
	}

	processor := tasks.NewProcessor(remover, logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Events.Stream,
		cfg.Worker.Group,
		cfg.Worker.Consumer,
		cfg.Worker.ClaimInterval,
		logger,
		processor,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.EnsureGroup(ctx); err != nil {
		logger.Fatal().Err(err).Msg("create consumer group failed")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("consumer did not stop in time")
	}
}
