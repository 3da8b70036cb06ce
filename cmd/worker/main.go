package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/app"
	"adrenaline_backend/internal/config"
	"adrenaline_backend/internal/logger"
	"adrenaline_backend/internal/queue"
	"adrenaline_backend/internal/worker"
)

func main() {
	if err := run(); err != nil {
		logrus.Fatalf("Worker failed: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()
	if infra.Redis == nil {
		return errors.New("feed worker requires REDIS_URL")
	}

	providers := worker.NewStoreProviders(infra.Store)
	handler := worker.NewHandler(infra.Cache, providers, providers, logger.Component(log, "FeedHandler"))
	consumer := queue.NewConsumer(infra.Redis.Client, logger.Component(log, "Consumer"))

	cfgWorkers := worker.DefaultManagerConfig()
	cfgWorkers.WorkerCount = cfg.FeedWorkerCount
	manager := worker.NewManager(consumer, handler, cfgWorkers, logger.Component(log, "WorkerManager"))

	if err := manager.Start(ctx); err != nil {
		return err
	}
	log.WithField("workers", cfgWorkers.WorkerCount).Info("Feed worker started")

	<-ctx.Done()
	log.Info("Stopping feed worker")
	manager.Stop()
	return nil
}
