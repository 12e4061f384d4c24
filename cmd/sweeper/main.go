package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"crmserver/config"
	"crmserver/internal/repository"
	"crmserver/internal/sweeper"
	"crmserver/pkg/db"
	"crmserver/pkg/logger"
	"crmserver/pkg/mq"
)

func main() {
	cfg := config.Load()

	zlog := logger.New()
	defer zlog.Sync()

	zlog.Info("Starting sweeper", zap.Duration("interval", cfg.Sweeper.Interval))

	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		zlog.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	customerRepo := repository.NewCustomerRepository(dbConn)
	taskRepo := repository.NewTaskRepository(dbConn, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper.New(customerRepo, taskRepo, publisher, zlog).Run(ctx, cfg.Sweeper.Interval)
}
