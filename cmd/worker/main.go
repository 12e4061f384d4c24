package main

import (
	"time"

	"go.uber.org/zap"

	"crmserver/config"
	"crmserver/internal/mqhandler"
	"crmserver/internal/repository"
	"crmserver/internal/service/crm"
	"crmserver/internal/service/summary"
	"crmserver/internal/util"
	"crmserver/pkg/db"
	"crmserver/pkg/logger"
	"crmserver/pkg/mq"
	redisclient "crmserver/pkg/redis"
)

func main() {
	// Load config
	cfg := config.Load()

	zlog := logger.New()
	defer zlog.Sync()

	zlog.Info("Starting worker...")

	// Init Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, time.Hour)
	retryCounter := util.NewRetryCounter(rdb, time.Hour)

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Repositories
	customerRepo := repository.NewCustomerRepository(dbConn)
	taskRepo := repository.NewTaskRepository(dbConn, zlog)
	meetingRepo := repository.NewMeetingRepository(dbConn)
	summaryRepo := repository.NewSummaryRepository(dbConn)

	// Init Services
	crmService := crm.NewService(customerRepo, taskRepo, rdb, zlog)
	summarizer := summary.NewService(cfg.AI, zlog)

	// Init Handlers
	summarizeHandler := mqhandler.NewMeetingSummarizeHandler(
		meetingRepo, customerRepo, summaryRepo, crmService, summarizer, deduper, retryCounter, zlog,
	)
	renewalHandler := mqhandler.NewRenewalDueHandler(taskRepo, crmService, deduper, retryCounter, zlog)

	// (1) Consumer for meeting summarization
	zlog.Info("Initializing summarize consumer", zap.String("queue", "meeting.summarize.q"))
	consumerSummarize, err := mq.NewConsumer(cfg.MQ.URL, "meeting.summarize.q", mq.KeyMeetingSummarize, zlog)
	if err != nil {
		zlog.Fatal("failed to init summarize consumer", zap.Error(err))
	}
	consumerSummarize.SetHandler(summarizeHandler.HandleMeetingSummarize)
	go func() {
		zlog.Info("Starting summarize consumer")
		if err := consumerSummarize.StartConsuming(); err != nil {
			zlog.Fatal("summarize consumer failed", zap.Error(err))
		}
	}()
	defer consumerSummarize.Close()

	// (2) Consumer for renewal follow-ups
	zlog.Info("Initializing renewal consumer", zap.String("queue", "renewal.due.q"))
	consumerRenewal, err := mq.NewConsumer(cfg.MQ.URL, "renewal.due.q", mq.KeyRenewalDue, zlog)
	if err != nil {
		zlog.Fatal("failed to init renewal consumer", zap.Error(err))
	}
	consumerRenewal.SetHandler(renewalHandler.HandleRenewalDue)
	go func() {
		zlog.Info("Starting renewal consumer")
		if err := consumerRenewal.StartConsuming(); err != nil {
			zlog.Fatal("renewal consumer failed", zap.Error(err))
		}
	}()
	defer consumerRenewal.Close()

	zlog.Info("All consumers started, worker is ready to process messages")

	// Keep worker running
	select {}
}
