package main

import (
	"log"

	"go.uber.org/zap"

	"crmserver/config"
	"crmserver/internal/handler"
	"crmserver/internal/httpserver"
	"crmserver/internal/repository"
	"crmserver/internal/service/auth"
	"crmserver/internal/service/crm"
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

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	// Init RabbitMQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn)
	customerRepo := repository.NewCustomerRepository(dbConn)
	taskRepo := repository.NewTaskRepository(dbConn, zlog)
	meetingRepo := repository.NewMeetingRepository(dbConn)
	summaryRepo := repository.NewSummaryRepository(dbConn)

	// Init Services
	authService := auth.NewService(userRepo, cfg.JWT.Secret)
	crmService := crm.NewService(customerRepo, taskRepo, rdb, zlog)

	// Init Handlers
	authHandler := handler.NewAuthHandler(authService)
	customerHandler := handler.NewCustomerHandler(crmService, zlog)
	taskHandler := handler.NewTaskHandler(crmService, zlog)
	meetingHandler := handler.NewMeetingHandler(meetingRepo, summaryRepo, publisher, zlog)
	dashboardHandler := handler.NewDashboardHandler(crmService, zlog)

	// Router
	router := httpserver.NewRouter(
		authHandler,
		customerHandler,
		taskHandler,
		meetingHandler,
		dashboardHandler,
		cfg.JWT.Secret,
		zlog,
		dbConn,
		publisher,
	)

	// Start API server
	if err := router.Run(cfg.Server.Port); err != nil {
		zlog.Fatal("server start failed", zap.Error(err))
	}
}
