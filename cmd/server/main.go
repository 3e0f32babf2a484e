package main

import (
	"forumwatch/config"
	"forumwatch/internal/api"
	"forumwatch/internal/db"
	"forumwatch/internal/mq"
	"forumwatch/internal/repository"
	"forumwatch/internal/service"

	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// 2. Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// 3. Init RabbitMQ publisher for workflow events
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// 4. Init repositories
	targetRepo := repository.NewTargetRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn)
	prefRepo := repository.NewPreferenceRepository(dbConn)
	linkRepo := repository.NewLinkRepository(dbConn)
	ledgerRepo := repository.NewLedgerRepository(dbConn)
	statsRepo := repository.NewStatsRepository(dbConn)

	// 5. Init services
	targetService := service.NewTargetService(targetRepo, logger)
	workflow := service.NewRequestWorkflow(requestRepo, targetRepo, publisher, logger)

	// 6. Init handlers
	authHandler := api.NewAuthHandler(cfg.Admin.PasswordHash, cfg.JWT.Secret)
	targetHandler := api.NewTargetHandler(targetService)
	requestHandler := api.NewRequestHandler(workflow)
	userHandler := api.NewUserHandler(prefRepo, linkRepo)
	threadHandler := api.NewThreadHandler(ledgerRepo, statsRepo)

	// 7. Init router
	router := api.NewRouter(authHandler, targetHandler, requestHandler, userHandler, threadHandler, cfg.JWT.Secret)

	// 8. Run server
	logger.Info("Starting command server", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server start failed", zap.Error(err))
	}
}
