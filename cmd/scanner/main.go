package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"forumwatch/config"
	"forumwatch/internal/db"
	"forumwatch/internal/extract"
	"forumwatch/internal/mq"
	"forumwatch/internal/mqhandler"
	"forumwatch/internal/notify"
	redisclient "forumwatch/internal/redis"
	"forumwatch/internal/repository"
	"forumwatch/internal/scan"
	"forumwatch/internal/scheduler"
	"forumwatch/internal/service"
	"forumwatch/internal/util"
)

func main() {
	// Load config
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting scanner service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, time.Hour, logger)

	// Init repositories
	targetRepo := repository.NewTargetRepository(dbConn)
	ledgerRepo := repository.NewLedgerRepository(dbConn)
	prefRepo := repository.NewPreferenceRepository(dbConn)
	linkRepo := repository.NewLinkRepository(dbConn)
	statsRepo := repository.NewStatsRepository(dbConn)

	// Init transports
	httpClient := &http.Client{Timeout: cfg.Scan.FetchTimeout}

	var channel notify.ChannelPoster
	if cfg.Sinks.ChannelWebhook != "" {
		channel = notify.NewWebhookSink(cfg.Sinks.ChannelWebhook, httpClient, logger)
	}
	var direct notify.DirectSender
	if cfg.Sinks.DirectURL != "" {
		direct = notify.NewDirectWebhookSink(cfg.Sinks.DirectURL, httpClient, logger)
	}
	var secondary notify.SecondarySender
	if cfg.Sinks.Telegram.Token != "" {
		secondary = notify.NewTelegramSink(cfg.Sinks.Telegram.APIURL, cfg.Sinks.Telegram.Token, httpClient, logger)
	}

	router := notify.NewRouter(channel, direct, secondary, prefRepo, linkRepo, ledgerRepo, deduper, logger)

	// Init scan engine
	extractor := extract.NewHTTPExtractor(httpClient, cfg.Scan.FetchAttempts, logger)
	engine := scan.NewEngine(extractor, targetRepo, ledgerRepo, router,
		cfg.Scan.BlockedMarkers, cfg.Scan.ExcludePatterns, logger)

	heartbeat := service.NewHeartbeat(statsRepo, engine, logger)

	// Init schedule
	sched := scheduler.New(logger)
	for _, feed := range cfg.Scan.Feeds {
		feed := feed
		sched.Add(scheduler.Task{
			Name:       "scan:" + feed.Name,
			Interval:   cfg.Scan.Interval,
			RunOnStart: true,
			Run: func(ctx context.Context) error {
				return engine.RunFeed(ctx, feed)
			},
		})
	}
	if cfg.Sinks.RosterWebhook != "" {
		roster := notify.NewRoster(targetRepo,
			notify.NewWebhookSink(cfg.Sinks.RosterWebhook, httpClient, logger), logger)
		sched.Add(scheduler.Task{
			Name:       "roster",
			Interval:   cfg.Scan.RosterInterval,
			RunOnStart: true,
			Run:        roster.Publish,
		})
	}
	sched.Add(scheduler.Task{
		Name:     "stats-heartbeat",
		Interval: time.Minute,
		Run:      heartbeat.Flush,
	})

	// Init request-workflow relay consumers
	if cfg.Sinks.AdminWebhook != "" {
		adminSink := notify.NewWebhookSink(cfg.Sinks.AdminWebhook, httpClient, logger)
		relay := mqhandler.NewRequestRelayHandler(adminSink, direct, logger)

		submitted, err := mq.NewConsumer(cfg.MQ.URL, "request.submitted.relay.q", mq.KeyRequestSubmitted, logger)
		if err != nil {
			logger.Fatal("failed to init submitted consumer", zap.Error(err))
		}
		defer submitted.Close()
		submitted.SetHandler(relay.HandleRequestSubmitted)
		go func() {
			if err := submitted.StartConsuming(); err != nil {
				logger.Fatal("submitted consumer failed", zap.Error(err))
			}
		}()

		resolved, err := mq.NewConsumer(cfg.MQ.URL, "request.resolved.relay.q", mq.KeyRequestResolved, logger)
		if err != nil {
			logger.Fatal("failed to init resolved consumer", zap.Error(err))
		}
		defer resolved.Close()
		resolved.SetHandler(relay.HandleRequestResolved)
		go func() {
			if err := resolved.StartConsuming(); err != nil {
				logger.Fatal("resolved consumer failed", zap.Error(err))
			}
		}()
	}

	sched.Start(ctx)
	logger.Info("Scanner running",
		zap.Int("feeds", len(cfg.Scan.Feeds)),
		zap.Duration("interval", cfg.Scan.Interval),
	)

	<-ctx.Done()
	logger.Info("Shutting down...")
	sched.Stop()

	// One final flush so the uptime counter survives the restart.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := heartbeat.Flush(flushCtx); err != nil {
		logger.Error("Final stats flush failed", zap.Error(err))
	}

	logger.Info("Scanner stopped")
}
