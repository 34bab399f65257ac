package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rbertolino-dev/flow-sub011/cmd/mainconfig"
	"github.com/rbertolino-dev/flow-sub011/internal/api/router"
	"github.com/rbertolino-dev/flow-sub011/internal/budgets"
	"github.com/rbertolino-dev/flow-sub011/internal/chatwoot"
	appconfig "github.com/rbertolino-dev/flow-sub011/internal/config"
	"github.com/rbertolino-dev/flow-sub011/internal/contracts"
	"github.com/rbertolino-dev/flow-sub011/internal/events"
	httpmiddleware "github.com/rbertolino-dev/flow-sub011/internal/http/middleware"
	"github.com/rbertolino-dev/flow-sub011/internal/leads"
	"github.com/rbertolino-dev/flow-sub011/internal/messaging"
	"github.com/rbertolino-dev/flow-sub011/internal/messaging/evolutionclient"
	"github.com/rbertolino-dev/flow-sub011/internal/notify"
	"github.com/rbertolino-dev/flow-sub011/internal/observability/metrics"
	"github.com/rbertolino-dev/flow-sub011/internal/realtime"
	"github.com/rbertolino-dev/flow-sub011/internal/storage"
	"github.com/rbertolino-dev/flow-sub011/internal/worker/broadcast"
	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting flow CRM API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics registry shared with the /metrics endpoint.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	appMetrics := metrics.New(registry)

	// Database. The service runs degraded without one: in-memory repos, no
	// outbox, no message history.
	var pool *pgxpool.Pool
	var auditDB *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		auditDB, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open audit db", "error", err)
			os.Exit(1)
		}
		defer func() { _ = auditDB.Close() }()
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory repositories")
	}

	// Repositories.
	var leadsRepo leads.Repository
	var contractsRepo contracts.Repository
	if pool != nil {
		leadsRepo = leads.NewPostgresRepository(pool)
		contractsRepo = contracts.NewPostgresRepository(pool)
	} else {
		leadsRepo = leads.NewInMemoryRepository()
		contractsRepo = contracts.NewInMemoryRepository()
	}

	// Outbox + realtime fan-out.
	hub := realtime.NewHub(cfg.CORSAllowedOrigins, logger)
	var outboxStore *events.OutboxStore
	if pool != nil {
		outboxStore = events.NewOutboxStore(pool)
		deliverer := events.NewDeliverer(outboxStore, hub, logger).
			WithBatchSize(int32(cfg.OutboxBatchSize)).
			WithInterval(cfg.OutboxInterval)
		go deliverer.Start(ctx)
	}
	// A nil *OutboxStore inside a non-nil interface would bypass the nil
	// checks in the handlers, so only hand it over when it exists.
	var eventPublisher leads.EventPublisher
	if outboxStore != nil {
		eventPublisher = outboxStore
	}

	// Redis status cache.
	var statusCache *messaging.StatusCache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		statusCache = messaging.NewStatusCache(redis.NewClient(opts), cfg.InstanceStatusCacheTTL)
	}

	// AWS clients (S3 for contract artifacts, SES as optional mail provider).
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	uploader, err := storage.NewS3Uploader(awss3.NewFromConfig(awsCfg), cfg.ContractsBucket, logger)
	if err != nil {
		logger.Error("failed to create S3 uploader", "error", err)
		os.Exit(1)
	}

	// Outbound e-mail.
	var emailSender notify.EmailSender
	switch cfg.EmailProvider {
	case "ses":
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case "stub":
		emailSender = notify.NewStubEmailSender(logger)
	default:
		sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sg != nil {
			emailSender = sg
		}
	}
	notifyService := notify.NewService(emailSender, cfg.SendGridFromName, logger)

	// WhatsApp gateway.
	var evoClient *evolutionclient.Client
	if cfg.EvolutionBaseURL != "" {
		evoClient, err = evolutionclient.New(evolutionclient.Config{
			BaseURL:    cfg.EvolutionBaseURL,
			APIKey:     cfg.EvolutionAPIKey,
			Instance:   cfg.EvolutionInstance,
			MaxRetries: cfg.EvolutionRetryAttempts,
			Backoff:    cfg.EvolutionRetryBackoff,
			Logger:     logger.Logger,
		})
		if err != nil {
			logger.Error("failed to create evolution client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("EVOLUTION_BASE_URL not set; WhatsApp channel disabled")
	}

	var messageStore *messaging.Store
	if pool != nil {
		messageStore = messaging.NewStore(pool)
	}

	// Chatwoot mirroring (best-effort, optional).
	var mirror messaging.ChatMirror
	if cfg.ChatwootBaseURL != "" && cfg.ChatwootToken != "" {
		cwClient, err := chatwoot.New(chatwoot.Config{
			BaseURL:   cfg.ChatwootBaseURL,
			Token:     cfg.ChatwootToken,
			AccountID: cfg.ChatwootAccountID,
			InboxID:   cfg.ChatwootInboxID,
		})
		if err != nil {
			logger.Error("failed to create chatwoot client", "error", err)
			os.Exit(1)
		}
		mirror = chatwoot.NewMirror(cwClient, logger)
	}

	// Handlers.
	leadsHandler := leads.NewHandler(leadsRepo, eventPublisher, logger)

	var budgetsHandler *budgets.Handler
	if pool != nil {
		var budgetEvents budgets.EventPublisher
		if outboxStore != nil {
			budgetEvents = outboxStore
		}
		budgetsHandler = budgets.NewHandler(budgets.NewPostgresRepository(pool), budgetEvents, logger).
			WithMailer(notifyService, leadsRepo)
	}

	var contractNotifier contracts.Notifier
	var messagingHandler *messaging.Handler
	if evoClient != nil {
		notifier, err := messaging.NewNotifier(evoClient, messageStore, notifyService, "", logger)
		if err != nil {
			logger.Error("failed to create contract notifier", "error", err)
			os.Exit(1)
		}
		contractNotifier = notifier

		var msgEvents messaging.EventPublisher
		if outboxStore != nil {
			msgEvents = outboxStore
		}
		messagingHandler = messaging.NewHandler(
			evoClient, messageStore, statusCache, mirror, msgEvents,
			cfg.EvolutionWebhookToken, logger,
		).WithMetrics(appMetrics)
	}

	var auditTrail contracts.AuditLogger
	if auditDB != nil {
		auditTrail = contracts.NewAuditTrail(auditDB)
	}
	var contractEvents contracts.EventPublisher
	if outboxStore != nil {
		contractEvents = outboxStore
	}
	contractsHandler := contracts.NewHandler(
		contractsRepo, auditTrail, uploader, contractNotifier, contractEvents,
		cfg.PublicBaseURL, logger,
	).WithMetrics(appMetrics)

	// Broadcast workers.
	var broadcastHandler *broadcast.Handler
	if pool != nil && evoClient != nil {
		broadcastStore := broadcast.NewStore(pool)
		broadcastHandler = broadcast.NewHandler(broadcastStore, logger)
		for i := 0; i < cfg.BroadcastWorkerCount; i++ {
			sender := broadcast.NewSender(broadcastStore, evoClient, logger).
				WithMaxAttempts(cfg.BroadcastMaxAttempts).
				WithInterval(cfg.BroadcastInterval).
				WithBatchSize(cfg.BroadcastBatchSize).
				WithMetrics(appMetrics)
			go sender.Run(ctx)
		}
	}

	routerCfg := &router.Config{
		Logger:             logger,
		LeadsHandler:       leadsHandler,
		ContractsHandler:   contractsHandler,
		BudgetsHandler:     budgetsHandler,
		MessagingHandler:   messagingHandler,
		BroadcastHandler:   broadcastHandler,
		RealtimeHub:        hub,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WebhookRateLimit:   httpmiddleware.DefaultWebhookRate,
		WebhookBurst:       httpmiddleware.DefaultWebhookBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
