package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/assistant"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/knowledge"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
			return err
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	dispatcher, natsCheck, closeDispatcher, err := newDispatcher(cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to connect nats", zap.Error(err))
		return err
	}
	defer closeDispatcher()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	responseRepo := repository.NewResponseRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	faqRepo := repository.NewFAQRepository(pool)

	listCache := cache.NewTicketListCache(redis.Handle(), time.Duration(cfg.Redis.ListCacheTTLSec)*time.Second, logger)
	faqCache := cache.NewFAQContextCache(redis.Handle(), time.Duration(cfg.Redis.FAQCacheTTLSec)*time.Second, logger)
	hub := realtime.NewHub(logger)

	worker.StartEventConsumers(dispatcher, logger,
		hub,
		listCache,
		faqCache,
		service.NewNotificationService(logger, cfg.Notification),
	)

	retriever := knowledge.NewRetriever(faqRepo, faqCache, cfg.AI.FAQLimit, logger)
	assistService := service.NewAssistService(retriever, assistant.NewGenerator(cfg.AI, logger), cfg.AI.IncludePriority, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:            ticketRepo,
		ResponseRepo:          responseRepo,
		HistoryRepo:           historyRepo,
		Assistant:             assistService,
		Dispatcher:            dispatcher,
		ListCache:             listCache,
		Logger:                logger,
		AcceptAppliesPriority: cfg.AI.AcceptAppliesPriority,
	})
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		AccountRepo: accountRepo,
		ProfileRepo: profileRepo,
	})
	provisioningService := service.NewProvisioningService(accountRepo, profileRepo, cfg.Auth.BcryptCost, logger)
	catalogService := service.NewCatalogService(categoryRepo, faqRepo, dispatcher, logger)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	redisCheck := handlers.HealthCheck{Name: "redis"}
	if redis.Handle() != nil {
		redisCheck.Ping = redis.Ping
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, metrics, redisCheck, natsCheck),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(provisioningService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService),
		Functions:      handlers.NewFunctionsHandler(assistService, provisioningService),
		Realtime:       handlers.NewRealtimeHandler(hub, ticketService, logger),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), profileRepo),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		logger.Error("fiber listen", zap.Error(err))
		return err
	case sig := <-shutdownSignal():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	return app.ShutdownWithTimeout(10 * time.Second)
}

// newDispatcher shares events over NATS when configured and keeps them
// in-process otherwise.
func newDispatcher(cfg config.NATSConfig, logger *zap.Logger) (events.Dispatcher, handlers.HealthCheck, func(), error) {
	check := handlers.HealthCheck{Name: "nats"}
	if cfg.URL == "" {
		logger.Info("NATS_URL not provided; using in-memory event dispatcher")
		return events.NewInMemoryDispatcher(logger), check, func() {}, nil
	}
	conn, err := events.ConnectNATS(cfg, logger)
	if err != nil {
		return nil, check, nil, err
	}
	check.Ping = func(context.Context) error { return conn.FlushTimeout(time.Second) }
	d := events.NewNATSDispatcher(conn, cfg.SubjectPrefix, logger)
	return d, check, func() {
		if err := d.Close(); err != nil {
			logger.Warn("nats drain failed", zap.Error(err))
		}
	}, nil
}

func shutdownSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
