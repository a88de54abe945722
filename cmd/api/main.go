package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/deskflow/helpdesk/internal/api/http"
	"github.com/deskflow/helpdesk/internal/api/http/handlers"
	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/persistence"
	"github.com/deskflow/helpdesk/internal/repository"
	"github.com/deskflow/helpdesk/internal/service"
	"github.com/deskflow/helpdesk/internal/sla"
	"github.com/deskflow/helpdesk/internal/storage"
	"github.com/deskflow/helpdesk/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	if pg.Pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	objects, err := storage.NewMinio(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to init attachment storage", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	metrics.RegisterPool(pg.Pool)

	pool := pg.Pool
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	sectorRepo := repository.NewSectorRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	policies := persistence.NewPolicyCache(repository.NewSLAPolicyRepository(pool), redis.Client, cfg.SLA.PolicyCacheTTL(), logger)

	dispatcher := events.NewInMemoryDispatcher(logger)

	slaService := service.NewSLAService(service.SLADependencies{
		Calculator: sla.NewCalculator(defaultTable(cfg.SLA.DefaultHours)),
		PolicyRepo: policies,
		SectorRepo: sectorRepo,
		TicketRepo: ticketRepo,
		Logger:     logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		StaffRepo:         staffRepo,
		PasswordResetRepo: resetRepo,
		Logger:            logger,
	})
	orgService := service.NewStaffService(*cfg, service.OrgDependencies{
		SectorRepo: sectorRepo,
		TeamRepo:   teamRepo,
		StaffRepo:  staffRepo,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		MessageRepo:    messageRepo,
		AttachmentRepo: attachmentRepo,
		SectorRepo:     sectorRepo,
		TeamRepo:       teamRepo,
		StaffRepo:      staffRepo,
		HistoryRepo:    historyRepo,
		SLA:            slaService,
		Storage:        objects,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  ticketRepo,
		StaffRepo:   staffRepo,
		TeamRepo:    teamRepo,
		HistoryRepo: historyRepo,
		SLA:         slaService,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		StaffRepo:        staffRepo,
		Dispatcher:       dispatcher,
		Publisher:        redis,
		Logger:           logger,
		Config:           cfg.Notification,
	})
	worker.RegisterSubscribers(dispatcher, notificationService, assignmentService)

	monitor := worker.NewSLAMonitor(worker.SLAMonitorDependencies{
		Tickets:    ticketRepo,
		Policies:   slaService,
		Marker:     redis,
		History:    historyRepo,
		Dispatcher: dispatcher,
		Calculator: slaService.Calculator(),
		Metrics:    metrics,
		Logger:     logger,
		Interval:   cfg.SLA.MonitorInterval(),
		BatchSize:  cfg.SLA.MonitorBatchSize,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
			handlers.Probe{Name: "postgres", Pinger: pg},
			handlers.Probe{Name: "redis", Pinger: redis}),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService, orgService, cfg.App.Env != "production"),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService, assignmentService),
		SLA:            handlers.NewSLAHandler(slaService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo, staffRepo),
		Metrics:        metrics,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		return monitor.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", zap.Error(err))
	}
}

// defaultTable converts the configured level overrides into a calculator table.
func defaultTable(hours map[string]int) sla.Table {
	table := make(sla.Table, len(hours))
	for level, h := range hours {
		table[domain.CriticalityLevel(level)] = h
	}
	return table
}
