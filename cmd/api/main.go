package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/request-workflow/internal/api/http"
	"github.com/spec-kit/request-workflow/internal/api/http/handlers"
	"github.com/spec-kit/request-workflow/internal/auth"
	"github.com/spec-kit/request-workflow/internal/config"
	"github.com/spec-kit/request-workflow/internal/domain"
	"github.com/spec-kit/request-workflow/internal/events"
	"github.com/spec-kit/request-workflow/internal/observability"
	"github.com/spec-kit/request-workflow/internal/persistence"
	"github.com/spec-kit/request-workflow/internal/refdata"
	"github.com/spec-kit/request-workflow/internal/repository"
	"github.com/spec-kit/request-workflow/internal/service"
	"github.com/spec-kit/request-workflow/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	table := workflow.DefaultTransitionTable()
	if cfg.Workflow.TransitionsPath != "" {
		table, err = workflow.LoadTransitionTable(cfg.Workflow.TransitionsPath)
		if err != nil {
			logger.Fatal("failed to load transition table", zap.Error(err))
		}
	}

	var (
		requestRepo   repository.RequestRepository
		duplicateRepo repository.DuplicateRepository
		userRepo      repository.UserRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		requestRepo = repository.NewRequestRepository(pool)
		duplicateRepo = repository.NewDuplicateRepository(pool)
		userRepo = repository.NewUserRepository(pool)
	} else {
		requestRepo = repository.NewMemoryRequestRepository()
		duplicateRepo = repository.NewMemoryDuplicateRepository()
		userRepo = repository.NewMemoryUserRepository()
	}

	dispatcher := events.NewInMemoryDispatcher()
	events.RegisterAuditLog(dispatcher, logger)

	locks := service.NewRequestLocks()
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:   requestRepo,
		DuplicateRepo: duplicateRepo,
		Dispatcher:    dispatcher,
		Locks:         locks,
	})
	forwardService := service.NewForwardService(service.ForwardDependencies{
		RequestRepo: requestRepo,
		Table:       table,
		Dispatcher:  dispatcher,
		Locks:       locks,
	})
	duplicateService := service.NewDuplicateService(service.DuplicateDependencies{
		RequestRepo:   requestRepo,
		DuplicateRepo: duplicateRepo,
		Dispatcher:    dispatcher,
		Locks:         locks,
	})
	authService := service.NewAuthService(*cfg, userRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	refdataCache := refdata.NewCache(refdata.NewClient(cfg.Refdata), redis.ClientHandle(), cfg.Refdata.CacheTTL(), logger)
	refdataCache.SeedActions(actionSeed(table))

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Requests:       handlers.NewRequestsHandler(requestService, forwardService, duplicateService, refdataCache),
		Refdata:        handlers.NewRefdataHandler(refdataCache),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func actionSeed(table *workflow.TransitionTable) []domain.Action {
	configs := table.Actions()
	actions := make([]domain.Action, 0, len(configs))
	for _, cfg := range configs {
		actions = append(actions, domain.Action{ID: cfg.ID, DisplayName: cfg.ID})
	}
	return actions
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
