package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/queue-service/internal/api/http"
	"github.com/spec-kit/queue-service/internal/api/http/handlers"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/estimator"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/observability"
	"github.com/spec-kit/queue-service/internal/persistence"
	"github.com/spec-kit/queue-service/internal/repository"
	"github.com/spec-kit/queue-service/internal/service"
	"github.com/spec-kit/queue-service/internal/worker"
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

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	// Without a Postgres DSN everything runs in memory. Useful for local
	// development and demos; state does not survive a restart.
	var queueRepo repository.QueueRepository
	var userRepo repository.UserRepository
	var agentRepo repository.AgentRepository
	if pool != nil {
		queueRepo = repository.NewPostgresQueueRepository(pool, cfg.Queue.ConflictRetries)
		userRepo = repository.NewUserRepository(pool)
		agentRepo = repository.NewAgentRepository(pool)
	} else {
		logger.Warn("running with in-memory repositories")
		queueRepo = repository.NewMemoryQueueRepository()
		userRepo = repository.NewMemoryUserRepository()
		agentRepo = repository.NewMemoryAgentRepository()
	}

	var blacklistRepo repository.BlacklistRepository
	if redis.Client != nil {
		blacklistRepo = repository.NewRedisBlacklistRepository(redis.Client)
	} else {
		blacklistRepo = repository.NewMemoryBlacklistRepository()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	heuristic := estimator.NewHeuristic(estimator.HeuristicConfig{
		SalaryDays: cfg.Queue.SalaryDays,
	}, nil)
	oracle := estimator.NewOracleClient(cfg.Oracle.BaseURL, cfg.Oracle.Timeout())
	hybrid := estimator.NewHybrid(heuristic, oracle, logger, metrics)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  userRepo,
		AgentRepo: agentRepo,
	})
	queueService := service.NewQueueService(service.QueueDependencies{
		Repo:       queueRepo,
		Blacklist:  blacklistRepo,
		Estimator:  hybrid,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	dispatchService := service.NewDispatchService(cfg.Queue, service.DispatchDependencies{
		Repo:       queueRepo,
		Blacklist:  blacklistRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	catalogService := service.NewCatalogService(cfg.Queue, queueRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, agentRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Agents:         handlers.NewAgentsHandler(authService),
		Tickets:        handlers.NewTicketsHandler(queueService),
		Queues:         handlers.NewQueuesHandler(queueService, catalogService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Dispatch:       handlers.NewDispatchHandler(dispatchService),
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

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
