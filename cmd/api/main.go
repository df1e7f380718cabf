package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/equipment-checkout/internal/api/http"
	"github.com/spec-kit/equipment-checkout/internal/api/http/handlers"
	"github.com/spec-kit/equipment-checkout/internal/auth"
	"github.com/spec-kit/equipment-checkout/internal/config"
	"github.com/spec-kit/equipment-checkout/internal/events"
	"github.com/spec-kit/equipment-checkout/internal/observability"
	"github.com/spec-kit/equipment-checkout/internal/persistence"
	"github.com/spec-kit/equipment-checkout/internal/repository"
	"github.com/spec-kit/equipment-checkout/internal/scan"
	"github.com/spec-kit/equipment-checkout/internal/service"
	"github.com/spec-kit/equipment-checkout/internal/worker"
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

	pool := pg.PoolHandle()

	var (
		assetRepo       repository.AssetRepository
		technicianRepo  repository.TechnicianRepository
		transactionRepo repository.TransactionRepository
		auditRepo       repository.AuditRepository
		prefixRepo      repository.PrefixRepository
		clerkRepo       repository.ClerkRepository
		holderIndex     repository.HolderIndex
		redisConn       *persistence.Redis
	)

	if pool == nil {
		// Degraded mode: everything in process memory, nothing survives restart.
		logger.Warn("running without postgres; state is in-memory only")
		assetRepo = repository.NewMemoryAssetRepository()
		technicianRepo = repository.NewMemoryTechnicianRepository()
		transactionRepo = repository.NewMemoryTransactionRepository()
		auditRepo = repository.NewMemoryAuditRepository()
		prefixRepo = repository.NewMemoryPrefixRepository(repository.DefaultPrefixRules()...)
		clerkRepo = repository.NewMemoryClerkRepository()
		holderIndex = repository.NewMemoryHolderIndex()
	} else {
		assetRepo = repository.NewAssetRepository(pool)
		technicianRepo = repository.NewTechnicianRepository(pool)
		transactionRepo = repository.NewTransactionRepository(pool)
		auditRepo = repository.NewAuditRepository(pool)
		prefixRepo = repository.NewPrefixRepository(pool)
		clerkRepo = repository.NewClerkRepository(pool)

		redisConn = persistence.NewRedis(cfg.Redis, logger)
		defer redisConn.Close()
		holderIndex = repository.NewRedisHolderIndex(redisConn.Client)
	}

	dispatcher := events.NewInMemoryDispatcher()

	activityService := service.NewActivityService(logger, 200)
	activityService.RegisterHandlers(dispatcher)

	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		AssetRepo:       assetRepo,
		TechnicianRepo:  technicianRepo,
		TransactionRepo: transactionRepo,
		AuditRepo:       auditRepo,
		HolderIndex:     holderIndex,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	classifier := service.NewClassifier(prefixRepo, assetRepo)
	prefixService := service.NewPrefixService(prefixRepo, auditRepo)
	authService := service.NewAuthService(*cfg, clerkRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), clerkRepo)

	metrics := observability.NewMetrics()

	session := scan.NewSession(scan.SessionDependencies{
		Classifier: classifier,
		Lifecycle:  lifecycleService,
		Cooldowns:  scan.NewCooldownGuard(),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Config:     cfg.Scan,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisConn),
		Clerks:         handlers.NewClerksHandler(authService),
		Scan:           handlers.NewScanHandler(session),
		Assets:         handlers.NewAssetsHandler(lifecycleService),
		Transactions:   handlers.NewTransactionsHandler(lifecycleService, activityService),
		Prefixes:       handlers.NewPrefixesHandler(prefixService),
		AuthMiddleware: authMiddleware,
	})

	replicator := worker.NewReplicationWorker(cfg.Replication, logger, assetRepo, technicianRepo, transactionRepo, auditRepo)
	go replicator.Run(ctx)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
