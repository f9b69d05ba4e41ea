package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/jobsync/jobsync-auth/internal/api/http"
	"github.com/jobsync/jobsync-auth/internal/api/http/handlers"
	"github.com/jobsync/jobsync-auth/internal/auth"
	"github.com/jobsync/jobsync-auth/internal/config"
	"github.com/jobsync/jobsync-auth/internal/events"
	"github.com/jobsync/jobsync-auth/internal/observability"
	"github.com/jobsync/jobsync-auth/internal/persistence"
	"github.com/jobsync/jobsync-auth/internal/repository"
	"github.com/jobsync/jobsync-auth/internal/service"
	"github.com/jobsync/jobsync-auth/internal/worker"
)

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

	for _, w := range cfg.Warnings() {
		logger.Warn("config", zap.String("warning", w))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := map[string]handlers.Pinger{}
	userRepo, closeStore := openUserStore(ctx, cfg, logger, deps)
	defer closeStore()

	var revocations auth.RevocationStore
	if cfg.Auth.RevocationEnabled {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		deps["redis"] = redis
		revocations = auth.NewRedisRevocationStore(redis.Client, cfg.Auth.TokenTTL())
		logger.Info("token revocation enabled")
	}

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	var metrics *observability.Metrics
	var metricsHandler fiber.Handler
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("jobsync_auth")
		metricsHandler = metrics.Handler()
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:    userRepo,
		Tokens:      tokens,
		Revocations: revocations,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:            handlers.NewAuthHandler(authService, auth.NewCookieIssuer(cfg.Auth)),
		Admin:           handlers.NewAdminHandler(authService),
		Gate:            auth.NewGate(tokens, revocations, logger, metrics),
		Metrics:         metricsHandler,
		LoginRatePerMin: cfg.Auth.LoginRatePerMin,
		LoginBurst:      cfg.Auth.LoginBurst,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func openUserStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, deps map[string]handlers.Pinger) (repository.UserRepository, func()) {
	switch cfg.Store.Driver {
	case "postgres":
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		deps["postgres"] = pg
		return repository.NewUserRepository(pg.Pool), pg.Close
	default:
		mg, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("failed to connect mongo", zap.Error(err))
		}
		repo, err := repository.NewMongoUserRepository(ctx, mg.Users())
		if err != nil {
			logger.Fatal("failed to prepare users collection", zap.Error(err))
		}
		deps["mongo"] = mg
		return repo, func() { mg.Close(context.Background()) }
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
