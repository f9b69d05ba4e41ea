package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"

	httptransport "github.com/jobsync/jobsync-auth/internal/api/http"
	"github.com/jobsync/jobsync-auth/internal/auth"
	"github.com/jobsync/jobsync-auth/internal/config"
	"github.com/jobsync/jobsync-auth/internal/edge"
	"github.com/jobsync/jobsync-auth/internal/observability"
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
	logger = logger.Named("edge")

	for _, w := range cfg.Warnings() {
		logger.Warn("config", zap.String("warning", w))
	}

	codec, err := auth.NewEdgeCodec(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to init edge codec", zap.Error(err))
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("jobsync_edge")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name + "-edge",
		ErrorHandler: httptransport.ErrorHandler,
	})
	app.Use(observability.RequestLogger(logger, metrics))
	if metrics != nil {
		app.Get("/_edge/metrics", metrics.Handler())
	}

	gatekeeper := edge.NewGatekeeper(codec)
	app.Use(gatekeeper.Handler(auth.NewCookieIssuer(cfg.Auth), logger, metrics))
	app.Use(proxy.Balancer(proxy.Config{
		Servers: []string{cfg.Edge.UpstreamURL},
		Timeout: cfg.App.RequestTimeout(),
	}))

	go func() {
		if err := app.Listen(cfg.Edge.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
