package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/devserver"
	"github.com/spec-kit/support-console/internal/observability"
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

	srv, err := devserver.New(*cfg, logger, observability.NewMetrics())
	if err != nil {
		logger.Fatal("failed to build devserver", zap.Error(err))
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr()), zap.Int("seed_users", len(cfg.Auth.SeedUsers)))
		if err := srv.App.Listen(cfg.Server.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = srv.App.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
