// Package devserver assembles the reference backend: the auth endpoints the
// console consumes plus in-memory CRUD collections.
package devserver

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-console/internal/api/http"
	"github.com/spec-kit/support-console/internal/api/http/handlers"
	"github.com/spec-kit/support-console/internal/auth"
	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/events"
	"github.com/spec-kit/support-console/internal/observability"
	"github.com/spec-kit/support-console/internal/repository"
	"github.com/spec-kit/support-console/internal/service"
)

const requestTimeout = 10 * time.Second

// Server is the assembled backend.
type Server struct {
	App     *fiber.App
	Auth    *service.AuthService
	Records repository.RecordRepository
	Events  events.Dispatcher
	Metrics *observability.Metrics
}

// New builds the backend from cfg. Seed users are hashed with cfg.Auth.BcryptCost
// and also listed in the users collection.
func New(cfg config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	accounts, err := service.SeedAccounts(cfg.Auth.SeedUsers, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	users := repository.NewUserRepository(accounts)

	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(eventLogger(logger, metrics))

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:    users,
		SessionRepo: repository.NewSessionRepository(nil),
		Events:      dispatcher,
		Logger:      logger,
	})

	names := make([]string, 0, len(httptransport.CollectionWriters))
	for name := range httptransport.CollectionWriters {
		names = append(names, name)
	}
	records := repository.NewRecordRepository(names...)
	if err := seedUserRecords(context.Background(), records, accounts); err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.Server.Name,
		DisableStartupMessage: true,
		ErrorHandler:          httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, requestTimeout)

	recordHandlers := make(map[string]*handlers.RecordsHandler, len(names))
	for _, name := range names {
		recordHandlers[name] = handlers.NewRecordsHandler(name, records)
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.Server.Name, cfg.Server.Version, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Records:        recordHandlers,
		AuthMiddleware: auth.NewAuthMiddleware(authService),
	})

	return &Server{App: app, Auth: authService, Records: records, Events: dispatcher, Metrics: metrics}, nil
}

func seedUserRecords(ctx context.Context, records repository.RecordRepository, accounts []repository.Account) error {
	for _, acc := range accounts {
		u := acc.User
		rec := repository.Record{
			"id":          u.ID,
			"email":       u.Email,
			"name":        u.Name,
			"role":        string(u.Role),
			"permissions": u.Permissions,
		}
		if _, err := records.Create(ctx, "users", rec); err != nil {
			return fmt.Errorf("seed user record %s: %w", u.Email, err)
		}
	}
	return nil
}

func eventLogger(logger *zap.Logger, metrics *observability.Metrics) events.EventHandler {
	return func(_ context.Context, e events.Event) error {
		metrics.RecordEvent("session|" + string(e.Type))
		logger.Info("session event",
			zap.String("type", string(e.Type)),
			zap.String("user_id", e.UserID),
			zap.String("session_id", e.SessionID),
		)
		return nil
	}
}
