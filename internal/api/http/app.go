package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/team-task-service/internal/config"
	"github.com/spec-kit/team-task-service/internal/observability"
)

// NewApp builds the fiber application with the global middleware chain attached.
func NewApp(cfg config.AppConfig, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		BodyLimit:             cfg.BodyLimitBytes,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger, metrics, !cfg.IsProduction()),
	})
	RegisterMiddlewares(app, MiddlewareConfig{App: cfg, Logger: logger, Metrics: metrics})
	return app
}
