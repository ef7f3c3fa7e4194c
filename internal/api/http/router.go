package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/team-task-service/internal/api/http/handlers"
	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/config"
	"github.com/spec-kit/team-task-service/internal/observability"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	App       config.AppConfig
	RateLimit config.RateLimitConfig
	// LimiterStorage backs both limiters; nil keeps counters in memory.
	LimiterStorage fiber.Storage
	Logger         *zap.Logger
	Metrics        *observability.Metrics

	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Teams   *handlers.TeamsHandler
	Members *handlers.MembersHandler
	Tasks   *handlers.TasksHandler
	Session *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app.Get("/health", cfg.Health.Health)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	api := app.Group("/api")
	if cfg.App.IsProduction() {
		api.Use(APIRateLimiter(cfg.RateLimit, cfg.LimiterStorage))
	}

	// The auth limiter only counts failures, so it must see the rendered status.
	authLimiter := AuthRateLimiter(cfg.RateLimit, cfg.LimiterStorage)
	renderErrors := errorHandlingMiddleware(logger, cfg.Metrics, !cfg.App.IsProduction())

	authGroup := api.Group("/auth")
	authGroup.Post("/register", authLimiter, renderErrors, cfg.Auth.Register)
	authGroup.Post("/login", authLimiter, renderErrors, cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Session.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.Session.Handle, cfg.Auth.Me)
	authGroup.Get("/status", cfg.Session.Optional, cfg.Auth.Status)

	teams := api.Group("/teams", cfg.Session.Handle)
	teams.Get("/", cfg.Teams.List)
	teams.Post("/", cfg.Teams.Create)
	teams.Get("/:id", cfg.Teams.Get)
	teams.Put("/:id", cfg.Teams.Update)
	teams.Delete("/:id", cfg.Teams.Delete)
	teams.Get("/:id/members", cfg.Teams.Members)
	teams.Post("/:teamId/members", cfg.Members.Add)
	teams.Post("/:teamId/members/leave", cfg.Members.Leave)
	teams.Put("/:teamId/members/:memberId", cfg.Members.UpdateRole)
	teams.Delete("/:teamId/members/:memberId", cfg.Members.Remove)
	teams.Get("/:teamId/tasks", cfg.Tasks.ListForTeam)

	tasks := api.Group("/tasks", cfg.Session.Handle)
	tasks.Get("/", cfg.Tasks.List)
	tasks.Post("/", cfg.Tasks.Create)
	tasks.Get("/dashboard", cfg.Tasks.Dashboard)
	tasks.Get("/due-soon", cfg.Tasks.DueSoon)
	tasks.Get("/overdue", cfg.Tasks.Overdue)
	tasks.Get("/:id", cfg.Tasks.Get)
	tasks.Put("/:id", cfg.Tasks.Update)
	tasks.Delete("/:id", cfg.Tasks.Delete)

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound(fmt.Sprintf("Cannot %s %s", c.Method(), c.Path()))
	})
}
