package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/team-task-service/internal/api/http"
	"github.com/spec-kit/team-task-service/internal/api/http/handlers"
	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/observability"
	"github.com/spec-kit/team-task-service/internal/persistence"
	"github.com/spec-kit/team-task-service/internal/service"
	"github.com/spec-kit/team-task-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	s, err := openStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	notifications := service.NewNotificationService(s.dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications, logger)

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	var limiterStorage fiber.Storage
	if cfg.RateLimit.UseRedis {
		limiterStorage = persistence.NewLimiterStorage(s.redis.Client)
	}

	dependencies := map[string]handlers.Pinger{"postgres": s.postgres}
	if s.redis != nil {
		dependencies["redis"] = s.redis
	}

	signer := auth.NewSessionSigner(cfg.Session.Secret)
	app := httptransport.NewApp(cfg.App, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		App:            cfg.App,
		RateLimit:      cfg.RateLimit,
		LimiterStorage: limiterStorage,
		Logger:         logger,
		Metrics:        metrics,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:           handlers.NewAuthHandler(s.auth, signer, auth.NewCookieSettings(cfg.App, cfg.Session)),
		Teams:          handlers.NewTeamsHandler(s.teams),
		Members:        handlers.NewMembersHandler(s.members),
		Tasks:          handlers.NewTasksHandler(s.tasks),
		Session:        auth.NewSessionMiddleware(signer, s.sessions, s.users, cfg.Session.CookieName),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("env", cfg.App.Env),
			zap.String("session_store", cfg.Session.Store))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(ctx.Err()))
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return nil
}
