package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/team-task-service/internal/api/dto"
	"github.com/spec-kit/team-task-service/internal/config"
	"github.com/spec-kit/team-task-service/internal/observability"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

const (
	msgTooManyRequests     = "Too many requests from this IP, please try again later"
	msgTooManyAuthAttempts = "Too many authentication attempts, please try again later"
)

// MiddlewareConfig bundles what the global middleware chain needs.
type MiddlewareConfig struct {
	App     config.AppConfig
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// RegisterMiddlewares attaches global middlewares: panic recovery, request ids,
// security headers, CORS, request logging, error handling and the request timeout.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			cfg.Logger.Error("panic outside error middleware", zap.Any("panic", e), zap.ByteString("stack", debug.Stack()))
		},
	}))
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.FrontendURL,
		AllowCredentials: true,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
	}))
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics, !cfg.App.IsProduction()))
	if timeout := cfg.App.RequestTimeout(); timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware renders errors and panics from the rest of the chain
// as the failure envelope. With exposeInternal set, unexpected errors carry their
// underlying message instead of the generic one.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, exposeInternal bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = writeError(c, err, logger, metrics, exposeInternal)
			}
		}()
		return c.Next()
	}
}

// ErrorHandler is the fiber.Config error handler for errors raised before the
// error middleware runs.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics, exposeInternal bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, err, logger, metrics, exposeInternal)
	}
}

func writeError(c *fiber.Ctx, err error, logger *zap.Logger, metrics *observability.Metrics, exposeInternal bool) error {
	domainErr := apperrors.ToDomainError(err)
	metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)

	message := domainErr.Message
	if !domainErr.Operational() {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(domainErr))
		if exposeInternal && domainErr.Err != nil {
			message = domainErr.Err.Error()
		}
	}

	return c.Status(domainErr.HTTPStatus).JSON(dto.ErrorResponse{
		Success: false,
		Status:  domainErr.Status(),
		Message: message,
		Details: domainErr.Details,
	})
}

// LimiterConfig sizes a rate limiter.
type LimiterConfig struct {
	Max     int
	Window  time.Duration
	Message string
	// SkipSuccessful counts only responses with status >= 400.
	SkipSuccessful bool
	Storage        fiber.Storage
}

// NewRateLimiter returns a per-IP limiter. Requests over budget fail with 429.
// With SkipSuccessful the limiter must wrap an error middleware so it observes
// the final status of failed requests.
func NewRateLimiter(cfg LimiterConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperrors.NewTooManyRequests(cfg.Message)
		},
		SkipSuccessfulRequests: cfg.SkipSuccessful,
		Storage:                cfg.Storage,
	})
}

// APIRateLimiter is the general budget applied under /api.
func APIRateLimiter(cfg config.RateLimitConfig, storage fiber.Storage) fiber.Handler {
	return NewRateLimiter(LimiterConfig{
		Max:     cfg.APIMax,
		Window:  cfg.APIWindow(),
		Message: msgTooManyRequests,
		Storage: storage,
	})
}

// AuthRateLimiter is the budget for register and login; only failures count.
func AuthRateLimiter(cfg config.RateLimitConfig, storage fiber.Storage) fiber.Handler {
	return NewRateLimiter(LimiterConfig{
		Max:            cfg.AuthMax,
		Window:         cfg.AuthWindow(),
		Message:        msgTooManyAuthAttempts,
		SkipSuccessful: true,
		Storage:        storage,
	})
}
