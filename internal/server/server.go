package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"auth-backend/internal/apperr"
	"auth-backend/internal/logger"
	"auth-backend/internal/metrics"
	"auth-backend/internal/session"
)

const requestIDKey = "requestid"

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Sessions *session.Service
	Metrics  *metrics.Metrics // optional
	Logger   *zap.Logger      // defaults to logger.L()
	// Health is called by GET /health. Optional.
	Health func(ctx context.Context) error
}

// New builds the Fiber app with middleware, routes and error translation.
func New(d Deps) *fiber.App {
	base := d.Logger
	if base == nil {
		base = logger.L()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			logger.From(c.UserContext()).Error("panic recovered", zap.Any("panic", e), zap.Stack("stack"))
		},
	}))
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(requestLogger(base))
	app.Use(cors.New())
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
		app.Get("/metrics", d.Metrics.Handler())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if d.Health != nil {
			if err := d.Health(c.UserContext()); err != nil {
				return apperr.Storage(err)
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	session.RegisterRoutes(app, session.NewHandler(d.Sessions))
	return app
}

// requestLogger attaches a request-scoped logger to the user context and
// writes one line per request.
func requestLogger(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid, _ := c.Locals(requestIDKey).(string)
		l := base.With(logger.RequestID(rid))
		c.SetUserContext(logger.ToContext(c.UserContext(), l))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = apperr.As(err).Status
		}
		l.Info("request",
			logger.Method(utils.CopyString(c.Method())),
			logger.Path(utils.CopyString(c.Path())),
			logger.Status(status),
			logger.Latency(time.Since(start)),
			logger.ClientIP(c.IP()),
		)
		return err
	}
}

// errorHandler is the single place errors become responses. Internal
// faults are logged with their cause and answered with a generic message.
func errorHandler(c *fiber.Ctx, err error) error {
	appErr := apperr.As(err)
	log := logger.From(c.UserContext())

	switch {
	case appErr.Internal():
		log.Error("request failed", logger.Kind(string(appErr.Kind)), zap.Error(err))
	case appErr.Kind == apperr.KindTokenVerification:
		log.Warn("token rejected", zap.Error(appErr.Cause))
	}

	return c.Status(appErr.Status).JSON(apperr.ErrorResponse{Error: appErr})
}
