package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hana-ti/home-planner/internal/authevents"
	"github.com/hana-ti/home-planner/internal/config"
	"github.com/hana-ti/home-planner/internal/logging"
	"github.com/hana-ti/home-planner/internal/middleware"
	"github.com/hana-ti/home-planner/internal/routes"
	"github.com/hana-ti/home-planner/internal/scheduler"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app       *fiber.App
	cfg       config.Config
	broker    *authevents.Broker
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// Stores groups the optional backing stores; nil members fall back to memory in development.
type Stores struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
	Mongo *mongo.Database
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, stores Stores, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	broker := authevents.NewBroker(logger)
	sched, err := routes.Setup(app, routes.Deps{
		Cfg:    cfg,
		DB:     stores.DB,
		Cache:  stores.Cache,
		Mongo:  stores.Mongo,
		Broker: broker,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, broker: broker, scheduler: sched, logger: logger}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// RunScheduler blocks running the daily auto-debit jobs until ctx is done.
// It returns immediately when the scheduler is disabled.
func (s *Server) RunScheduler(ctx context.Context) error {
	if !s.cfg.SchedulerEnabled {
		s.logger.Info("auto-debit scheduler disabled")
		return nil
	}
	return s.scheduler.Start(logging.WithLogger(ctx, s.logger.With(slog.String("component", "scheduler"))))
}

// Shutdown closes the auth event channel, which ends open streams, then
// gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.broker.Close()
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders every error as {"error", "request_id"}.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		} else {
			logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}
		return c.Status(code).JSON(fiber.Map{
			"error":      msg,
			"request_id": middleware.GetRequestID(c),
		})
	}
}
