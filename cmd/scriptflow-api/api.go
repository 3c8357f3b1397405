// Package main provides the ScriptFlow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/scriptflow/scriptflow/pkg/checkpoint"
	"github.com/scriptflow/scriptflow/pkg/engine"
	"github.com/scriptflow/scriptflow/pkg/eventbus"
	"github.com/scriptflow/scriptflow/pkg/supervisor"
	"github.com/scriptflow/scriptflow/pkg/web"
)

// API serves the task REST surface. It holds no execution engine: resume
// and cancel requests are forwarded to workers over the event bus.
type API struct {
	logger   *slog.Logger
	store    checkpoint.Store
	eventBus eventbus.EventBus
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store checkpoint.Store,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:   logger,
		store:    store,
		eventBus: eventBus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	service := engine.NewService(a.store, a.eventBus, nil, supervisor.New(supervisor.DefaultMaxRetries), a.logger)

	handlers := web.NewAPIHandlers(service, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("ScriptFlow API")
	})

	t := app.Group("/tasks")
	t.Post("/", handlers.SubmitTask)
	t.Get("/:id", handlers.GetTask)
	t.Post("/:id/resume", handlers.ResumeTask)
	t.Post("/:id/cancel", handlers.CancelTask)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
