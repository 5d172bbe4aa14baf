// Package main provides the aidflow API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/reliefops/aidflow/pkg/eventbus"
	"github.com/reliefops/aidflow/pkg/persistence"
	"github.com/reliefops/aidflow/pkg/registry"
	"github.com/reliefops/aidflow/pkg/services"
	"github.com/reliefops/aidflow/pkg/web"
	"github.com/reliefops/aidflow/pkg/workflow"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	templates   persistence.TemplateRepository
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
	validate    *validator.Validate
}

// NewAPI assembles the API server. templates is the repository the engine
// and template service read from; pass a cached wrapper to put a cache in
// front of the persistence backend, or nil to read it directly. A nil
// tracer disables span creation.
func NewAPI(
	logger *slog.Logger,
	persist persistence.Persistence,
	templates persistence.TemplateRepository,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) *API {
	if templates == nil {
		templates = persist.TemplateRepository()
	}

	return &API{
		logger:      logger,
		persistence: persist,
		templates:   templates,
		registry:    registry,
		eventBus:    eventBus,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	engineOpts := []workflow.Option{workflow.WithPublisher(a.eventBus)}
	if a.tracer != nil {
		engineOpts = append(engineOpts, workflow.WithTracer(a.tracer))
	}

	engine := workflow.NewEngine(
		workflow.NewResolver(a.templates),
		workflow.NewRecorder(a.persistence.ExecutionRepository()),
		a.registry,
		a.logger,
		engineOpts...,
	)

	executionService := services.NewExecution(engine, a.persistence, a.eventBus)
	templateService := services.NewTemplate(a.templates, a.registry)

	handlers := web.NewAPIHandlers(executionService, templateService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Aidflow API")
	})

	executions := app.Group("/executions")
	executions.Post("/", handlers.Execute)
	executions.Post("/async", handlers.ExecuteAsync)
	executions.Get("/:id", handlers.GetExecution)

	templates := app.Group("/templates")
	templates.Get("/", handlers.GetTemplates)
	templates.Post("/", handlers.CreateTemplate)
	templates.Get("/:name", handlers.GetTemplate)
	templates.Put("/:name", handlers.UpdateTemplate)
	templates.Delete("/:name", handlers.DeleteTemplate)
	templates.Post("/:name/activation", handlers.SetTemplateActive)

	app.Get("/requests/:id/executions", handlers.GetRequestExecutions)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
