package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/reliefops/aidflow/pkg/cmd"
	"github.com/reliefops/aidflow/pkg/collaborators/local"
	"github.com/reliefops/aidflow/pkg/log"
	"github.com/reliefops/aidflow/pkg/otelhelper"
	"github.com/reliefops/aidflow/pkg/persistence"
	"github.com/reliefops/aidflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPort      = 9091
	templateCacheTTL = 5 * time.Minute
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "aidflow-api",
		Usage:                 "Run relief workflows and manage templates",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Optional Redis URL for template caching",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces via OTLP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Aidflow API")

			persist := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persist.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "aidflow-api", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var templates persistence.TemplateRepository
			if redisURL := command.String("redis-url"); redisURL != "" {
				opts, err := redis.ParseURL(redisURL)
				if err != nil {
					return fmt.Errorf("invalid redis-url: %w", err)
				}

				client := redis.NewClient(opts)
				defer func() {
					if err := client.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close redis client", "error", err)
					}
				}()

				templates = workflow.NewCachedTemplateRepository(
					persist.TemplateRepository(), client, templateCacheTTL, logger)
			}

			var tracer trace.Tracer
			if command.Bool("tracing") {
				t, err := otelhelper.NewTracer(ctx, "aidflow-api")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				tracer = t
			}

			registry := cmd.NewRegistry(logger, cmd.Collaborators{
				Tasks:         local.NewTaskService(),
				Users:         local.NewUserService(nil),
				Notifications: local.NewNotificationService(logger),
			})

			api := NewAPI(logger, persist, templates, registry, eventBus, tracer)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
