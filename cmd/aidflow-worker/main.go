package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/reliefops/aidflow/pkg/cmd"
	"github.com/reliefops/aidflow/pkg/collaborators/local"
	"github.com/reliefops/aidflow/pkg/log"
	"github.com/reliefops/aidflow/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	command := &cli.Command{
		Name:                  "aidflow-worker",
		Usage:                 "Run asynchronously requested workflow executions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus provider (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
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

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Aidflow Worker")

			eventBus := cmd.NewEventBus(command.String("event-bus"), "aidflow-worker", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			var tracer trace.Tracer
			if command.Bool("tracing") {
				t, err := otelhelper.NewTracer(ctx, "aidflow-worker")
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

			worker := NewWorker(workerID, persistence, eventBus, logger, registry, tracer)

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Worker terminated with error", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
