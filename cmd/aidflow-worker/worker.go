// Package main provides the aidflow background worker that runs
// asynchronously requested executions.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/reliefops/aidflow/pkg/eventbus"
	"github.com/reliefops/aidflow/pkg/events"
	"github.com/reliefops/aidflow/pkg/persistence"
	"github.com/reliefops/aidflow/pkg/registry"
	"github.com/reliefops/aidflow/pkg/workflow"
	"go.opentelemetry.io/otel/trace"
)

type Worker struct {
	id       string
	logger   *slog.Logger
	eventBus eventbus.EventBus
	engine   *workflow.Engine
}

// NewWorker builds a worker over the given stores and bus. A nil tracer
// disables span creation.
func NewWorker(
	id string,
	store persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	registry *registry.Registry,
	tracer trace.Tracer,
) *Worker {
	engineOpts := []workflow.Option{workflow.WithPublisher(eventBus)}
	if tracer != nil {
		engineOpts = append(engineOpts, workflow.WithTracer(tracer))
	}

	engine := workflow.NewEngine(
		workflow.NewResolver(store.TemplateRepository()),
		workflow.NewRecorder(store.ExecutionRepository()),
		registry,
		logger,
		engineOpts...,
	)

	return &Worker{
		id:       id,
		logger:   logger.With("worker_id", id),
		eventBus: eventBus,
		engine:   engine,
	}
}

// Start subscribes to execution requests and blocks until SIGINT/SIGTERM.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker")

	w.eventBus.Handle(events.ExecutionRequestedEvent, w.handleExecutionRequested)

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker")

	return nil
}

// handleExecutionRequested runs one requested execution. Recording failures
// are returned so the message is redelivered; a failed or errored run is a
// recorded outcome and acks normally.
func (w *Worker) handleExecutionRequested(ctx context.Context, event any) error {
	requested, ok := event.(*events.ExecutionRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for ExecutionRequested")

		return nil
	}

	logger := w.logger.With(
		"request_id", requested.RequestID,
		"workflow_type", requested.WorkflowType,
		"event_id", requested.ID,
	)
	logger.InfoContext(ctx, "Processing execution request")

	if requested.Request == nil {
		logger.ErrorContext(ctx, "Execution request carries no relief request, dropping")

		return nil
	}

	result, err := w.engine.Execute(ctx, requested.Request, requested.WorkflowType)
	if err != nil {
		logger.ErrorContext(ctx, "Execution request failed", "error", err)

		return err
	}

	logger.InfoContext(ctx, "Execution finished",
		"execution_id", result.ID,
		"status", result.Status,
	)

	return nil
}
