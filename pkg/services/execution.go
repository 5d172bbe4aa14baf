package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/reliefops/aidflow/pkg/eventbus"
	"github.com/reliefops/aidflow/pkg/events"
	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence"
	"github.com/reliefops/aidflow/pkg/workflow"
)

// Execution runs workflows for relief requests and serves their records.
// Execute runs synchronously through the engine; Request hands the work to a
// worker over the event bus.
type Execution struct {
	engine      *workflow.Engine
	executions  persistence.ExecutionRepository
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	validator   *validator.Validate
}

func NewExecution(engine *workflow.Engine, store persistence.Persistence, publisher eventbus.EventPublisher) *Execution {
	return &Execution{
		engine:      engine,
		executions:  store.ExecutionRepository(),
		persistence: store,
		publisher:   publisher,
		validator:   validator.New(),
	}
}

func (s *Execution) prepare(request *models.ReliefRequest) error {
	if request == nil {
		return NewValidationError("execution.prepare", "request is required", ErrInvalidRequest)
	}

	if request.ID == "" {
		request.ID = uuid.New().String()
	}

	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}

	if err := s.validator.Struct(request); err != nil {
		return NewValidationError("execution.prepare", err.Error(), ErrInvalidRequest)
	}

	return nil
}

// Execute runs the workflow registered for the request's type and returns
// the finalized record. The request type doubles as the workflow type.
func (s *Execution) Execute(ctx context.Context, request *models.ReliefRequest) (*models.ExecutionResult, error) {
	if err := s.prepare(request); err != nil {
		return nil, err
	}

	return s.engine.Execute(ctx, request, request.Type)
}

// Request enqueues an asynchronous execution and returns the accepted
// request id; a worker picks the event up and runs the engine.
func (s *Execution) Request(ctx context.Context, request *models.ReliefRequest) (string, error) {
	if err := s.prepare(request); err != nil {
		return "", err
	}

	if s.publisher == nil {
		return "", fmt.Errorf("request %s: %w", request.ID, ErrAsyncUnavailable)
	}

	event := events.ExecutionRequested{
		BaseEvent: events.BaseEvent{
			ID:           uuid.New().String(),
			Type:         events.ExecutionRequestedEvent,
			Timestamp:    time.Now().UTC(),
			WorkflowType: request.Type,
			RequestID:    request.ID,
		},
		Request: request,
	}

	if err := s.publisher.Publish(ctx, request.ID, event); err != nil {
		return "", fmt.Errorf("failed to enqueue execution for request %s: %w", request.ID, err)
	}

	return request.ID, nil
}

// Get returns one execution record by id.
func (s *Execution) Get(ctx context.Context, executionID string) (*models.ExecutionResult, error) {
	result, err := s.executions.GetByID(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	return result, nil
}

// ListByRequest returns every execution recorded for a relief request.
func (s *Execution) ListByRequest(ctx context.Context, requestID string) ([]*models.ExecutionResult, error) {
	results, err := s.executions.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions for request %s: %w", requestID, err)
	}

	return results, nil
}

// HealthCheck reports whether the persistence layer is reachable.
func (s *Execution) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "persistence layer is unhealthy: " + err.Error(), false
	}

	return "persistence layer is healthy", true
}
