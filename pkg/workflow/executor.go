package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reliefops/aidflow/pkg/eventbus"
	"github.com/reliefops/aidflow/pkg/events"
	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/otelhelper"
	"github.com/reliefops/aidflow/pkg/registry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultStepTimeout = 30 * time.Second
	defaultMaxParallel = 8
)

// ErrNilRequest marks an Execute call without a relief request. Callers fed
// from external input (the bus, the API) must be able to reject a missing
// request without starting an execution.
var ErrNilRequest = errors.New("nil relief request")

// Engine walks a resolved template's step tree against a fresh execution
// context and produces exactly one finalized ExecutionResult per call.
//
// One Execute call is one single-threaded walk; parallel steps are the only
// point of concurrency, and their children join before the walk continues.
// The engine is safe for concurrent Execute calls.
type Engine struct {
	resolver    *Resolver
	recorder    *Recorder
	registry    *registry.Registry
	logger      *slog.Logger
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	stepTimeout time.Duration
	maxParallel int
}

// Option configures an Engine.
type Option func(*Engine)

// WithStepTimeout bounds every leaf executor invocation. A stuck
// collaborator call fails its step instead of hanging the execution.
func WithStepTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.stepTimeout = timeout
	}
}

// WithPublisher emits execution lifecycle events to the bus.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

// WithTracer opens a span per execution and per step.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithMaxParallel caps how many parallel children run at once.
func WithMaxParallel(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxParallel = n
		}
	}
}

func NewEngine(resolver *Resolver, recorder *Recorder, registry *registry.Registry, logger *slog.Logger, opts ...Option) *Engine {
	engine := &Engine{
		resolver:    resolver,
		recorder:    recorder,
		registry:    registry,
		logger:      logger,
		stepTimeout: defaultStepTimeout,
		maxParallel: defaultMaxParallel,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// Execute resolves the template for workflowType, runs it against the
// request, records the finalized result, and returns it synchronously.
//
// Resolution failures return (nil, err) before any execution state exists.
// Once a run starts the result always comes back finalized; a recording
// failure returns the result together with an error wrapping
// ErrRecordExecution so the lost audit trail is never silent.
func (e *Engine) Execute(ctx context.Context, request *models.ReliefRequest, workflowType string) (*models.ExecutionResult, error) {
	if request == nil {
		return nil, fmt.Errorf("execute workflow %s: %w", workflowType, ErrNilRequest)
	}

	logger := e.logger.With(
		"workflow_type", workflowType,
		"request_id", request.ID,
	)

	template, err := e.resolver.Resolve(ctx, workflowType)
	if err != nil {
		logger.WarnContext(ctx, "Template resolution failed", "error", err)

		return nil, err
	}

	result := &models.ExecutionResult{
		ID:           uuid.New().String(),
		RequestID:    request.ID,
		WorkflowType: workflowType,
		Status:       models.ExecutionStatusRunning,
		StepResults:  make([]models.StepResult, 0, len(template.Steps)),
		StartedAt:    time.Now().UTC(),
	}

	logger = logger.With("execution_id", result.ID)
	logger.InfoContext(ctx, "Starting workflow execution", "steps", len(template.Steps))

	var span trace.Span

	if e.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowTypeKey, workflowType),
			attribute.String(otelhelper.RequestIDKey, request.ID),
			attribute.String(otelhelper.ExecutionIDKey, result.ID),
		)
		defer span.End()
	}

	e.publish(ctx, result.ID, events.ExecutionStarted{
		BaseEvent:   e.baseEvent(events.ExecutionStartedEvent, result),
		ExecutionID: result.ID,
	})

	execCtx := models.NewExecutionContext(request)
	e.walk(ctx, logger, template, execCtx, result)

	result.FinishedAt = time.Now().UTC()

	e.publishTerminal(ctx, result)
	logger.InfoContext(ctx, "Workflow execution finished",
		"status", result.Status,
		"steps_executed", len(result.StepResults),
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)

	if err := e.recorder.Record(ctx, result); err != nil {
		logger.ErrorContext(ctx, "Failed to record execution", "error", err)

		if span != nil {
			otelhelper.SetError(span, err, attribute.String(otelhelper.ExecutionIDKey, result.ID))
		}

		return result, err
	}

	return result, nil
}

// walk runs the top-level step list and finalizes the result's status. Any
// panic escaping a step is an engine defect, not a business outcome, and
// finalizes the run as error rather than failed.
func (e *Engine) walk(ctx context.Context, logger *slog.Logger, template *models.WorkflowTemplate, execCtx *models.ExecutionContext, result *models.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			result.Status = models.ExecutionStatusError
			result.ErrorMessage = fmt.Sprintf("engine panic: %v", r)
			logger.ErrorContext(ctx, "Workflow execution panicked", "panic", r)
		}
	}()

	for _, step := range template.Steps {
		if skipped := e.guardSkips(ctx, logger, step, execCtx); skipped {
			continue
		}

		stepResult, err := e.executeStep(ctx, logger, step, execCtx, result)
		if err != nil {
			result.Status = models.ExecutionStatusError
			result.ErrorMessage = err.Error()
			logger.ErrorContext(ctx, "Engine malfunction during step", "step", step.Name, "error", err)

			return
		}

		result.StepResults = append(result.StepResults, stepResult)

		if !stepResult.Success && step.Required {
			result.Status = models.ExecutionStatusFailed
			result.ErrorMessage = stepResult.Message
			logger.WarnContext(ctx, "Required step failed, aborting run", "step", step.Name, "message", stepResult.Message)

			return
		}
	}

	result.Status = models.ExecutionStatusCompleted
}

// guardSkips evaluates a step's guard condition. A false guard skips the
// step entirely: no result, no side effects.
func (e *Engine) guardSkips(ctx context.Context, logger *slog.Logger, step *models.WorkflowStep, execCtx *models.ExecutionContext) bool {
	if step.Guard == nil {
		return false
	}

	if step.Guard.Evaluate(execCtx.Variables()) {
		return false
	}

	logger.InfoContext(ctx, "Guard condition false, skipping step", "step", step.Name)

	return true
}

// executeStep dispatches one step. The returned error is reserved for
// engine malfunction (the error status tier); every business outcome,
// including executor failure, lands in the StepResult.
func (e *Engine) executeStep(ctx context.Context, logger *slog.Logger, step *models.WorkflowStep, execCtx *models.ExecutionContext, result *models.ExecutionResult) (models.StepResult, error) {
	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.step",
			attribute.String(otelhelper.StepNameKey, step.Name),
			attribute.String(otelhelper.StepKindKey, string(step.Kind)),
			attribute.String(otelhelper.ExecutionIDKey, result.ID),
		)
		defer span.End()
	}

	var (
		stepResult models.StepResult
		err        error
	)

	switch step.Kind {
	case models.StepKindBranch:
		stepResult, err = e.executeBranch(ctx, logger, step, execCtx, result)
	case models.StepKindParallel:
		stepResult, err = e.executeParallel(ctx, logger, step, execCtx, result)
	default:
		stepResult, err = e.executeLeaf(ctx, logger, step, execCtx)
	}

	if err != nil {
		return models.StepResult{}, err
	}

	e.publish(ctx, result.ID, events.StepFinished{
		BaseEvent:   e.baseEvent(events.StepFinishedEvent, result),
		ExecutionID: result.ID,
		Result:      stepResult,
	})

	return stepResult, nil
}

// executeLeaf runs a registered executor under the per-step deadline.
func (e *Engine) executeLeaf(ctx context.Context, logger *slog.Logger, step *models.WorkflowStep, execCtx *models.ExecutionContext) (models.StepResult, error) {
	executor, err := e.registry.CreateExecutor(ctx, step.Kind)
	if err != nil {
		return models.StepResult{}, fmt.Errorf("no executor for step %s: %w", step.Name, err)
	}

	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	stepLogger := logger.With("step", step.Name, "step_kind", step.Kind)
	stepLogger.InfoContext(ctx, "Executing step")

	return executor.Execute(stepCtx, step, execCtx, stepLogger), nil
}

// executeBranch routes to the true- or false-branch and returns that
// branch's own result. A false condition without a false-branch is an
// unconditional success: nothing to do is not a failure.
func (e *Engine) executeBranch(ctx context.Context, logger *slog.Logger, step *models.WorkflowStep, execCtx *models.ExecutionContext, result *models.ExecutionResult) (models.StepResult, error) {
	if step.Branch.Condition.Evaluate(execCtx.Variables()) {
		return e.executeStep(ctx, logger, step.Branch.Then, execCtx, result)
	}

	if step.Branch.Else != nil {
		return e.executeStep(ctx, logger, step.Branch.Else, execCtx, result)
	}

	return models.StepResult{
		StepName: step.Name,
		Success:  true,
		Message:  "skipped: condition false and no false-branch",
	}, nil
}

// executeParallel fans the children out onto a bounded worker pool and
// joins them all: no fail-fast cancellation of siblings, a late child's
// result is always collected. The synthesized parent result is the only
// one entering the execution record; per-child results go out as events.
func (e *Engine) executeParallel(ctx context.Context, logger *slog.Logger, step *models.WorkflowStep, execCtx *models.ExecutionContext, result *models.ExecutionResult) (models.StepResult, error) {
	type childOutcome struct {
		result  models.StepResult
		skipped bool
		err     error
	}

	outcomes := make([]childOutcome, len(step.Children))
	semaphore := make(chan struct{}, e.maxParallel)

	var wg sync.WaitGroup

	for i, child := range step.Children {
		wg.Add(1)

		go func() {
			defer wg.Done()

			defer func() {
				if r := recover(); r != nil {
					outcomes[i].err = fmt.Errorf("panic in parallel child %s: %v", child.Name, r)
				}
			}()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if e.guardSkips(ctx, logger, child, execCtx) {
				outcomes[i].skipped = true

				return
			}

			outcomes[i].result, outcomes[i].err = e.executeStep(ctx, logger, child, execCtx, result)
		}()
	}

	wg.Wait()

	succeeded := 0
	total := 0

	var firstFailure string

	for _, outcome := range outcomes {
		if outcome.err != nil {
			return models.StepResult{}, outcome.err
		}

		if outcome.skipped {
			continue
		}

		total++

		if outcome.result.Success {
			succeeded++
		} else if firstFailure == "" {
			firstFailure = outcome.result.Message
		}
	}

	message := fmt.Sprintf("%d/%d successful", succeeded, total)
	if firstFailure != "" {
		message += "; first failure: " + firstFailure
	}

	return models.StepResult{
		StepName: step.Name,
		Success:  succeeded == total,
		Message:  message,
	}, nil
}

func (e *Engine) baseEvent(eventType events.EventType, result *models.ExecutionResult) events.BaseEvent {
	return events.BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		WorkflowType: result.WorkflowType,
		RequestID:    result.RequestID,
	}
}

func (e *Engine) publishTerminal(ctx context.Context, result *models.ExecutionResult) {
	duration := result.FinishedAt.Sub(result.StartedAt)

	if result.Status == models.ExecutionStatusCompleted {
		e.publish(ctx, result.ID, events.ExecutionCompleted{
			BaseEvent:   e.baseEvent(events.ExecutionCompletedEvent, result),
			ExecutionID: result.ID,
			Steps:       len(result.StepResults),
			Duration:    duration,
		})

		return
	}

	e.publish(ctx, result.ID, events.ExecutionFailed{
		BaseEvent:   e.baseEvent(events.ExecutionFailedEvent, result),
		ExecutionID: result.ID,
		Status:      result.Status,
		Error:       result.ErrorMessage,
		Duration:    duration,
	})
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
