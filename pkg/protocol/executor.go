// Package protocol defines the interfaces and contracts for pluggable step executors.
package protocol

import (
	"context"
	"log/slog"

	"github.com/reliefops/aidflow/pkg/models"
)

// StepExecutor runs one leaf step against the execution context.
//
// Execute never propagates failures as errors or panics: internal problems
// are converted into a StepResult with Success=false carrying the failure
// message. The engine decides whether that failure aborts the run.
type StepExecutor interface {
	Execute(ctx context.Context, step *models.WorkflowStep, execCtx *models.ExecutionContext, logger *slog.Logger) models.StepResult
}

// ExecutorFactory creates executor instances and provides metadata about
// the step kind it serves.
type ExecutorFactory interface {
	// Create builds an executor bound to its collaborators.
	Create(ctx context.Context) (StepExecutor, error)

	// Kind returns the step kind this factory serves.
	Kind() models.StepKind

	// Name returns the human-readable name for this executor.
	Name() string

	// Description returns a description of what this executor does.
	Description() string

	// Schema returns the JSON schema for the step's parameter map.
	Schema() map[string]any
}
