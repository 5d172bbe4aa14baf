// Package wait provides the step executor that suspends an execution for a
// configured duration.
package wait

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reliefops/aidflow/pkg/models"
)

// Executor suspends cooperatively on a timer, never a bare sleep, so the
// wait is cut short by context cancellation and counts against the per-step
// deadline the engine sets.
type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

func (e *Executor) Execute(ctx context.Context, step *models.WorkflowStep, _ *models.ExecutionContext, logger *slog.Logger) models.StepResult {
	logger = logger.With("executor", "wait")

	seconds, ok := waitSeconds(step.Parameters)
	if !ok {
		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  "missing or non-numeric parameter waitSeconds",
		}
	}

	if seconds < 0 {
		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  fmt.Sprintf("waitSeconds must not be negative, got %g", seconds),
		}
	}

	duration := time.Duration(seconds * float64(time.Second))

	logger.InfoContext(ctx, "Waiting", "duration", duration)

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return models.StepResult{
			StepName: step.Name,
			Success:  true,
			Message:  "waited " + duration.String(),
		}
	case <-ctx.Done():
		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  fmt.Sprintf("wait interrupted: %v", ctx.Err()),
		}
	}
}

// waitSeconds accepts the numeric types a JSON-decoded parameter map can
// hold for the duration.
func waitSeconds(parameters map[string]any) (float64, bool) {
	raw, ok := parameters["waitSeconds"]
	if !ok {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
