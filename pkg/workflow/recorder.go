package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence"
)

// ErrRecordExecution marks a failure to persist the audit record. It is an
// I/O failure tier of its own: the run itself may have finished fine, but
// losing the audit trail must never be silent.
var ErrRecordExecution = errors.New("failed to record execution")

// Recorder persists finalized execution results and retrieves them by id.
// It owns the translation between the in-memory result and whatever the
// storage backend requires; the engine never sees that representation.
type Recorder struct {
	executions persistence.ExecutionRepository
}

func NewRecorder(executions persistence.ExecutionRepository) *Recorder {
	return &Recorder{executions: executions}
}

// Record durably saves the result. When Record returns nil, an immediate
// Fetch for the same id succeeds.
func (r *Recorder) Record(ctx context.Context, result *models.ExecutionResult) error {
	if err := r.executions.Save(ctx, result); err != nil {
		return fmt.Errorf("%w: %w", ErrRecordExecution, err)
	}

	return nil
}

// Fetch retrieves a recorded execution, or persistence.ErrExecutionNotFound.
func (r *Recorder) Fetch(ctx context.Context, executionID string) (*models.ExecutionResult, error) {
	return r.executions.GetByID(ctx, executionID)
}
