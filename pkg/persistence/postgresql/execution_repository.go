package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence"
)

// ExecutionRepository handles execution-record storage in PostgreSQL.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

func (er *ExecutionRepository) Save(ctx context.Context, result *models.ExecutionResult) error {
	stepResultsJSON, err := json.Marshal(result.StepResults)
	if err != nil {
		return persistence.NewExecutionError("Save", result.ID, fmt.Errorf("failed to encode step results: %w", err))
	}

	var finishedAt sql.NullTime
	if !result.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: result.FinishedAt, Valid: true}
	}

	query := `
		INSERT INTO workflow_executions (id, request_id, workflow_type, status, error_message, step_results, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			step_results = EXCLUDED.step_results,
			finished_at = EXCLUDED.finished_at
	`

	_, err = er.db.ExecContext(ctx, query,
		result.ID,
		result.RequestID,
		result.WorkflowType,
		result.Status,
		result.ErrorMessage,
		stepResultsJSON,
		result.StartedAt,
		finishedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Save", result.ID, err)
	}

	return nil
}

func (er *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.ExecutionResult, error) {
	query := `
		SELECT id, request_id, workflow_type, status, error_message, step_results, started_at, finished_at
		FROM workflow_executions
		WHERE id = $1
	`

	result, err := er.scanOne(er.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return result, nil
}

func (er *ExecutionRepository) ListByRequest(ctx context.Context, requestID string) ([]*models.ExecutionResult, error) {
	query := `
		SELECT id, request_id, workflow_type, status, error_message, step_results, started_at, finished_at
		FROM workflow_executions
		WHERE request_id = $1
		ORDER BY started_at
	`

	rows, err := er.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions for request %s: %w", requestID, err)
	}
	defer rows.Close()

	results := make([]*models.ExecutionResult, 0)

	for rows.Next() {
		result, err := er.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution row: %w", err)
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate execution rows: %w", err)
	}

	return results, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (er *ExecutionRepository) scanOne(row scanner) (*models.ExecutionResult, error) {
	var (
		result          models.ExecutionResult
		stepResultsJSON []byte
		finishedAt      sql.NullTime
	)

	err := row.Scan(
		&result.ID,
		&result.RequestID,
		&result.WorkflowType,
		&result.Status,
		&result.ErrorMessage,
		&stepResultsJSON,
		&result.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stepResultsJSON, &result.StepResults); err != nil {
		return nil, fmt.Errorf("failed to decode step results: %w", err)
	}

	if finishedAt.Valid {
		result.FinishedAt = finishedAt.Time.UTC()
	} else {
		result.FinishedAt = time.Time{}
	}

	result.StartedAt = result.StartedAt.UTC()

	return &result, nil
}
