package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence"
)

// TemplateRepository handles template storage in PostgreSQL.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

func (tr *TemplateRepository) GetByName(ctx context.Context, name string) (*models.WorkflowTemplate, error) {
	query := `
		SELECT name, description, version, active, steps, created_at, updated_at
		FROM workflow_templates
		WHERE name = $1
	`

	var (
		template  models.WorkflowTemplate
		stepsJSON []byte
	)

	err := tr.db.QueryRowContext(ctx, query, name).Scan(
		&template.Name,
		&template.Description,
		&template.Version,
		&template.Active,
		&stepsJSON,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewTemplateError("GetByName", name, persistence.ErrTemplateNotFound)
		}

		return nil, persistence.NewTemplateError("GetByName", name, err)
	}

	if err := json.Unmarshal(stepsJSON, &template.Steps); err != nil {
		return nil, persistence.NewTemplateError("GetByName", name, fmt.Errorf("failed to decode steps: %w", err))
	}

	return &template, nil
}

func (tr *TemplateRepository) Save(ctx context.Context, template *models.WorkflowTemplate) error {
	stepsJSON, err := json.Marshal(template.Steps)
	if err != nil {
		return persistence.NewTemplateError("Save", template.Name, fmt.Errorf("failed to encode steps: %w", err))
	}

	query := `
		INSERT INTO workflow_templates (name, description, version, active, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			version = EXCLUDED.version,
			active = EXCLUDED.active,
			steps = EXCLUDED.steps,
			updated_at = EXCLUDED.updated_at
	`

	_, err = tr.db.ExecContext(ctx, query,
		template.Name,
		template.Description,
		template.Version,
		template.Active,
		stepsJSON,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return persistence.NewTemplateError("Save", template.Name, err)
	}

	return nil
}

func (tr *TemplateRepository) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	query := `
		SELECT name, description, version, active, steps, created_at, updated_at
		FROM workflow_templates
		ORDER BY name
	`

	rows, err := tr.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*models.WorkflowTemplate, 0)

	for rows.Next() {
		var (
			template  models.WorkflowTemplate
			stepsJSON []byte
		)

		err := rows.Scan(
			&template.Name,
			&template.Description,
			&template.Version,
			&template.Active,
			&stepsJSON,
			&template.CreatedAt,
			&template.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}

		if err := json.Unmarshal(stepsJSON, &template.Steps); err != nil {
			return nil, persistence.NewTemplateError("List", template.Name, fmt.Errorf("failed to decode steps: %w", err))
		}

		templates = append(templates, &template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate template rows: %w", err)
	}

	return templates, nil
}

func (tr *TemplateRepository) Delete(ctx context.Context, name string) error {
	result, err := tr.db.ExecContext(ctx, "DELETE FROM workflow_templates WHERE name = $1", name)
	if err != nil {
		return persistence.NewTemplateError("Delete", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewTemplateError("Delete", name, err)
	}

	if affected == 0 {
		return persistence.NewTemplateError("Delete", name, persistence.ErrTemplateNotFound)
	}

	return nil
}
