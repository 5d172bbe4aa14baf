// Package workflow implements the execution engine: template resolution,
// the step-tree walk, and durable recording of execution results.
package workflow

import (
	"context"
	"fmt"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence"
)

// Resolver loads executable templates by workflow type. A template that
// exists but is inactive resolves exactly like a missing one: disabled
// templates must never be partially executed.
type Resolver struct {
	templates persistence.TemplateRepository
}

func NewResolver(templates persistence.TemplateRepository) *Resolver {
	return &Resolver{templates: templates}
}

func (r *Resolver) Resolve(ctx context.Context, workflowType string) (*models.WorkflowTemplate, error) {
	template, err := r.templates.GetByName(ctx, workflowType)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template %s: %w", workflowType, err)
	}

	if !template.Active {
		return nil, fmt.Errorf("template %s is inactive: %w", workflowType, persistence.ErrTemplateNotFound)
	}

	return template, nil
}
