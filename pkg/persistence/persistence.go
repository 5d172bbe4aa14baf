// Package persistence provides the storage abstraction for workflow
// templates and execution records.
package persistence

import (
	"context"

	"github.com/reliefops/aidflow/pkg/models"
)

// TemplateRepository stores workflow templates keyed by name.
type TemplateRepository interface {
	// GetByName returns the template or ErrTemplateNotFound. Inactive
	// templates are returned as stored; resolution-time filtering is the
	// resolver's job.
	GetByName(ctx context.Context, name string) (*models.WorkflowTemplate, error)
	Save(ctx context.Context, template *models.WorkflowTemplate) error
	List(ctx context.Context) ([]*models.WorkflowTemplate, error)
	Delete(ctx context.Context, name string) error
}

// ExecutionRepository stores finalized (or crash-partial) execution
// records. Save must be durable before it returns: a successful run must be
// immediately retrievable by id.
type ExecutionRepository interface {
	Save(ctx context.Context, result *models.ExecutionResult) error
	GetByID(ctx context.Context, id string) (*models.ExecutionResult, error)
	ListByRequest(ctx context.Context, requestID string) ([]*models.ExecutionResult, error)
}

// Persistence is the root storage handle a backend implements.
type Persistence interface {
	TemplateRepository() TemplateRepository
	ExecutionRepository() ExecutionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
