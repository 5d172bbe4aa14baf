// Package registry maps step kinds to their executor factories.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/protocol"
)

// Registry holds executor factories keyed by step kind. Factories are
// registered at startup and the registry is read-only afterwards, so it
// needs no locking.
type Registry struct {
	logger    *slog.Logger
	factories map[models.StepKind]protocol.ExecutorFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.StepKind]protocol.ExecutorFactory),
	}
}

// Register adds an executor factory for its step kind, replacing any
// previous registration for that kind.
func (r *Registry) Register(factory protocol.ExecutorFactory) {
	r.factories[factory.Kind()] = factory
	r.logger.Debug("Registered step executor", "kind", factory.Kind(), "name", factory.Name())
}

// CreateExecutor builds the executor serving the given step kind.
func (r *Registry) CreateExecutor(ctx context.Context, kind models.StepKind) (protocol.StepExecutor, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("step kind %q not registered", kind)
	}

	return factory.Create(ctx)
}

// Kinds returns the registered step kinds.
func (r *Registry) Kinds() []models.StepKind {
	kinds := make([]models.StepKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}

	return kinds
}
