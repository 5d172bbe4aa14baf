package assign

import (
	"context"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/protocol"
)

// Factory creates Executor instances bound to the task and user
// collaborators.
type Factory struct {
	tasks protocol.TaskService
	users protocol.UserService
}

func NewFactory(tasks protocol.TaskService, users protocol.UserService) *Factory {
	return &Factory{tasks: tasks, users: users}
}

func (f *Factory) Kind() models.StepKind {
	return models.StepKindAssignUser
}

func (f *Factory) Name() string {
	return "Assign User"
}

func (f *Factory) Description() string {
	return "Finds one available user for a role and assigns the context's open task to them."
}

func (f *Factory) Create(_ context.Context) (protocol.StepExecutor, error) {
	return NewExecutor(f.tasks, f.users), nil
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"role": map[string]any{
				"type":        "string",
				"description": "Role to pick an available assignee from",
				"examples":    []string{"HELPER", "DRIVER", "MEDIC"},
			},
		},
		"required": []string{"role"},
	}
}
