package createtask

import (
	"context"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/protocol"
)

// Factory creates Executor instances bound to the task collaborator.
type Factory struct {
	tasks protocol.TaskService
}

func NewFactory(tasks protocol.TaskService) *Factory {
	return &Factory{tasks: tasks}
}

func (f *Factory) Kind() models.StepKind {
	return models.StepKindCreateTask
}

func (f *Factory) Name() string {
	return "Create Task"
}

func (f *Factory) Description() string {
	return "Creates a relief task for the originating request and stores its id in the execution context."
}

func (f *Factory) Create(_ context.Context) (protocol.StepExecutor, error) {
	return NewExecutor(f.tasks), nil
}

// Schema returns the JSON schema for the step's parameter map.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"taskType": map[string]any{
				"type":        "string",
				"description": "Type of task to create",
				"examples":    []string{"FOOD", "SHELTER", "MEDICAL", "TRANSPORT"},
			},
			"assigneeId": map[string]any{
				"type":        "string",
				"description": "Optional user id to pre-assign the task to",
			},
		},
		"required": []string{"taskType"},
	}
}
