// Package createtask provides the step executor that opens a relief task
// for the originating request.
package createtask

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/protocol"
)

// Context variable keys written on success, consumed by later steps.
const (
	VarTaskID   = "taskId"
	VarTaskType = "taskType"
)

// Executor delegates task creation to the task collaborator and publishes
// the new task id into the execution context.
type Executor struct {
	tasks protocol.TaskService
}

func NewExecutor(tasks protocol.TaskService) *Executor {
	return &Executor{tasks: tasks}
}

func (e *Executor) Execute(ctx context.Context, step *models.WorkflowStep, execCtx *models.ExecutionContext, logger *slog.Logger) models.StepResult {
	logger = logger.With("executor", "create_task")

	taskType, ok := step.StringParam("taskType")
	if !ok || taskType == "" {
		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  "missing required parameter taskType",
		}
	}

	assigneeID, _ := step.StringParam("assigneeId")

	taskID, err := e.tasks.CreateTask(ctx, execCtx.Request, taskType, assigneeID)
	if err != nil {
		logger.ErrorContext(ctx, "Task creation failed", "task_type", taskType, "error", err)

		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  fmt.Sprintf("failed to create task: %v", err),
		}
	}

	execCtx.SetVariable(VarTaskID, taskID)
	execCtx.SetVariable(VarTaskType, taskType)

	logger.InfoContext(ctx, "Task created", "task_id", taskID, "task_type", taskType)

	return models.StepResult{
		StepName: step.Name,
		Success:  true,
		Message:  "created task " + taskID,
	}
}
