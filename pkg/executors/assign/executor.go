// Package assign provides the step executor that picks an available user
// for a role and assigns the request's open task to them.
package assign

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reliefops/aidflow/pkg/executors/createtask"
	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/protocol"
)

// VarAssigneeID is written into the context once a task is assigned.
const VarAssigneeID = "assigneeId"

// Executor requires a taskId already present in the context (written by an
// earlier create_task step).
//
// Finding no available candidate is reported as success with an explicit
// "no assignee found" message rather than as a failure. Product review has
// been asked whether a required assignment step should instead fail the
// run; flipping the Success flag below is the whole change.
type Executor struct {
	tasks protocol.TaskService
	users protocol.UserService
}

func NewExecutor(tasks protocol.TaskService, users protocol.UserService) *Executor {
	return &Executor{tasks: tasks, users: users}
}

func (e *Executor) Execute(ctx context.Context, step *models.WorkflowStep, execCtx *models.ExecutionContext, logger *slog.Logger) models.StepResult {
	logger = logger.With("executor", "assign_user")

	role, ok := step.StringParam("role")
	if !ok || role == "" {
		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  "missing required parameter role",
		}
	}

	rawTaskID, ok := execCtx.Variable(createtask.VarTaskID)
	if !ok {
		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  "no taskId in execution context; a create_task step must run first",
		}
	}

	taskID, ok := rawTaskID.(string)
	if !ok {
		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  fmt.Sprintf("taskId in execution context is %T, expected string", rawTaskID),
		}
	}

	candidate, err := e.users.FindOneAvailable(ctx, role)
	if err != nil {
		logger.ErrorContext(ctx, "Candidate lookup failed", "role", role, "error", err)

		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  fmt.Sprintf("failed to look up available %s: %v", role, err),
		}
	}

	if candidate == nil {
		logger.WarnContext(ctx, "No available assignee", "role", role, "task_id", taskID)

		return models.StepResult{
			StepName: step.Name,
			Success:  true,
			Message:  "no assignee found for role " + role,
		}
	}

	if err := e.tasks.AssignTask(ctx, taskID, candidate.ID); err != nil {
		logger.ErrorContext(ctx, "Task assignment failed", "task_id", taskID, "user_id", candidate.ID, "error", err)

		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  fmt.Sprintf("failed to assign task %s to %s: %v", taskID, candidate.ID, err),
		}
	}

	execCtx.SetVariable(VarAssigneeID, candidate.ID)

	logger.InfoContext(ctx, "Task assigned", "task_id", taskID, "user_id", candidate.ID, "role", role)

	return models.StepResult{
		StepName: step.Name,
		Success:  true,
		Message:  fmt.Sprintf("assigned task %s to %s", taskID, candidate.ID),
	}
}
