// Package notify provides the step executor that dispatches a notification
// to every available user holding a role.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/protocol"
)

// Executor resolves recipients by role and sends one notification per
// recipient. Individual dispatch failures are not distinguished; the result
// message reports the aggregate sent count.
type Executor struct {
	users         protocol.UserService
	notifications protocol.NotificationService
}

func NewExecutor(users protocol.UserService, notifications protocol.NotificationService) *Executor {
	return &Executor{users: users, notifications: notifications}
}

func (e *Executor) Execute(ctx context.Context, step *models.WorkflowStep, execCtx *models.ExecutionContext, logger *slog.Logger) models.StepResult {
	logger = logger.With("executor", "send_notification")

	message, ok := step.StringParam("message")
	if !ok || message == "" {
		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  "missing required parameter message",
		}
	}

	role, ok := step.StringParam("recipientRole")
	if !ok || role == "" {
		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  "missing required parameter recipientRole",
		}
	}

	recipients, err := e.users.FindByRoleAvailable(ctx, role)
	if err != nil {
		logger.ErrorContext(ctx, "Recipient lookup failed", "role", role, "error", err)

		return models.StepResult{
			StepName: step.Name,
			Success:  false,
			Message:  fmt.Sprintf("failed to resolve recipients for role %s: %v", role, err),
		}
	}

	sent := 0

	for _, recipient := range recipients {
		if err := e.notifications.Send(ctx, recipient.ID, message, execCtx.Request); err != nil {
			logger.WarnContext(ctx, "Notification dispatch failed", "user_id", recipient.ID, "error", err)

			continue
		}

		sent++
	}

	logger.InfoContext(ctx, "Notifications dispatched", "role", role, "sent", sent, "recipients", len(recipients))

	return models.StepResult{
		StepName: step.Name,
		Success:  true,
		Message:  fmt.Sprintf("notified %d/%d %s recipients", sent, len(recipients), role),
	}
}
