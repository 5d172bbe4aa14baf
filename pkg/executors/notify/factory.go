package notify

import (
	"context"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/protocol"
)

// Factory creates Executor instances bound to the user and notification
// collaborators.
type Factory struct {
	users         protocol.UserService
	notifications protocol.NotificationService
}

func NewFactory(users protocol.UserService, notifications protocol.NotificationService) *Factory {
	return &Factory{users: users, notifications: notifications}
}

func (f *Factory) Kind() models.StepKind {
	return models.StepKindSendNotification
}

func (f *Factory) Name() string {
	return "Send Notification"
}

func (f *Factory) Description() string {
	return "Sends a message to every available user holding the given role."
}

func (f *Factory) Create(_ context.Context) (protocol.StepExecutor, error) {
	return NewExecutor(f.users, f.notifications), nil
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message body to deliver to each recipient",
			},
			"recipientRole": map[string]any{
				"type":        "string",
				"description": "Role whose available users receive the message",
				"examples":    []string{"HELPER", "COORDINATOR", "DRIVER"},
			},
		},
		"required": []string{"message", "recipientRole"},
	}
}
