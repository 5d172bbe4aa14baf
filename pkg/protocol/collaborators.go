package protocol

import (
	"context"

	"github.com/reliefops/aidflow/pkg/models"
)

// User is a resolved user reference from the user collaborator.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// TaskService is the external task collaborator. Implementations must be
// safe for concurrent use by parallel step execution.
type TaskService interface {
	// CreateTask creates a task for the request and returns its id.
	// assigneeID may be empty for unassigned tasks.
	CreateTask(ctx context.Context, request *models.ReliefRequest, taskType, assigneeID string) (string, error)

	// AssignTask assigns the task to the user and moves it to status
	// "assigned".
	AssignTask(ctx context.Context, taskID, userID string) error
}

// UserService is the external user-lookup collaborator. What "available"
// means (on shift, under capacity) is collaborator-defined.
type UserService interface {
	// FindByRoleAvailable lists all available users holding the role.
	FindByRoleAvailable(ctx context.Context, role string) ([]User, error)

	// FindOneAvailable picks one available user for the role, or returns
	// (nil, nil) when nobody qualifies.
	FindOneAvailable(ctx context.Context, role string) (*User, error)
}

// NotificationService is the external notification collaborator. A returned
// error counts as a failed dispatch for that recipient only.
type NotificationService interface {
	Send(ctx context.Context, userID, message string, request *models.ReliefRequest) error
}
