// Package local provides in-memory collaborator implementations for
// development and single-node deployments. Production deployments replace
// these with clients for the real task, user, and notification systems.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/protocol"
)

// Task holds the open task state in an execution.
type Task struct {
	ID         string
	Request    *models.ReliefRequest
	Type       string
	AssigneeID string
	Status     string
}

// TaskService keeps tasks in memory, keyed by id. Safe for concurrent use.
type TaskService struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

func NewTaskService() *TaskService {
	return &TaskService{tasks: make(map[string]*Task)}
}

func (s *TaskService) CreateTask(_ context.Context, request *models.ReliefRequest, taskType, assigneeID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &Task{
		ID:         uuid.New().String(),
		Request:    request,
		Type:       taskType,
		AssigneeID: assigneeID,
		Status:     "open",
	}
	s.tasks[task.ID] = task

	return task.ID, nil
}

func (s *TaskService) AssignTask(_ context.Context, taskID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s not found", taskID)
	}

	task.AssigneeID = userID
	task.Status = "assigned"

	return nil
}

// Task returns a snapshot of a stored task, mainly for tests.
func (s *TaskService) Task(taskID string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return Task{}, false
	}

	return *task, true
}

// UserService serves a fixed roster grouped by role.
type UserService struct {
	mu    sync.RWMutex
	roles map[string][]protocol.User
}

func NewUserService(roster map[string][]protocol.User) *UserService {
	if roster == nil {
		roster = make(map[string][]protocol.User)
	}

	return &UserService{roles: roster}
}

func (s *UserService) AddUser(role string, user protocol.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roles[role] = append(s.roles[role], user)
}

func (s *UserService) FindByRoleAvailable(_ context.Context, role string) ([]protocol.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := s.roles[role]
	out := make([]protocol.User, len(users))
	copy(out, users)

	return out, nil
}

func (s *UserService) FindOneAvailable(_ context.Context, role string) (*protocol.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := s.roles[role]
	if len(users) == 0 {
		return nil, nil
	}

	user := users[0]

	return &user, nil
}

// NotificationService logs every notification instead of delivering it.
type NotificationService struct {
	logger *slog.Logger
}

func NewNotificationService(logger *slog.Logger) *NotificationService {
	return &NotificationService{logger: logger}
}

func (s *NotificationService) Send(ctx context.Context, userID, message string, request *models.ReliefRequest) error {
	requestID := ""
	if request != nil {
		requestID = request.ID
	}

	s.logger.InfoContext(ctx, "Notification", "user_id", userID, "message", message, "request_id", requestID)

	return nil
}
