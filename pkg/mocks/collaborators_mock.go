// Package mocks provides testify mock implementations of the engine's
// collaborator and storage contracts.
package mocks

import (
	"context"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockTaskService is a mock implementation of protocol.TaskService.
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, request *models.ReliefRequest, taskType, assigneeID string) (string, error) {
	args := m.Called(ctx, request, taskType, assigneeID)

	return args.String(0), args.Error(1)
}

func (m *MockTaskService) AssignTask(ctx context.Context, taskID, userID string) error {
	args := m.Called(ctx, taskID, userID)

	return args.Error(0)
}

// MockUserService is a mock implementation of protocol.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindByRoleAvailable(ctx context.Context, role string) ([]protocol.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]protocol.User), args.Error(1)
}

func (m *MockUserService) FindOneAvailable(ctx context.Context, role string) (*protocol.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*protocol.User), args.Error(1)
}

// MockNotificationService is a mock implementation of protocol.NotificationService.
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Send(ctx context.Context, userID, message string, request *models.ReliefRequest) error {
	args := m.Called(ctx, userID, message, request)

	return args.Error(0)
}
