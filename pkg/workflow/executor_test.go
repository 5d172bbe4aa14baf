package workflow

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/reliefops/aidflow/pkg/executors/assign"
	"github.com/reliefops/aidflow/pkg/executors/createtask"
	"github.com/reliefops/aidflow/pkg/executors/notify"
	"github.com/reliefops/aidflow/pkg/executors/wait"
	"github.com/reliefops/aidflow/pkg/mocks"
	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence"
	"github.com/reliefops/aidflow/pkg/persistence/file"
	"github.com/reliefops/aidflow/pkg/protocol"
	"github.com/reliefops/aidflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type engineFixture struct {
	engine        *Engine
	persistence   *file.Persistence
	tasks         *mocks.MockTaskService
	users         *mocks.MockUserService
	notifications *mocks.MockNotificationService
}

func newEngineFixture(t *testing.T, opts ...Option) *engineFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := file.NewPersistence(t.TempDir())

	tasks := &mocks.MockTaskService{}
	users := &mocks.MockUserService{}
	notifications := &mocks.MockNotificationService{}

	reg := registry.NewRegistry(logger)
	reg.Register(createtask.NewFactory(tasks))
	reg.Register(notify.NewFactory(users, notifications))
	reg.Register(assign.NewFactory(tasks, users))
	reg.Register(wait.NewFactory())

	resolver := NewResolver(store.TemplateRepository())
	recorder := NewRecorder(store.ExecutionRepository())
	engine := NewEngine(resolver, recorder, reg, logger, opts...)

	return &engineFixture{
		engine:        engine,
		persistence:   store,
		tasks:         tasks,
		users:         users,
		notifications: notifications,
	}
}

func (f *engineFixture) saveTemplate(t *testing.T, template *models.WorkflowTemplate) {
	t.Helper()
	require.NoError(t, template.Validate())
	require.NoError(t, f.persistence.TemplateRepository().Save(t.Context(), template))
}

func testRequest() *models.ReliefRequest {
	return &models.ReliefRequest{
		ID:          "req-100",
		Type:        "FOOD",
		Priority:    models.RequestPriorityHigh,
		Location:    "sector-7",
		RequesterID: "citizen-42",
		CreatedAt:   time.Now().UTC(),
	}
}

func activeTemplate(name string, steps ...*models.WorkflowStep) *models.WorkflowTemplate {
	return &models.WorkflowTemplate{
		Name:        name,
		Description: "test template",
		Version:     1,
		Active:      true,
		Steps:       steps,
	}
}

func TestEngine_Execute_UnknownTemplate(t *testing.T) {
	f := newEngineFixture(t)

	result, err := f.engine.Execute(t.Context(), testRequest(), "NOPE")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, persistence.IsTemplateNotFound(err))
}

func TestEngine_Execute_NilRequestIsRejected(t *testing.T) {
	f := newEngineFixture(t)

	result, err := f.engine.Execute(t.Context(), nil, "FOOD")

	require.ErrorIs(t, err, ErrNilRequest)
	assert.Nil(t, result)
}

func TestEngine_Execute_InactiveTemplate(t *testing.T) {
	f := newEngineFixture(t)

	template := activeTemplate("FOOD", &models.WorkflowStep{
		Name: "open-task",
		Kind: models.StepKindCreateTask,
		Parameters: map[string]any{
			"taskType": "food_delivery",
		},
	})
	template.Active = false
	f.saveTemplate(t, template)

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "inactive")
}

func TestEngine_Execute_CompletedWalk(t *testing.T) {
	f := newEngineFixture(t)

	f.tasks.On("CreateTask", mock.Anything, mock.Anything, "food_delivery", "").
		Return("task-1", nil)
	f.users.On("FindByRoleAvailable", mock.Anything, "COORDINATOR").
		Return([]protocol.User{{ID: "u-1"}, {ID: "u-2"}}, nil)
	f.notifications.On("Send", mock.Anything, mock.Anything, "new food request", mock.Anything).
		Return(nil)

	f.saveTemplate(t, activeTemplate("FOOD",
		&models.WorkflowStep{
			Name:     "open-task",
			Kind:     models.StepKindCreateTask,
			Required: true,
			Parameters: map[string]any{
				"taskType": "food_delivery",
			},
		},
		&models.WorkflowStep{
			Name: "notify-coordinators",
			Kind: models.StepKindSendNotification,
			Parameters: map[string]any{
				"message":       "new food request",
				"recipientRole": "COORDINATOR",
			},
		},
	))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	assert.Empty(t, result.ErrorMessage)
	require.Len(t, result.StepResults, 2)
	assert.Equal(t, "open-task", result.StepResults[0].StepName)
	assert.True(t, result.StepResults[0].Success)
	assert.Equal(t, "created task task-1", result.StepResults[0].Message)
	assert.Equal(t, "notified 2/2 COORDINATOR recipients", result.StepResults[1].Message)
	assert.False(t, result.FinishedAt.Before(result.StartedAt))

	f.tasks.AssertExpectations(t)
	f.notifications.AssertNumberOfCalls(t, "Send", 2)
}

func TestEngine_Execute_TracerOpensSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	f := newEngineFixture(t, WithTracer(provider.Tracer("engine-test")))

	f.tasks.On("CreateTask", mock.Anything, mock.Anything, "food_delivery", "").
		Return("task-1", nil)

	f.saveTemplate(t, activeTemplate("FOOD", &models.WorkflowStep{
		Name:     "open-task",
		Kind:     models.StepKindCreateTask,
		Required: true,
		Parameters: map[string]any{
			"taskType": "food_delivery",
		},
	}))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)

	names := make([]string, 0)
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}

	assert.Contains(t, names, "workflow.execute")
	assert.Contains(t, names, "workflow.step")
}

func TestEngine_Execute_RecordsResult(t *testing.T) {
	f := newEngineFixture(t)

	f.tasks.On("CreateTask", mock.Anything, mock.Anything, "shelter", "").
		Return("task-7", nil)

	f.saveTemplate(t, activeTemplate("SHELTER", &models.WorkflowStep{
		Name: "open-task",
		Kind: models.StepKindCreateTask,
		Parameters: map[string]any{
			"taskType": "shelter",
		},
	}))

	result, err := f.engine.Execute(t.Context(), testRequest(), "SHELTER")
	require.NoError(t, err)

	stored, err := f.persistence.ExecutionRepository().GetByID(t.Context(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, stored.ID)
	assert.Equal(t, "req-100", stored.RequestID)
	assert.Equal(t, models.ExecutionStatusCompleted, stored.Status)
	require.Len(t, stored.StepResults, 1)
	assert.Equal(t, "created task task-7", stored.StepResults[0].Message)
}

func TestEngine_Execute_RequiredFailureHaltsRun(t *testing.T) {
	f := newEngineFixture(t)

	f.tasks.On("CreateTask", mock.Anything, mock.Anything, "food_delivery", "").
		Return("", errors.New("task backend down"))

	f.saveTemplate(t, activeTemplate("FOOD",
		&models.WorkflowStep{
			Name:     "open-task",
			Kind:     models.StepKindCreateTask,
			Required: true,
			Parameters: map[string]any{
				"taskType": "food_delivery",
			},
		},
		&models.WorkflowStep{
			Name: "notify-coordinators",
			Kind: models.StepKindSendNotification,
			Parameters: map[string]any{
				"message":       "new food request",
				"recipientRole": "COORDINATOR",
			},
		},
	))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "failed to create task")
	require.Len(t, result.StepResults, 1)
	assert.False(t, result.StepResults[0].Success)

	// The notify step never ran.
	f.users.AssertNotCalled(t, "FindByRoleAvailable", mock.Anything, "COORDINATOR")
}

func TestEngine_Execute_NonRequiredFailureContinues(t *testing.T) {
	f := newEngineFixture(t)

	f.users.On("FindByRoleAvailable", mock.Anything, "COORDINATOR").
		Return(nil, errors.New("directory unavailable"))
	f.tasks.On("CreateTask", mock.Anything, mock.Anything, "food_delivery", "").
		Return("task-1", nil)

	f.saveTemplate(t, activeTemplate("FOOD",
		&models.WorkflowStep{
			Name: "notify-coordinators",
			Kind: models.StepKindSendNotification,
			Parameters: map[string]any{
				"message":       "new food request",
				"recipientRole": "COORDINATOR",
			},
		},
		&models.WorkflowStep{
			Name: "open-task",
			Kind: models.StepKindCreateTask,
			Parameters: map[string]any{
				"taskType": "food_delivery",
			},
		},
	))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	require.Len(t, result.StepResults, 2)
	assert.False(t, result.StepResults[0].Success)
	assert.True(t, result.StepResults[1].Success)
}

func TestEngine_Execute_GuardSkipsStepEntirely(t *testing.T) {
	f := newEngineFixture(t)

	f.tasks.On("CreateTask", mock.Anything, mock.Anything, "food_delivery", "").
		Return("task-1", nil)

	f.saveTemplate(t, activeTemplate("FOOD",
		&models.WorkflowStep{
			Name: "open-task",
			Kind: models.StepKindCreateTask,
			Parameters: map[string]any{
				"taskType": "food_delivery",
			},
		},
		&models.WorkflowStep{
			Name: "notify-helpers",
			Kind: models.StepKindSendNotification,
			Guard: &models.Condition{
				Variable: "taskType",
				Operator: models.OperatorEquals,
				Expected: "medical",
			},
			Parameters: map[string]any{
				"message":       "urgent",
				"recipientRole": "HELPER",
			},
		},
	))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)

	// A skipped step leaves no result and touches no collaborator.
	require.Len(t, result.StepResults, 1)
	assert.Equal(t, "open-task", result.StepResults[0].StepName)
	f.users.AssertNotCalled(t, "FindByRoleAvailable", mock.Anything, "HELPER")
}

func TestEngine_Execute_BranchTakesTrueArm(t *testing.T) {
	f := newEngineFixture(t)

	f.tasks.On("CreateTask", mock.Anything, mock.Anything, "food_delivery", "").
		Return("task-9", nil)
	f.users.On("FindOneAvailable", mock.Anything, "HELPER").
		Return(&protocol.User{ID: "helper-1"}, nil)
	f.tasks.On("AssignTask", mock.Anything, "task-9", "helper-1").
		Return(nil)

	f.saveTemplate(t, activeTemplate("FOOD",
		&models.WorkflowStep{
			Name:     "open-task",
			Kind:     models.StepKindCreateTask,
			Required: true,
			Parameters: map[string]any{
				"taskType": "food_delivery",
			},
		},
		&models.WorkflowStep{
			Name: "route-by-type",
			Kind: models.StepKindBranch,
			Branch: &models.BranchSpec{
				Condition: models.Condition{
					Variable: createtask.VarTaskType,
					Operator: models.OperatorEquals,
					Expected: "food_delivery",
				},
				Then: &models.WorkflowStep{
					Name: "assign-helper",
					Kind: models.StepKindAssignUser,
					Parameters: map[string]any{
						"role": "HELPER",
					},
				},
			},
		},
	))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	require.Len(t, result.StepResults, 2)

	// The branch contributes the chosen child's result, under the child's name.
	assert.Equal(t, "assign-helper", result.StepResults[1].StepName)
	assert.Equal(t, "assigned task task-9 to helper-1", result.StepResults[1].Message)
	f.tasks.AssertExpectations(t)
}

func TestEngine_Execute_BranchFalseWithoutElseSucceeds(t *testing.T) {
	f := newEngineFixture(t)

	f.saveTemplate(t, activeTemplate("FOOD", &models.WorkflowStep{
		Name:     "route-by-type",
		Kind:     models.StepKindBranch,
		Required: true,
		Branch: &models.BranchSpec{
			Condition: models.Condition{
				Variable: "taskType",
				Operator: models.OperatorEquals,
				Expected: "medical",
			},
			Then: &models.WorkflowStep{
				Name: "assign-medic",
				Kind: models.StepKindAssignUser,
				Parameters: map[string]any{
					"role": "MEDIC",
				},
			},
		},
	}))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	require.Len(t, result.StepResults, 1)
	assert.Equal(t, "route-by-type", result.StepResults[0].StepName)
	assert.True(t, result.StepResults[0].Success)
	assert.Contains(t, result.StepResults[0].Message, "skipped")
}

func TestEngine_Execute_BranchTakesElseArm(t *testing.T) {
	f := newEngineFixture(t)

	f.users.On("FindByRoleAvailable", mock.Anything, "COORDINATOR").
		Return([]protocol.User{{ID: "c-1"}}, nil)
	f.notifications.On("Send", mock.Anything, "c-1", "manual triage needed", mock.Anything).
		Return(nil)

	f.saveTemplate(t, activeTemplate("FOOD", &models.WorkflowStep{
		Name: "route-by-type",
		Kind: models.StepKindBranch,
		Branch: &models.BranchSpec{
			Condition: models.Condition{
				Variable: "taskType",
				Operator: models.OperatorEquals,
				Expected: "medical",
			},
			Then: &models.WorkflowStep{
				Name: "assign-medic",
				Kind: models.StepKindAssignUser,
				Parameters: map[string]any{
					"role": "MEDIC",
				},
			},
			Else: &models.WorkflowStep{
				Name: "escalate",
				Kind: models.StepKindSendNotification,
				Parameters: map[string]any{
					"message":       "manual triage needed",
					"recipientRole": "COORDINATOR",
				},
			},
		},
	}))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	require.Len(t, result.StepResults, 1)
	assert.Equal(t, "escalate", result.StepResults[0].StepName)
	f.notifications.AssertExpectations(t)
}

func TestEngine_Execute_ParallelAggregatesChildren(t *testing.T) {
	f := newEngineFixture(t)

	f.users.On("FindByRoleAvailable", mock.Anything, "COORDINATOR").
		Return([]protocol.User{{ID: "c-1"}}, nil)
	f.users.On("FindByRoleAvailable", mock.Anything, "HELPER").
		Return(nil, errors.New("directory unavailable"))
	f.users.On("FindByRoleAvailable", mock.Anything, "MEDIC").
		Return([]protocol.User{{ID: "m-1"}}, nil)
	f.notifications.On("Send", mock.Anything, mock.Anything, "heads up", mock.Anything).
		Return(nil)

	notifyChild := func(name, role string) *models.WorkflowStep {
		return &models.WorkflowStep{
			Name: name,
			Kind: models.StepKindSendNotification,
			Parameters: map[string]any{
				"message":       "heads up",
				"recipientRole": role,
			},
		}
	}

	f.saveTemplate(t, activeTemplate("FOOD", &models.WorkflowStep{
		Name: "fan-out",
		Kind: models.StepKindParallel,
		Children: []*models.WorkflowStep{
			notifyChild("ping-coordinators", "COORDINATOR"),
			notifyChild("ping-helpers", "HELPER"),
			notifyChild("ping-medics", "MEDIC"),
		},
	}))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)

	// One synthesized result for the whole fan-out.
	require.Len(t, result.StepResults, 1)
	parent := result.StepResults[0]
	assert.Equal(t, "fan-out", parent.StepName)
	assert.False(t, parent.Success)
	assert.Contains(t, parent.Message, "2/3 successful")
}

func TestEngine_Execute_ParallelGuardedChildNotCounted(t *testing.T) {
	f := newEngineFixture(t)

	f.users.On("FindByRoleAvailable", mock.Anything, "COORDINATOR").
		Return([]protocol.User{{ID: "c-1"}}, nil)
	f.notifications.On("Send", mock.Anything, "c-1", "heads up", mock.Anything).
		Return(nil)

	f.saveTemplate(t, activeTemplate("FOOD", &models.WorkflowStep{
		Name: "fan-out",
		Kind: models.StepKindParallel,
		Children: []*models.WorkflowStep{
			{
				Name: "ping-coordinators",
				Kind: models.StepKindSendNotification,
				Parameters: map[string]any{
					"message":       "heads up",
					"recipientRole": "COORDINATOR",
				},
			},
			{
				Name: "ping-medics",
				Kind: models.StepKindSendNotification,
				Guard: &models.Condition{
					Variable: "taskType",
					Operator: models.OperatorEquals,
					Expected: "medical",
				},
				Parameters: map[string]any{
					"message":       "heads up",
					"recipientRole": "MEDIC",
				},
			},
		},
	}))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	require.Len(t, result.StepResults, 1)
	assert.True(t, result.StepResults[0].Success)
	assert.Contains(t, result.StepResults[0].Message, "1/1 successful")
	f.users.AssertNotCalled(t, "FindByRoleAvailable", mock.Anything, "MEDIC")
}

func TestEngine_Execute_UnregisteredKindIsEngineError(t *testing.T) {
	f := newEngineFixture(t)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	emptyRegistry := registry.NewRegistry(logger)
	engine := NewEngine(
		NewResolver(f.persistence.TemplateRepository()),
		NewRecorder(f.persistence.ExecutionRepository()),
		emptyRegistry,
		logger,
	)

	f.saveTemplate(t, activeTemplate("FOOD", &models.WorkflowStep{
		Name: "pause",
		Kind: models.StepKindWait,
		Parameters: map[string]any{
			"waitSeconds": 0,
		},
	}))

	result, err := engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusError, result.Status)
	assert.Contains(t, result.ErrorMessage, "not registered")
	assert.Empty(t, result.StepResults)
}

func TestEngine_Execute_PanicBecomesErrorStatus(t *testing.T) {
	f := newEngineFixture(t)

	f.users.On("FindOneAvailable", mock.Anything, "HELPER").
		Run(func(mock.Arguments) { panic("collaborator bug") }).
		Return(nil, nil)

	f.tasks.On("CreateTask", mock.Anything, mock.Anything, "food_delivery", "").
		Return("task-1", nil)

	f.saveTemplate(t, activeTemplate("FOOD",
		&models.WorkflowStep{
			Name: "open-task",
			Kind: models.StepKindCreateTask,
			Parameters: map[string]any{
				"taskType": "food_delivery",
			},
		},
		&models.WorkflowStep{
			Name: "assign-helper",
			Kind: models.StepKindAssignUser,
			Parameters: map[string]any{
				"role": "HELPER",
			},
		},
	))

	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusError, result.Status)
	assert.Contains(t, result.ErrorMessage, "panic")

	// The steps completed before the defect are preserved.
	require.Len(t, result.StepResults, 1)
	assert.Equal(t, "open-task", result.StepResults[0].StepName)
}

func TestEngine_Execute_StepTimeoutFailsWaitStep(t *testing.T) {
	f := newEngineFixture(t, WithStepTimeout(50*time.Millisecond))

	f.saveTemplate(t, activeTemplate("FOOD", &models.WorkflowStep{
		Name:     "long-pause",
		Kind:     models.StepKindWait,
		Required: true,
		Parameters: map[string]any{
			"waitSeconds": 30,
		},
	}))

	start := time.Now()
	result, err := f.engine.Execute(t.Context(), testRequest(), "FOOD")

	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, result.Status)
	assert.Less(t, time.Since(start), 5*time.Second)
	require.Len(t, result.StepResults, 1)
	assert.False(t, result.StepResults[0].Success)
}

func TestEngine_Execute_RecorderFailurePropagates(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.Register(wait.NewFactory())

	failing := &failingExecutionRepository{}
	engine := NewEngine(
		NewResolver(store.TemplateRepository()),
		NewRecorder(failing),
		reg,
		logger,
	)

	template := activeTemplate("FOOD", &models.WorkflowStep{
		Name: "pause",
		Kind: models.StepKindWait,
		Parameters: map[string]any{
			"waitSeconds": 0,
		},
	})
	require.NoError(t, template.Validate())
	require.NoError(t, store.TemplateRepository().Save(t.Context(), template))

	result, err := engine.Execute(t.Context(), testRequest(), "FOOD")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecordExecution)

	// The finalized result still comes back alongside the error.
	require.NotNil(t, result)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
}

type failingExecutionRepository struct{}

func (r *failingExecutionRepository) Save(context.Context, *models.ExecutionResult) error {
	return errors.New("disk full")
}

func (r *failingExecutionRepository) GetByID(context.Context, string) (*models.ExecutionResult, error) {
	return nil, persistence.ErrExecutionNotFound
}

func (r *failingExecutionRepository) ListByRequest(context.Context, string) ([]*models.ExecutionResult, error) {
	return nil, nil
}
