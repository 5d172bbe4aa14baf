package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/reliefops/aidflow/pkg/executors/createtask"
	"github.com/reliefops/aidflow/pkg/executors/notify"
	"github.com/reliefops/aidflow/pkg/executors/wait"
	"github.com/reliefops/aidflow/pkg/mocks"
	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence/file"
	"github.com/reliefops/aidflow/pkg/registry"
	"github.com/reliefops/aidflow/pkg/services"
	"github.com/reliefops/aidflow/pkg/web"
	"github.com/reliefops/aidflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app   *fiber.App
	tasks *mocks.MockTaskService
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := file.NewPersistence(t.TempDir())

	tasks := &mocks.MockTaskService{}
	users := &mocks.MockUserService{}
	notifications := &mocks.MockNotificationService{}

	reg := registry.NewRegistry(logger)
	reg.Register(createtask.NewFactory(tasks))
	reg.Register(notify.NewFactory(users, notifications))
	reg.Register(wait.NewFactory())

	engine := workflow.NewEngine(
		workflow.NewResolver(store.TemplateRepository()),
		workflow.NewRecorder(store.ExecutionRepository()),
		reg,
		logger,
	)

	executionService := services.NewExecution(engine, store, nil)
	templateService := services.NewTemplate(store.TemplateRepository(), reg)
	handlers := web.NewAPIHandlers(executionService, templateService, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()

	executions := app.Group("/executions")
	executions.Post("/", handlers.Execute)
	executions.Post("/async", handlers.ExecuteAsync)
	executions.Get("/:id", handlers.GetExecution)

	templates := app.Group("/templates")
	templates.Get("/", handlers.GetTemplates)
	templates.Post("/", handlers.CreateTemplate)
	templates.Get("/:name", handlers.GetTemplate)
	templates.Put("/:name", handlers.UpdateTemplate)
	templates.Delete("/:name", handlers.DeleteTemplate)
	templates.Post("/:name/activation", handlers.SetTemplateActive)

	app.Get("/requests/:id/executions", handlers.GetRequestExecutions)
	app.Get("/health", handlers.HealthCheck)

	return &testEnv{app: app, tasks: tasks}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(raw, &out))

	return out
}

func foodTemplate() web.TemplateRequest {
	return web.TemplateRequest{
		Name:        "FOOD",
		Description: "food relief workflow",
		Active:      true,
		Steps: []*models.WorkflowStep{
			{
				Name:     "open-task",
				Kind:     models.StepKindCreateTask,
				Required: true,
				Parameters: map[string]any{
					"taskType": "food_delivery",
				},
			},
		},
	}
}

func TestCreateTemplate(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/templates/", foodTemplate())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[models.WorkflowTemplate](t, resp)
	assert.Equal(t, "FOOD", created.Name)
	assert.Equal(t, 1, created.Version)
	assert.True(t, created.Active)
}

func TestCreateTemplate_Validation(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*web.TemplateRequest)
		expectedStatus int
	}{
		{
			name:           "missing name",
			mutate:         func(r *web.TemplateRequest) { r.Name = "" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no steps",
			mutate:         func(r *web.TemplateRequest) { r.Steps = nil },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "schema violation",
			mutate: func(r *web.TemplateRequest) {
				r.Steps[0].Parameters = map[string]any{}
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestApp(t)

			req := foodTemplate()
			tt.mutate(&req)

			resp := postJSON(t, env.app, "/templates/", req)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestCreateTemplate_Duplicate(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/templates/", foodTemplate())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, env.app, "/templates/", foodTemplate())
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetTemplate_NotFound(t *testing.T) {
	env := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/templates/MISSING", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExecute_EndToEnd(t *testing.T) {
	env := setupTestApp(t)
	env.tasks.On("CreateTask", mock.Anything, mock.Anything, "food_delivery", "").
		Return("task-1", nil)

	resp := postJSON(t, env.app, "/templates/", foodTemplate())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, env.app, "/executions/", web.ExecuteRequest{
		ID:       "req-1",
		Type:     "FOOD",
		Priority: models.RequestPriorityHigh,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[web.ExecutionResponse](t, resp)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	assert.Equal(t, "req-1", result.RequestID)
	require.Len(t, result.StepResults, 1)
	assert.Equal(t, "created task task-1", result.StepResults[0].Message)

	// Fetch the record through the API.
	req := httptest.NewRequest(http.MethodGet, "/executions/"+result.ID, nil)
	getResp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	fetched := decodeBody[web.ExecutionResponse](t, getResp)
	assert.Equal(t, result.ID, fetched.ID)

	// And through the per-request listing.
	req = httptest.NewRequest(http.MethodGet, "/requests/req-1/executions", nil)
	listResp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	_ = listResp.Body.Close()
}

func TestExecute_UnknownType(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/executions/", web.ExecuteRequest{
		ID:   "req-1",
		Type: "UNKNOWN",
	})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExecute_MissingType(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/executions/", web.ExecuteRequest{ID: "req-1"})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecuteAsync_NoBus(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/executions/async", web.ExecuteRequest{
		ID:   "req-1",
		Type: "FOOD",
	})
	defer func() { _ = resp.Body.Close() }()

	// No event bus wired in this fixture.
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestSetTemplateActive(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/templates/", foodTemplate())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	req := httptest.NewRequest(http.MethodPost, "/templates/FOOD/activation?active=false", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeBody[models.WorkflowTemplate](t, resp)
	assert.False(t, updated.Active)

	// The engine now refuses to run it.
	env.tasks.On("CreateTask", mock.Anything, mock.Anything, "food_delivery", "").
		Return("task-1", nil)

	execResp := postJSON(t, env.app, "/executions/", web.ExecuteRequest{ID: "req-1", Type: "FOOD"})
	defer func() { _ = execResp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, execResp.StatusCode)
}

func TestDeleteTemplate(t *testing.T) {
	env := setupTestApp(t)

	resp := postJSON(t, env.app, "/templates/", foodTemplate())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	req := httptest.NewRequest(http.MethodDelete, "/templates/FOOD", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	req = httptest.NewRequest(http.MethodDelete, "/templates/FOOD", nil)
	resp, err = env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestHealthCheck(t *testing.T) {
	env := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
