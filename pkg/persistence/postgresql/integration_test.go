package postgresql_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence"
	"github.com/reliefops/aidflow/pkg/persistence/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	postgresContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("aidflow_test"),
		tcpostgres.WithUsername("aidflow"),
		tcpostgres.WithPassword("aidflow"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, postgresContainer)
	require.NoError(t, err)

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(ctx))
		cancel()
	})

	return p, ctx
}

func TestTemplateRepository_Integration_RoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)
	repo := p.TemplateRepository()

	now := time.Now().UTC().Truncate(time.Second)
	template := &models.WorkflowTemplate{
		Name:        "food-response",
		Description: "standard food relief flow",
		Version:     2,
		Active:      true,
		Steps: []*models.WorkflowStep{
			{
				Name:       "create",
				Kind:       models.StepKindCreateTask,
				Required:   true,
				Parameters: map[string]any{"taskType": "FOOD"},
			},
			{
				Name: "fanout",
				Kind: models.StepKindParallel,
				Children: []*models.WorkflowStep{
					{Name: "notify-helpers", Kind: models.StepKindSendNotification, Parameters: map[string]any{"message": "new request", "recipientRole": "HELPER"}},
					{Name: "notify-coordinators", Kind: models.StepKindSendNotification, Parameters: map[string]any{"message": "new request", "recipientRole": "COORDINATOR"}},
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	require.NoError(t, repo.Save(ctx, template))

	loaded, err := repo.GetByName(ctx, "food-response")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Version)
	assert.True(t, loaded.Active)
	require.Len(t, loaded.Steps, 2)
	require.Len(t, loaded.Steps[1].Children, 2)
	assert.Equal(t, "notify-helpers", loaded.Steps[1].Children[0].Name)

	// Upsert on name.
	template.Active = false
	template.Version = 3
	require.NoError(t, repo.Save(ctx, template))

	loaded, err = repo.GetByName(ctx, "food-response")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Version)
	assert.False(t, loaded.Active)

	templates, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 1)

	require.NoError(t, repo.Delete(ctx, "food-response"))

	_, err = repo.GetByName(ctx, "food-response")
	require.ErrorIs(t, err, persistence.ErrTemplateNotFound)
}

func TestExecutionRepository_Integration_RoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)
	repo := p.ExecutionRepository()

	started := time.Now().UTC().Truncate(time.Second)
	result := &models.ExecutionResult{
		ID:           uuid.New().String(),
		RequestID:    "req-42",
		WorkflowType: "food-response",
		Status:       models.ExecutionStatusCompleted,
		StepResults: []models.StepResult{
			{StepName: "create", Success: true, Message: "created task T1"},
			{StepName: "assign", Success: true, Message: "no assignee found for role HELPER"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}

	require.NoError(t, repo.Save(ctx, result))

	loaded, err := repo.GetByID(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Status, loaded.Status)
	assert.Equal(t, result.StepResults, loaded.StepResults)
	assert.Equal(t, result.StartedAt, loaded.StartedAt)
	assert.Equal(t, result.FinishedAt, loaded.FinishedAt)

	byRequest, err := repo.ListByRequest(ctx, "req-42")
	require.NoError(t, err)
	require.Len(t, byRequest, 1)

	_, err = repo.GetByID(ctx, uuid.New().String())
	require.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}
