package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence"
)

// ExecutionRepository stores one JSON document per execution record under
// <root>/executions/<id>.json. Save writes through a synced temp file and
// rename, since the audit record must be durable before Save returns.
type ExecutionRepository struct {
	root string
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) dir() string {
	return filepath.Join(er.root, "executions")
}

func (er *ExecutionRepository) path(id string) string {
	return filepath.Join(er.dir(), id+".json")
}

func (er *ExecutionRepository) Save(_ context.Context, result *models.ExecutionResult) error {
	if err := os.MkdirAll(er.dir(), 0o755); err != nil {
		return persistence.NewExecutionError("Save", result.ID, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return persistence.NewExecutionError("Save", result.ID, err)
	}

	tmp, err := os.CreateTemp(er.dir(), result.ID+".tmp-")
	if err != nil {
		return persistence.NewExecutionError("Save", result.ID, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return persistence.NewExecutionError("Save", result.ID, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return persistence.NewExecutionError("Save", result.ID, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return persistence.NewExecutionError("Save", result.ID, err)
	}

	if err := os.Rename(tmp.Name(), er.path(result.ID)); err != nil {
		os.Remove(tmp.Name())

		return persistence.NewExecutionError("Save", result.ID, err)
	}

	return nil
}

func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.ExecutionResult, error) {
	data, err := os.ReadFile(er.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	var result models.ExecutionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, fmt.Errorf("failed to decode execution file: %w", err))
	}

	return &result, nil
}

func (er *ExecutionRepository) ListByRequest(ctx context.Context, requestID string) ([]*models.ExecutionResult, error) {
	root := os.DirFS(er.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	results := make([]*models.ExecutionResult, 0)

	for _, f := range jsonFiles {
		id := f[:len(f)-len(".json")]

		result, err := er.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if result.RequestID == requestID {
			results = append(results, result)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.Before(results[j].StartedAt)
	})

	return results, nil
}
