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

// TemplateRepository stores one JSON document per template under
// <root>/templates/<name>.json.
type TemplateRepository struct {
	root string
}

func NewTemplateRepository(root string) *TemplateRepository {
	return &TemplateRepository{root: root}
}

func (tr *TemplateRepository) dir() string {
	return filepath.Join(tr.root, "templates")
}

func (tr *TemplateRepository) path(name string) string {
	return filepath.Join(tr.dir(), name+".json")
}

func (tr *TemplateRepository) GetByName(_ context.Context, name string) (*models.WorkflowTemplate, error) {
	data, err := os.ReadFile(tr.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewTemplateError("GetByName", name, persistence.ErrTemplateNotFound)
		}

		return nil, persistence.NewTemplateError("GetByName", name, err)
	}

	var template models.WorkflowTemplate
	if err := json.Unmarshal(data, &template); err != nil {
		return nil, persistence.NewTemplateError("GetByName", name, fmt.Errorf("failed to decode template file: %w", err))
	}

	return &template, nil
}

func (tr *TemplateRepository) Save(_ context.Context, template *models.WorkflowTemplate) error {
	if err := os.MkdirAll(tr.dir(), 0o755); err != nil {
		return persistence.NewTemplateError("Save", template.Name, err)
	}

	data, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return persistence.NewTemplateError("Save", template.Name, err)
	}

	if err := os.WriteFile(tr.path(template.Name), data, 0o644); err != nil {
		return persistence.NewTemplateError("Save", template.Name, err)
	}

	return nil
}

func (tr *TemplateRepository) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	root := os.DirFS(tr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list template files: %w", err)
	}

	templates := make([]*models.WorkflowTemplate, 0, len(jsonFiles))

	for _, f := range jsonFiles {
		name := f[:len(f)-len(".json")]

		template, err := tr.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}

		templates = append(templates, template)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})

	return templates, nil
}

func (tr *TemplateRepository) Delete(_ context.Context, name string) error {
	err := os.Remove(tr.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewTemplateError("Delete", name, persistence.ErrTemplateNotFound)
		}

		return persistence.NewTemplateError("Delete", name, err)
	}

	return nil
}
