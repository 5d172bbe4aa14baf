package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence"
	"github.com/reliefops/aidflow/pkg/registry"
)

// Template manages the workflow template catalog. All writes pass the full
// validation stack: struct tags, tree shape, and per-step parameter schemas.
type Template struct {
	templates persistence.TemplateRepository
	registry  *registry.Registry
	validator *validator.Validate
}

func NewTemplate(templates persistence.TemplateRepository, registry *registry.Registry) *Template {
	return &Template{
		templates: templates,
		registry:  registry,
		validator: validator.New(),
	}
}

func (s *Template) validate(template *models.WorkflowTemplate) error {
	if template == nil {
		return NewValidationError("template.validate", "template is required", ErrInvalidRequest)
	}

	if err := s.validator.Struct(template); err != nil {
		return NewValidationError("template.validate", err.Error(), ErrInvalidTemplate)
	}

	if err := template.Validate(); err != nil {
		return NewValidationError("template.validate", err.Error(), ErrInvalidTemplate)
	}

	if err := s.registry.ValidateTemplate(template); err != nil {
		return NewValidationError("template.validate", err.Error(), ErrInvalidTemplate)
	}

	return nil
}

// Create registers a new template. The name must not be taken.
func (s *Template) Create(ctx context.Context, template *models.WorkflowTemplate) (*models.WorkflowTemplate, error) {
	if err := s.validate(template); err != nil {
		return nil, err
	}

	_, err := s.templates.GetByName(ctx, template.Name)
	if err == nil {
		return nil, fmt.Errorf("template %s: %w", template.Name, ErrTemplateExists)
	}

	if !persistence.IsTemplateNotFound(err) {
		return nil, fmt.Errorf("failed to check template %s: %w", template.Name, err)
	}

	now := time.Now().UTC()
	template.Version = 1
	template.CreatedAt = now
	template.UpdatedAt = now

	if err := s.templates.Save(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to save template %s: %w", template.Name, err)
	}

	return template, nil
}

// Update replaces an existing template's definition and bumps its version.
func (s *Template) Update(ctx context.Context, template *models.WorkflowTemplate) (*models.WorkflowTemplate, error) {
	if err := s.validate(template); err != nil {
		return nil, err
	}

	existing, err := s.templates.GetByName(ctx, template.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", template.Name, err)
	}

	template.Version = existing.Version + 1
	template.CreatedAt = existing.CreatedAt
	template.UpdatedAt = time.Now().UTC()

	if err := s.templates.Save(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to save template %s: %w", template.Name, err)
	}

	return template, nil
}

// SetActive flips a template's activation flag without touching its steps.
func (s *Template) SetActive(ctx context.Context, name string, active bool) (*models.WorkflowTemplate, error) {
	template, err := s.templates.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", name, err)
	}

	if template.Active == active {
		return template, nil
	}

	template.Active = active
	template.UpdatedAt = time.Now().UTC()

	if err := s.templates.Save(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to save template %s: %w", name, err)
	}

	return template, nil
}

func (s *Template) Get(ctx context.Context, name string) (*models.WorkflowTemplate, error) {
	template, err := s.templates.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", name, err)
	}

	return template, nil
}

func (s *Template) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	templates, err := s.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	return templates, nil
}

func (s *Template) Delete(ctx context.Context, name string) error {
	if err := s.templates.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete template %s: %w", name, err)
	}

	return nil
}
