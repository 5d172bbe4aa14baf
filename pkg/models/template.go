package models

import (
	"fmt"
	"time"
)

// WorkflowTemplate is a named, versioned definition of a workflow's step
// tree. Identity is the name (unique, case-sensitive). Templates are
// authored out of band and are read-only to the engine; a template loaded
// for a run never changes during that run.
type WorkflowTemplate struct {
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	Version     int             `json:"version"`
	Active      bool            `json:"active"`
	Steps       []*WorkflowStep `json:"steps"       validate:"required,min=1"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Validate checks structural integrity of the template: every step must be
// well-formed and step names must be unique, since the name keys the step's
// result in the execution record.
func (t *WorkflowTemplate) Validate() error {
	if len(t.Steps) == 0 {
		return fmt.Errorf("template %s: %w", t.Name, ErrNoSteps)
	}

	seen := make(map[string]struct{})

	var walk func(step *WorkflowStep) error
	walk = func(step *WorkflowStep) error {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("template %s: %w", t.Name, err)
		}

		if _, dup := seen[step.Name]; dup {
			return fmt.Errorf("template %s: duplicate step name %q: %w", t.Name, step.Name, ErrDuplicateStepName)
		}

		seen[step.Name] = struct{}{}

		for _, child := range step.childSteps() {
			if err := walk(child); err != nil {
				return err
			}
		}

		return nil
	}

	for _, step := range t.Steps {
		if err := walk(step); err != nil {
			return err
		}
	}

	return nil
}
