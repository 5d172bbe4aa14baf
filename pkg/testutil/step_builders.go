// Package testutil provides test data builders for workflow templates.
package testutil

import (
	"github.com/reliefops/aidflow/pkg/models"
)

// CreateTestStep creates a leaf step with default values that can be
// overridden.
func CreateTestStep(overrides ...func(*models.WorkflowStep)) *models.WorkflowStep {
	step := &models.WorkflowStep{
		Name: "test-step",
		Kind: models.StepKindCreateTask,
		Parameters: map[string]any{
			"taskType": "test_task",
		},
	}

	for _, override := range overrides {
		override(step)
	}

	return step
}

// WithName sets the step name.
func WithName(name string) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.Name = name
	}
}

// WithKind sets the step kind.
func WithKind(kind models.StepKind) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.Kind = kind
	}
}

// WithParameters sets the step's parameter map.
func WithParameters(parameters map[string]any) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.Parameters = parameters
	}
}

// WithRequired marks the step as required.
func WithRequired() func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.Required = true
	}
}

// WithGuard sets the step's guard condition.
func WithGuard(guard *models.Condition) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.Guard = guard
	}
}

// WithBranch turns the step into a branch over the given condition.
func WithBranch(condition models.Condition, then, els *models.WorkflowStep) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.Kind = models.StepKindBranch
		s.Parameters = nil
		s.Branch = &models.BranchSpec{
			Condition: condition,
			Then:      then,
			Else:      els,
		}
	}
}

// WithChildren turns the step into a parallel fan-out over the children.
func WithChildren(children ...*models.WorkflowStep) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.Kind = models.StepKindParallel
		s.Parameters = nil
		s.Children = children
	}
}

// CreateTestTemplate creates an active template with the given steps.
func CreateTestTemplate(name string, steps ...*models.WorkflowStep) *models.WorkflowTemplate {
	if len(steps) == 0 {
		steps = []*models.WorkflowStep{CreateTestStep()}
	}

	return &models.WorkflowTemplate{
		Name:        name,
		Description: "test template",
		Version:     1,
		Active:      true,
		Steps:       steps,
	}
}
