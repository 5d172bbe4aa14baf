package models

import (
	"errors"
	"fmt"
)

// StepKind identifies which executor (or engine construct) handles a step.
type StepKind string

const (
	StepKindCreateTask       StepKind = "create_task"
	StepKindSendNotification StepKind = "send_notification"
	StepKindAssignUser       StepKind = "assign_user"
	StepKindWait             StepKind = "wait"
	StepKindParallel         StepKind = "parallel"
	StepKindBranch           StepKind = "branch"
)

// Structural validation errors.
var (
	ErrNoSteps           = errors.New("template has no steps")
	ErrDuplicateStepName = errors.New("duplicate step name")
	ErrUnknownStepKind   = errors.New("unknown step kind")
	ErrInvalidStepShape  = errors.New("step children do not match kind")
)

// WorkflowStep is a node in a template's step tree. The kind-specific
// payload is a tagged variant: leaf kinds carry Parameters, branch carries
// Branch, parallel carries Children. Exactly one of those shapes may be
// populated, and it must match Kind; Validate rejects everything else.
//
// Guard, when present, is evaluated against the execution context before
// the step runs; a false guard skips the step without recording a result.
// Required marks a step whose business failure aborts the whole run.
type WorkflowStep struct {
	Name       string         `json:"name"                 validate:"required"`
	Kind       StepKind       `json:"kind"                 validate:"required"`
	Required   bool           `json:"required"`
	Guard      *Condition     `json:"guard,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Branch     *BranchSpec    `json:"branch,omitempty"`
	Children   []*WorkflowStep `json:"children,omitempty"`
}

// BranchSpec is the payload of a branch step: the condition routes
// execution to Then when true, Else (optional) when false.
type BranchSpec struct {
	Condition Condition     `json:"condition"`
	Then      *WorkflowStep `json:"then"      validate:"required"`
	Else      *WorkflowStep `json:"else,omitempty"`
}

// IsLeaf reports whether the step is handled by a registered executor
// rather than interpreted structurally by the engine.
func (s *WorkflowStep) IsLeaf() bool {
	switch s.Kind {
	case StepKindCreateTask, StepKindSendNotification, StepKindAssignUser, StepKindWait:
		return true
	default:
		return false
	}
}

// Validate checks that the step's payload matches its kind.
func (s *WorkflowStep) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("step with kind %q has no name: %w", s.Kind, ErrInvalidStepShape)
	}

	switch s.Kind {
	case StepKindCreateTask, StepKindSendNotification, StepKindAssignUser, StepKindWait:
		if s.Branch != nil || len(s.Children) > 0 {
			return fmt.Errorf("step %s: leaf kind %q cannot carry children: %w", s.Name, s.Kind, ErrInvalidStepShape)
		}
	case StepKindBranch:
		if s.Branch == nil || s.Branch.Then == nil {
			return fmt.Errorf("step %s: branch step needs a condition and a then-step: %w", s.Name, ErrInvalidStepShape)
		}

		if len(s.Children) > 0 || s.Parameters != nil {
			return fmt.Errorf("step %s: branch step carries only its branch payload: %w", s.Name, ErrInvalidStepShape)
		}
	case StepKindParallel:
		if len(s.Children) == 0 {
			return fmt.Errorf("step %s: parallel step needs at least one child: %w", s.Name, ErrInvalidStepShape)
		}

		if s.Branch != nil || s.Parameters != nil {
			return fmt.Errorf("step %s: parallel step carries only children: %w", s.Name, ErrInvalidStepShape)
		}
	default:
		return fmt.Errorf("step %s: kind %q: %w", s.Name, s.Kind, ErrUnknownStepKind)
	}

	return nil
}

// childSteps returns the nested steps of structural kinds, used by template
// validation to walk the whole tree.
func (s *WorkflowStep) childSteps() []*WorkflowStep {
	switch s.Kind {
	case StepKindBranch:
		children := []*WorkflowStep{s.Branch.Then}
		if s.Branch.Else != nil {
			children = append(children, s.Branch.Else)
		}

		return children
	case StepKindParallel:
		return s.Children
	default:
		return nil
	}
}

// StringParam reads a string parameter from a leaf step's parameter map.
func (s *WorkflowStep) StringParam(key string) (string, bool) {
	raw, ok := s.Parameters[key]
	if !ok {
		return "", false
	}

	value, ok := raw.(string)

	return value, ok
}
