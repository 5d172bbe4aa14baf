// Package web provides the REST API for running workflows and managing the
// template catalog.
package web

import (
	"time"

	"github.com/reliefops/aidflow/pkg/models"
)

// ExecuteRequest is the body for both synchronous and asynchronous
// execution. The request type selects the workflow template to run.
type ExecuteRequest struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"         validate:"required"`
	Priority    models.RequestPriority `json:"priority"     validate:"omitempty,oneof=low medium high critical"`
	Location    string                 `json:"location"`
	RequesterID string                 `json:"requester_id"`
	Details     map[string]any         `json:"details,omitempty"`
}

func (r *ExecuteRequest) ToModel() *models.ReliefRequest {
	return &models.ReliefRequest{
		ID:          r.ID,
		Type:        r.Type,
		Priority:    r.Priority,
		Location:    r.Location,
		RequesterID: r.RequesterID,
		Details:     r.Details,
	}
}

// AsyncAcceptedResponse acknowledges an enqueued execution.
type AsyncAcceptedResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// TemplateRequest is the body for creating or updating a workflow template.
type TemplateRequest struct {
	Name        string                 `json:"name"        validate:"required,min=3"`
	Description string                 `json:"description"`
	Active      bool                   `json:"active"`
	Steps       []*models.WorkflowStep `json:"steps"       validate:"required,min=1"`
}

func (r *TemplateRequest) ToModel() *models.WorkflowTemplate {
	return &models.WorkflowTemplate{
		Name:        r.Name,
		Description: r.Description,
		Active:      r.Active,
		Steps:       r.Steps,
	}
}

// ExecutionResponse is the API projection of an execution record.
type ExecutionResponse struct {
	ID           string                 `json:"id"`
	RequestID    string                 `json:"request_id"`
	WorkflowType string                 `json:"workflow_type"`
	Status       models.ExecutionStatus `json:"status"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	StepResults  []models.StepResult    `json:"step_results"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   time.Time              `json:"finished_at"`
}

func TransformExecutionResponse(result *models.ExecutionResult) ExecutionResponse {
	return ExecutionResponse{
		ID:           result.ID,
		RequestID:    result.RequestID,
		WorkflowType: result.WorkflowType,
		Status:       result.Status,
		ErrorMessage: result.ErrorMessage,
		StepResults:  result.StepResults,
		StartedAt:    result.StartedAt,
		FinishedAt:   result.FinishedAt,
	}
}
