// Package events defines event types for workflow execution lifecycle notifications.
package events

import (
	"time"

	"github.com/reliefops/aidflow/pkg/models"
)

type EventType string

// Topic carries all execution lifecycle events.
const Topic = "aidflow.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// ExecutionRequestedEvent asks a worker to run a workflow for a request.
	ExecutionRequestedEvent EventType = "execution.requested"

	ExecutionStartedEvent   EventType = "execution.started"
	StepFinishedEvent       EventType = "execution.step.finished"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
)

type BaseEvent struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	WorkflowType string    `json:"workflow_type"`
	RequestID    string    `json:"request_id"`
}

// ExecutionRequested is published by callers wanting asynchronous
// execution; the worker consumes it and runs the engine.
type ExecutionRequested struct {
	BaseEvent

	Request *models.ReliefRequest `json:"request"`
}

func (e ExecutionRequested) GetType() EventType {
	return ExecutionRequestedEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

// StepFinished is published for every executed step, parallel children
// included, so per-child diagnostics survive even though only the
// synthesized parent result enters the execution record.
type StepFinished struct {
	BaseEvent

	ExecutionID string            `json:"execution_id"`
	Result      models.StepResult `json:"result"`
}

func (e StepFinished) GetType() EventType {
	return StepFinishedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Steps       int           `json:"steps"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

// ExecutionFailed covers both the failed (business) and error (engine
// defect) terminal states; Status tells them apart.
type ExecutionFailed struct {
	BaseEvent

	ExecutionID string                 `json:"execution_id"`
	Status      models.ExecutionStatus `json:"status"`
	Error       string                 `json:"error"`
	Duration    time.Duration          `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
