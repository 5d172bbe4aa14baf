package models

import (
	"sync"
	"time"
)

// ExecutionStatus is the lifecycle state of one workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	// ExecutionStatusFailed is a business outcome: a required step
	// legitimately reported failure.
	ExecutionStatusFailed ExecutionStatus = "failed"
	// ExecutionStatusError indicates the engine itself malfunctioned,
	// distinct from a failed business outcome.
	ExecutionStatusError ExecutionStatus = "error"
)

// Terminal reports whether the status can no longer change.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusError
}

// StepResult is the immutable outcome of one executed (non-skipped) step.
type StepResult struct {
	StepName string `json:"step_name"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// ExecutionResult is the auditable record of one workflow run. It is
// created at run start, mutated only by the engine, finalized exactly once
// with a terminal status, and never touched after the recorder captures it.
type ExecutionResult struct {
	ID           string          `json:"id"`
	RequestID    string          `json:"request_id"`
	WorkflowType string          `json:"workflow_type"`
	Status       ExecutionStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	StepResults  []StepResult    `json:"step_results"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
}

// ExecutionContext is the per-run state handed to step executors: the
// read-only originating request plus a variable bag executors populate for
// later steps (a create-task executor writes taskId, an assign executor
// reads it). The bag is synchronized so parallel children may write
// concurrently; writes to the same key are last-write-wins, so parallel
// siblings should not share output keys.
//
// The context lives for exactly one execution. Nothing in the bag survives
// the run except what the recorder chooses to serialize.
type ExecutionContext struct {
	Request *ReliefRequest

	mu   sync.RWMutex
	vars map[string]any
}

// NewExecutionContext creates a fresh context around a request with an
// empty variable bag.
func NewExecutionContext(request *ReliefRequest) *ExecutionContext {
	return &ExecutionContext{
		Request: request,
		vars:    make(map[string]any),
	}
}

// SetVariable stores or overwrites a variable.
func (c *ExecutionContext) SetVariable(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vars[key] = value
}

// Variable reads a variable, reporting whether it is present.
func (c *ExecutionContext) Variable(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.vars[key]

	return value, ok
}

// Variables returns a snapshot copy of the bag, safe to read while
// parallel children keep writing.
func (c *ExecutionContext) Variables() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]any, len(c.vars))
	for k, v := range c.vars {
		snapshot[k] = v
	}

	return snapshot
}
