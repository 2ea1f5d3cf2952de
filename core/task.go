package core

import (
	"context"
)

// Task describes one unit of work. Its shape belongs to the concrete agent.
type Task map[string]interface{}

// TaskProcessor is implemented by every concrete agent.
//
// ProcessTask returns either a result or an error. Errors are not meant to
// reach end users as-is: callers pass them through AgentRuntime.HandleError,
// or use AgentRuntime.Execute which does so.
type TaskProcessor interface {
	ProcessTask(ctx context.Context, task Task) (TaskResult, error)
}

// TaskProcessorFunc adapts a function to TaskProcessor.
type TaskProcessorFunc func(ctx context.Context, task Task) (TaskResult, error)

// ProcessTask calls f(ctx, task).
func (f TaskProcessorFunc) ProcessTask(ctx context.Context, task Task) (TaskResult, error) {
	return f(ctx, task)
}

// RequiredFieldsProvider lets a processor declare the task keys that
// ValidateInput must find.
type RequiredFieldsProvider interface {
	RequiredFields() []string
}

// TaskResult is the envelope returned from task processing and error
// handling. On failure Error, ErrorType and Context are set; on success
// the payload lives in Data.
type TaskResult struct {
	Success   bool                   `json:"success" yaml:"success"`
	Error     string                 `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType string                 `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Context   string                 `json:"context,omitempty" yaml:"context,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewSuccessResult wraps data in a successful result.
func NewSuccessResult(data map[string]interface{}) TaskResult {
	return TaskResult{Success: true, Data: data}
}

// Map flattens the result into the mapping form: "success" always, the
// failure keys on failure, and the Data keys on success.
func (r TaskResult) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Data)+4)
	if r.Success {
		for k, v := range r.Data {
			out[k] = v
		}
		out["success"] = true
		return out
	}
	out["success"] = false
	out["error"] = r.Error
	out["error_type"] = r.ErrorType
	out["context"] = r.Context
	return out
}

// taskID extracts the task identifier, if the task carries one.
func (t Task) taskID() (string, bool) {
	v, ok := t[TaskIDKey]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
