package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// TaskStatus is the server-reported state of an asynchronous job.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// Task types submitted by this client.
const (
	TaskTypeProcessDocument     = "process_document"
	TaskTypeGenerateRequirement = "generate_requirement_document"
	TaskTypeBuildCommunities    = "build_communities"
	TaskTypeGenerateTemplate    = "generate_template"
)

// Task represents one asynchronous backend job. Result is a polymorphic
// payload whose shape depends on TaskType; callers decode it themselves.
type Task struct {
	TaskID      string          `json:"task_id"`
	TaskType    string          `json:"task_type"`
	Status      TaskStatus      `json:"status"`
	Progress    float64         `json:"progress"`
	CurrentStep string          `json:"current_step,omitempty"`
	Error       string          `json:"error,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// ProcessResult is the result payload of a process_document task.
type ProcessResult struct {
	DocumentID    string `json:"document_id"`
	TotalSections int    `json:"total_sections"`
	TotalEpisodes int    `json:"total_episodes"`
}

// GetTask fetches the current status of a task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.get(ctx, "/api/v1/tasks/"+taskID, &task); err != nil {
		return nil, fmt.Errorf("getting task %s: %w", taskID, err)
	}
	return &task, nil
}

// CancelTask requests cancellation of a running task.
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	if err := c.post(ctx, "/api/v1/tasks/"+taskID+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("cancelling task %s: %w", taskID, err)
	}
	return nil
}
