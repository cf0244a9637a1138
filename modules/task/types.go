package task

import (
	"time"

	domain "github.com/example/task-api/domain/task"
)

// Attributes is a set of task fields supplied by a client. Nil means "not supplied".
type Attributes struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Status      *domain.Status   `json:"status,omitempty"`
	Priority    *domain.Priority `json:"priority,omitempty"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
}

// ListTasksRequest asks for one page of an owner's tasks.
type ListTasksRequest struct {
	OwnerID string       `json:"owner_id"`
	Filters FilterParams `json:"filters,omitempty"`
	Sort    []SortField  `json:"sort,omitempty"`
	Page    int          `json:"page"`
}

// TaskPage is one page of tasks plus paging metadata.
type TaskPage struct {
	Tasks    []domain.Task `json:"tasks"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PerPage  int           `json:"per_page"`
	LastPage int           `json:"last_page"`
}

// TaskRequest addresses one task on behalf of its owner.
type TaskRequest struct {
	TaskID  string `json:"task_id"`
	OwnerID string `json:"owner_id"`
}

// WriteTaskRequest carries attributes for create, replace and update.
type WriteTaskRequest struct {
	TaskID     string     `json:"task_id,omitempty"`
	OwnerID    string     `json:"owner_id"`
	Attributes Attributes `json:"attributes"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task domain.Task `json:"task"`
}

// DeleteTaskResponse represents a delete response.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}
