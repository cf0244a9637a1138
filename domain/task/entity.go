package task

import (
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority represents how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          string   `gorm:"primaryKey;type:text"`
	UserID      string   `gorm:"index;not null;type:text"`
	Title       string   `gorm:"not null;type:text"`
	Description *string  `gorm:"type:text"`
	Status      Status   `gorm:"not null;type:text;default:pending"`
	Priority    Priority `gorm:"not null;type:text;default:medium"`
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// ParseDate parses a YYYY-MM-DD (or RFC 3339) date and normalises it to UTC midnight.
func ParseDate(value string) (time.Time, error) {
	if d, err := time.Parse(DateLayout, value); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	d = d.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}
