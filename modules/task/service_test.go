package task

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/example/task-api/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestService(t *testing.T) *TaskService {
	t.Helper()
	return NewTaskService(NewRepository(setupTestDB(t)), nil)
}

func statusPtr(s domain.Status) *domain.Status       { return &s }
func priorityPtr(p domain.Priority) *domain.Priority { return &p }

func TestTaskService_CreateTask(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("defaults status and priority", func(t *testing.T) {
		task, err := svc.CreateTask(ctx, "owner", Attributes{Title: strPtr("Buy milk")})
		require.NoError(t, err)

		assert.NotEmpty(t, task.ID)
		assert.Equal(t, "owner", task.UserID)
		assert.Equal(t, domain.StatusPending, task.Status)
		assert.Equal(t, domain.PriorityMedium, task.Priority)
		assert.Nil(t, task.Description)
		assert.Nil(t, task.DueDate)
	})

	t.Run("stores supplied attributes", func(t *testing.T) {
		due := time.Date(2030, 4, 1, 15, 30, 0, 0, time.UTC)
		task, err := svc.CreateTask(ctx, "owner", Attributes{
			Title:       strPtr("Ship release"),
			Description: strPtr("tag and publish"),
			Status:      statusPtr(domain.StatusInProgress),
			Priority:    priorityPtr(domain.PriorityHigh),
			DueDate:     &due,
		})
		require.NoError(t, err)

		stored, err := svc.GetTask(ctx, task.ID, "owner")
		require.NoError(t, err)
		assert.Equal(t, "tag and publish", *stored.Description)
		assert.Equal(t, domain.StatusInProgress, stored.Status)
		assert.Equal(t, domain.PriorityHigh, stored.Priority)
		require.NotNil(t, stored.DueDate)
		assert.Equal(t, "2030-04-01", stored.DueDate.UTC().Format(domain.DateLayout))
	})

	tests := []struct {
		name    string
		owner   string
		attrs   Attributes
		wantErr error
	}{
		{name: "missing owner", owner: "", attrs: Attributes{Title: strPtr("x")}, wantErr: ErrOwnerRequired},
		{name: "missing title", owner: "owner", attrs: Attributes{}, wantErr: ErrInvalidAttributes},
		{name: "blank title", owner: "owner", attrs: Attributes{Title: strPtr("   ")}, wantErr: ErrInvalidAttributes},
		{name: "unknown status", owner: "owner", attrs: Attributes{Title: strPtr("x"), Status: statusPtr("archived")}, wantErr: ErrInvalidAttributes},
		{name: "unknown priority", owner: "owner", attrs: Attributes{Title: strPtr("x"), Priority: priorityPtr("urgent")}, wantErr: ErrInvalidAttributes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(ctx, tt.owner, tt.attrs)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTaskService_OwnershipIsNotFound(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "owner", Attributes{Title: strPtr("Private")})
	require.NoError(t, err)

	_, err = svc.GetTask(ctx, task.ID, "intruder")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.UpdateTask(ctx, task.ID, "intruder", Attributes{Title: strPtr("Hijacked")})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = svc.DeleteTask(ctx, task.ID, "intruder")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	stored, err := svc.GetTask(ctx, task.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Private", stored.Title)
}

func TestTaskService_ReplaceTask(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "owner", Attributes{Title: strPtr("Original")})
	require.NoError(t, err)

	t.Run("requires every attribute", func(t *testing.T) {
		_, err := svc.ReplaceTask(ctx, task.ID, "owner", Attributes{
			Title:  strPtr("Only title and status"),
			Status: statusPtr(domain.StatusCompleted),
		})
		require.ErrorIs(t, err, ErrInvalidAttributes)
		assert.Contains(t, err.Error(), "description, priority, due_date")
	})

	t.Run("overwrites all attributes", func(t *testing.T) {
		due := time.Date(2031, 1, 2, 0, 0, 0, 0, time.UTC)
		replaced, err := svc.ReplaceTask(ctx, task.ID, "owner", Attributes{
			Title:       strPtr("Replaced"),
			Description: strPtr("new body"),
			Status:      statusPtr(domain.StatusCompleted),
			Priority:    priorityPtr(domain.PriorityLow),
			DueDate:     &due,
		})
		require.NoError(t, err)
		assert.Equal(t, "Replaced", replaced.Title)
		assert.Equal(t, domain.StatusCompleted, replaced.Status)
		assert.Equal(t, domain.PriorityLow, replaced.Priority)
		assert.False(t, replaced.UpdatedAt.Before(replaced.CreatedAt))
	})

	t.Run("missing task", func(t *testing.T) {
		due := time.Now()
		_, err := svc.ReplaceTask(ctx, "does-not-exist", "owner", Attributes{
			Title:       strPtr("x"),
			Description: strPtr("y"),
			Status:      statusPtr(domain.StatusPending),
			Priority:    priorityPtr(domain.PriorityLow),
			DueDate:     &due,
		})
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "owner", Attributes{
		Title:       strPtr("Partial"),
		Description: strPtr("keep me"),
		Priority:    priorityPtr(domain.PriorityHigh),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTask(ctx, task.ID, "owner", Attributes{Status: statusPtr(domain.StatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.Equal(t, "Partial", updated.Title)
	assert.Equal(t, "keep me", *updated.Description)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)

	_, err = svc.UpdateTask(ctx, task.ID, "owner", Attributes{Title: strPtr("")})
	assert.ErrorIs(t, err, ErrInvalidAttributes)

	_, err = svc.UpdateTask(ctx, task.ID, "owner", Attributes{Priority: priorityPtr("critical")})
	assert.ErrorIs(t, err, ErrInvalidAttributes)
}

func TestTaskService_ListTasks(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := svc.CreateTask(ctx, "owner", Attributes{Title: strPtr(fmt.Sprintf("Task %02d", i))})
		require.NoError(t, err)
	}

	page, err := svc.ListTasks(ctx, ListTasksRequest{OwnerID: "owner", Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 5)
	assert.Equal(t, int64(20), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, DefaultPageSize, page.PerPage)
	assert.Equal(t, 2, page.LastPage)

	empty, err := svc.ListTasks(ctx, ListTasksRequest{OwnerID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, empty.Tasks)
	assert.Equal(t, 1, empty.LastPage)

	_, err = svc.ListTasks(ctx, ListTasksRequest{})
	assert.ErrorIs(t, err, ErrOwnerRequired)
}

func TestApplyAttributes_ChangedFields(t *testing.T) {
	description := "same"
	task := &domain.Task{Title: "a", Description: &description, Status: domain.StatusPending, Priority: domain.PriorityLow}

	changed := applyAttributes(task, Attributes{
		Title:       strPtr("a"),
		Description: strPtr("same"),
		Status:      statusPtr(domain.StatusCompleted),
	})
	assert.Equal(t, []string{"status"}, changed)
}

func TestLastPage(t *testing.T) {
	tests := []struct {
		total int64
		want  int
	}{
		{0, 1}, {1, 1}, {15, 1}, {16, 2}, {30, 2}, {31, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lastPage(tt.total, DefaultPageSize), "total=%d", tt.total)
	}
}

func TestTranslateErrorFromService(t *testing.T) {
	remote := errors.New("nats: service error: task cannot be found")
	assert.ErrorIs(t, translateError(remote), ErrTaskNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, translateError(other))
}
