package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	domain "github.com/example/task-api/domain/task"
	"github.com/example/task-api/events"
	"github.com/go-monolith/mono"
	"github.com/google/uuid"
)

var (
	// ErrInvalidAttributes is returned when task attributes break the data model.
	ErrInvalidAttributes = errors.New("invalid task attributes")
	// ErrOwnerRequired is returned when a task would be stored without an owner.
	ErrOwnerRequired = errors.New("task owner is required")
)

// TaskService implements the task use cases on top of the repository.
type TaskService struct {
	repo     *Repository
	eventBus mono.EventBus
}

var _ TaskPort = (*TaskService)(nil)

// NewTaskService creates a new TaskService. eventBus may be nil.
func NewTaskService(repo *Repository, eventBus mono.EventBus) *TaskService {
	return &TaskService{
		repo:     repo,
		eventBus: eventBus,
	}
}

// ListTasks returns one page of the owner's tasks.
func (s *TaskService) ListTasks(ctx context.Context, req ListTasksRequest) (*TaskPage, error) {
	if req.OwnerID == "" {
		return nil, ErrOwnerRequired
	}

	scope := Scope{
		OwnerID: req.OwnerID,
		Filters: req.Filters,
		Sort:    req.Sort,
		Page:    req.Page,
		PerPage: DefaultPageSize,
	}.normalize()

	tasks, total, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &TaskPage{
		Tasks:    tasks,
		Total:    total,
		Page:     scope.Page,
		PerPage:  scope.PerPage,
		LastPage: lastPage(total, scope.PerPage),
	}, nil
}

// GetTask returns a task owned by ownerID.
func (s *TaskService) GetTask(ctx context.Context, taskID, ownerID string) (*domain.Task, error) {
	return s.repo.FindOwned(ctx, taskID, ownerID)
}

// CreateTask stores a new task for ownerID.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, attrs Attributes) (*domain.Task, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if attrs.Title == nil || strings.TrimSpace(*attrs.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidAttributes)
	}
	if err := checkEnums(attrs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		Status:    domain.StatusPending,
		Priority:  domain.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyAttributes(task, attrs)

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.publishCreated(task)
	return task, nil
}

// ReplaceTask overwrites every attribute of a task. All attributes must be supplied.
func (s *TaskService) ReplaceTask(ctx context.Context, taskID, ownerID string, attrs Attributes) (*domain.Task, error) {
	if missing := missingForReplace(attrs); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidAttributes, strings.Join(missing, ", "))
	}
	return s.write(ctx, taskID, ownerID, attrs)
}

// UpdateTask changes only the supplied attributes of a task.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, ownerID string, attrs Attributes) (*domain.Task, error) {
	if attrs.Title != nil && strings.TrimSpace(*attrs.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidAttributes)
	}
	return s.write(ctx, taskID, ownerID, attrs)
}

// DeleteTask removes a task owned by ownerID.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, ownerID string) error {
	if err := s.repo.Delete(ctx, taskID, ownerID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if s.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    taskID,
			UserID:    ownerID,
			DeletedAt: time.Now().UTC(),
		}
		if err := events.TaskDeletedV1.Publish(s.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", taskID, err)
		}
	}
	return nil
}

func (s *TaskService) write(ctx context.Context, taskID, ownerID string, attrs Attributes) (*domain.Task, error) {
	if err := checkEnums(attrs); err != nil {
		return nil, err
	}

	task, err := s.repo.FindOwned(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}

	previous := task.Status
	changed := applyAttributes(task, attrs)
	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	s.publishUpdated(task, changed, previous)
	return task, nil
}

func (s *TaskService) publishCreated(task *domain.Task) {
	if s.eventBus == nil {
		return
	}
	event := events.TaskCreatedEvent{
		TaskID:    task.ID,
		Title:     task.Title,
		Status:    string(task.Status),
		Priority:  string(task.Priority),
		UserID:    task.UserID,
		CreatedAt: task.CreatedAt,
	}
	// Event publishing is best-effort; log but don't fail the operation
	if err := events.TaskCreatedV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", task.ID, err)
	}
}

func (s *TaskService) publishUpdated(task *domain.Task, changed []string, previous domain.Status) {
	if s.eventBus == nil {
		return
	}
	event := events.TaskUpdatedEvent{
		TaskID:        task.ID,
		UserID:        task.UserID,
		ChangedFields: changed,
		UpdatedAt:     task.UpdatedAt,
	}
	if err := events.TaskUpdatedV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskUpdated event for task %s: %v", task.ID, err)
	}

	if previous != domain.StatusCompleted && task.Status == domain.StatusCompleted {
		completed := events.TaskCompletedEvent{
			TaskID:      task.ID,
			UserID:      task.UserID,
			CompletedAt: task.UpdatedAt,
		}
		if err := events.TaskCompletedV1.Publish(s.eventBus, completed, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskCompleted event for task %s: %v", task.ID, err)
		}
	}
}

// applyAttributes copies supplied attributes onto task and returns the names of changed fields.
func applyAttributes(task *domain.Task, attrs Attributes) []string {
	var changed []string
	if attrs.Title != nil && *attrs.Title != task.Title {
		task.Title = *attrs.Title
		changed = append(changed, "title")
	}
	if attrs.Description != nil && (task.Description == nil || *attrs.Description != *task.Description) {
		description := *attrs.Description
		task.Description = &description
		changed = append(changed, "description")
	}
	if attrs.Status != nil && *attrs.Status != task.Status {
		task.Status = *attrs.Status
		changed = append(changed, "status")
	}
	if attrs.Priority != nil && *attrs.Priority != task.Priority {
		task.Priority = *attrs.Priority
		changed = append(changed, "priority")
	}
	if attrs.DueDate != nil && (task.DueDate == nil || !attrs.DueDate.Equal(*task.DueDate)) {
		due := attrs.DueDate.UTC()
		due = time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
		task.DueDate = &due
		changed = append(changed, "due_date")
	}
	return changed
}

func checkEnums(attrs Attributes) error {
	if attrs.Status != nil && !attrs.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidAttributes, *attrs.Status)
	}
	if attrs.Priority != nil && !attrs.Priority.IsValid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidAttributes, *attrs.Priority)
	}
	return nil
}

func missingForReplace(attrs Attributes) []string {
	var missing []string
	if attrs.Title == nil || strings.TrimSpace(*attrs.Title) == "" {
		missing = append(missing, "title")
	}
	if attrs.Description == nil {
		missing = append(missing, "description")
	}
	if attrs.Status == nil {
		missing = append(missing, "status")
	}
	if attrs.Priority == nil {
		missing = append(missing, "priority")
	}
	if attrs.DueDate == nil {
		missing = append(missing, "due_date")
	}
	return missing
}

func lastPage(total int64, perPage int) int {
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
