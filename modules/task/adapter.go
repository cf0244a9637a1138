package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/example/task-api/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort defines the task operations available to other modules.
type TaskPort interface {
	ListTasks(ctx context.Context, req ListTasksRequest) (*TaskPage, error)
	GetTask(ctx context.Context, taskID, ownerID string) (*domain.Task, error)
	CreateTask(ctx context.Context, ownerID string, attrs Attributes) (*domain.Task, error)
	ReplaceTask(ctx context.Context, taskID, ownerID string, attrs Attributes) (*domain.Task, error)
	UpdateTask(ctx context.Context, taskID, ownerID string, attrs Attributes) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID, ownerID string) error
}

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

func (a *taskAdapter) ListTasks(ctx context.Context, req ListTasksRequest) (*TaskPage, error) {
	var resp TaskPage
	if err := callService(ctx, a.container, "list-tasks", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) GetTask(ctx context.Context, taskID, ownerID string) (*domain.Task, error) {
	req := TaskRequest{TaskID: taskID, OwnerID: ownerID}
	var resp TaskResponse
	if err := callService(ctx, a.container, "get-task", &req, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (a *taskAdapter) CreateTask(ctx context.Context, ownerID string, attrs Attributes) (*domain.Task, error) {
	req := WriteTaskRequest{OwnerID: ownerID, Attributes: attrs}
	var resp TaskResponse
	if err := callService(ctx, a.container, "create-task", &req, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (a *taskAdapter) ReplaceTask(ctx context.Context, taskID, ownerID string, attrs Attributes) (*domain.Task, error) {
	req := WriteTaskRequest{TaskID: taskID, OwnerID: ownerID, Attributes: attrs}
	var resp TaskResponse
	if err := callService(ctx, a.container, "replace-task", &req, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (a *taskAdapter) UpdateTask(ctx context.Context, taskID, ownerID string, attrs Attributes) (*domain.Task, error) {
	req := WriteTaskRequest{TaskID: taskID, OwnerID: ownerID, Attributes: attrs}
	var resp TaskResponse
	if err := callService(ctx, a.container, "update-task", &req, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (a *taskAdapter) DeleteTask(ctx context.Context, taskID, ownerID string) error {
	req := TaskRequest{TaskID: taskID, OwnerID: ownerID}
	var resp DeleteTaskResponse
	return callService(ctx, a.container, "delete-task", &req, &resp)
}

// callService performs one typed request-reply call and restores known sentinels.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, translateError(err))
	}
	return nil
}

// translateError restores the sentinel behind an error that crossed the service container.
func translateError(err error) error {
	msg := err.Error()
	for _, known := range []error{ErrTaskNotFound, ErrInvalidAttributes, ErrOwnerRequired} {
		if strings.Contains(msg, known.Error()) {
			return fmt.Errorf("%w (%s)", known, msg)
		}
	}
	return err
}
