package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-api/database"
	domain "github.com/example/task-api/domain/task"
	"github.com/example/task-api/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// TaskModule owns task persistence and the list query pipeline.
type TaskModule struct {
	config   database.Config
	db       *gorm.DB
	service  *TaskService
	eventBus mono.EventBus
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(config database.Config) *TaskModule {
	return &TaskModule{
		config: config,
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) Start(_ context.Context) error {
	db, err := database.Open(m.config, &domain.Task{})
	if err != nil {
		return err
	}
	m.db = db

	if m.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	m.service = NewTaskService(NewRepository(db), m.eventBus)

	log.Printf("[task] Module started (database: %s)", m.config.Path)
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		log.Printf("[task] Error closing database: %v", err)
	}
	log.Println("[task] Module stopped")
	return nil
}

func (m *TaskModule) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database":  m.config.Path,
			"page_size": DefaultPageSize,
		},
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "replace-task", json.Unmarshal, json.Marshal, m.handleReplace,
	); err != nil {
		return fmt.Errorf("failed to register replace-task service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	log.Println("[task] Registered services: list-tasks, get-task, create-task, replace-task, update-task, delete-task")
	return nil
}

func (m *TaskModule) handleList(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (TaskPage, error) {
	page, err := m.service.ListTasks(ctx, req)
	if err != nil {
		return TaskPage{}, err
	}
	return *page, nil
}

func (m *TaskModule) handleGet(ctx context.Context, req TaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.GetTask(ctx, req.TaskID, req.OwnerID)
	if err != nil {
		return TaskResponse{}, err
	}
	return TaskResponse{Task: *t}, nil
}

func (m *TaskModule) handleCreate(ctx context.Context, req WriteTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.CreateTask(ctx, req.OwnerID, req.Attributes)
	if err != nil {
		return TaskResponse{}, err
	}
	return TaskResponse{Task: *t}, nil
}

func (m *TaskModule) handleReplace(ctx context.Context, req WriteTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.ReplaceTask(ctx, req.TaskID, req.OwnerID, req.Attributes)
	if err != nil {
		return TaskResponse{}, err
	}
	return TaskResponse{Task: *t}, nil
}

func (m *TaskModule) handleUpdate(ctx context.Context, req WriteTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.UpdateTask(ctx, req.TaskID, req.OwnerID, req.Attributes)
	if err != nil {
		return TaskResponse{}, err
	}
	return TaskResponse{Task: *t}, nil
}

func (m *TaskModule) handleDelete(ctx context.Context, req TaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.DeleteTask(ctx, req.TaskID, req.OwnerID); err != nil {
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}
