package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/example/task-api/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// NotificationModule consumes task events and keeps an activity log per user.
type NotificationModule struct {
	activity *ActivityLog
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.ServiceProviderModule = (*NotificationModule)(nil)
var _ ActivityPort = (*NotificationModule)(nil)
var _ mono.HealthCheckableModule = (*NotificationModule)(nil)

// NewModule creates a NotificationModule retaining at most maxEntries activities.
func NewModule(maxEntries int) *NotificationModule {
	return &NotificationModule{
		activity: NewActivityLog(maxEntries),
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: TaskCreated, TaskUpdated, TaskCompleted, TaskDeleted")
	return nil
}

func (m *NotificationModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task created: %s - %s", event.TaskID, event.Title)
	m.activity.Record(Activity{
		TaskID:     event.TaskID,
		UserID:     event.UserID,
		Type:       "task_created",
		Message:    fmt.Sprintf("Task '%s' created with %s priority", event.Title, event.Priority),
		OccurredAt: event.CreatedAt,
	})
	return nil
}

func (m *NotificationModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	if len(event.ChangedFields) == 0 {
		return nil
	}
	log.Printf("[notification] Task updated: %s (%s)", event.TaskID, strings.Join(event.ChangedFields, ", "))
	m.activity.Record(Activity{
		TaskID:     event.TaskID,
		UserID:     event.UserID,
		Type:       "task_updated",
		Message:    fmt.Sprintf("Task %s changed: %s", event.TaskID, strings.Join(event.ChangedFields, ", ")),
		OccurredAt: event.UpdatedAt,
	})
	return nil
}

func (m *NotificationModule) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task completed: %s by user %s", event.TaskID, event.UserID)
	m.activity.Record(Activity{
		TaskID:     event.TaskID,
		UserID:     event.UserID,
		Type:       "task_completed",
		Message:    fmt.Sprintf("Task %s completed!", event.TaskID),
		OccurredAt: event.CompletedAt,
	})
	return nil
}

func (m *NotificationModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task deleted: %s by user %s", event.TaskID, event.UserID)
	m.activity.Record(Activity{
		TaskID:     event.TaskID,
		UserID:     event.UserID,
		Type:       "task_deleted",
		Message:    fmt.Sprintf("Task %s deleted", event.TaskID),
		OccurredAt: event.DeletedAt,
	})
	return nil
}

// MaxRecentActivities caps one recent-activity reply.
const MaxRecentActivities = 100

func (m *NotificationModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "recent-activity", json.Unmarshal, json.Marshal, m.handleRecentActivity,
	); err != nil {
		return fmt.Errorf("failed to register recent-activity service: %w", err)
	}

	log.Printf("[notification] Registered services: recent-activity")
	return nil
}

func (m *NotificationModule) handleRecentActivity(ctx context.Context, req RecentActivityRequest, _ *mono.Msg) (RecentActivityResponse, error) {
	activities, err := m.RecentActivity(ctx, req.UserID, req.Limit)
	if err != nil {
		return RecentActivityResponse{}, err
	}
	return RecentActivityResponse{Activities: activities}, nil
}

// RecentActivity returns the caller's latest activities, newest first.
// A non-positive or oversized limit is clamped to MaxRecentActivities.
func (m *NotificationModule) RecentActivity(_ context.Context, userID string, limit int) ([]Activity, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	if limit <= 0 || limit > MaxRecentActivities {
		limit = MaxRecentActivities
	}
	return m.activity.Recent(userID, limit), nil
}

// Activity returns the module's activity log.
func (m *NotificationModule) Activity() *ActivityLog {
	return m.activity
}

func (m *NotificationModule) Start(_ context.Context) error {
	log.Println("[notification] Module started - listening for task events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	log.Println("[notification] Module stopped")
	return nil
}

// Health reports how many activities are retained.
func (m *NotificationModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"activities": m.activity.Len()},
	}
}
