package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/example/task-api/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationModule_RecordsTaskEvents(t *testing.T) {
	m := NewModule(0)
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, m.handleTaskCreated(ctx, events.TaskCreatedEvent{TaskID: "t-1", Title: "Write", Priority: "high", UserID: "u-1", CreatedAt: at}, nil))
	require.NoError(t, m.handleTaskUpdated(ctx, events.TaskUpdatedEvent{TaskID: "t-1", UserID: "u-1", ChangedFields: []string{"status", "title"}, UpdatedAt: at.Add(time.Hour)}, nil))
	require.NoError(t, m.handleTaskUpdated(ctx, events.TaskUpdatedEvent{TaskID: "t-1", UserID: "u-1", UpdatedAt: at.Add(time.Hour)}, nil))
	require.NoError(t, m.handleTaskCompleted(ctx, events.TaskCompletedEvent{TaskID: "t-1", UserID: "u-1", CompletedAt: at.Add(2 * time.Hour)}, nil))
	require.NoError(t, m.handleTaskDeleted(ctx, events.TaskDeletedEvent{TaskID: "t-2", UserID: "u-2", DeletedAt: at.Add(3 * time.Hour)}, nil))

	all := m.Activity().Recent("", 0)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"task_deleted", "task_completed", "task_updated", "task_created"}, activityTypes(all))

	mine := m.Activity().Recent("u-1", 0)
	require.Len(t, mine, 3)
	assert.Equal(t, "Task t-1 changed: status, title", mine[1].Message)
	assert.Equal(t, "Task 'Write' created with high priority", mine[2].Message)
	assert.Equal(t, at, mine[2].OccurredAt)

	health := m.Health(ctx)
	assert.True(t, health.Healthy)
	assert.Equal(t, 4, health.Details["activities"])
}

func TestNotificationModule_RecentActivity(t *testing.T) {
	m := NewModule(0)
	ctx := context.Background()
	for i := 0; i < MaxRecentActivities+5; i++ {
		m.Activity().Record(Activity{TaskID: fmt.Sprintf("t-%d", i), UserID: "u-1"})
	}
	m.Activity().Record(Activity{TaskID: "other", UserID: "u-2"})

	got, err := m.RecentActivity(ctx, "u-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, fmt.Sprintf("t-%d", MaxRecentActivities+4), got[0].TaskID)

	got, err = m.RecentActivity(ctx, "u-1", 0)
	require.NoError(t, err)
	assert.Len(t, got, MaxRecentActivities)

	resp, err := m.handleRecentActivity(ctx, RecentActivityRequest{UserID: "u-2", Limit: 500}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Activities, 1)
	assert.Equal(t, "other", resp.Activities[0].TaskID)

	_, err = m.RecentActivity(ctx, "", 10)
	assert.ErrorIs(t, err, ErrUserRequired)
}

func TestActivityLog(t *testing.T) {
	tests := []struct {
		name     string
		max      int
		record   int
		userID   string
		limit    int
		wantLen  int
		wantHead string
	}{
		{name: "keeps everything under the limit", max: 10, record: 5, wantLen: 5, wantHead: "t-4"},
		{name: "drops oldest past the limit", max: 3, record: 5, wantLen: 3, wantHead: "t-4"},
		{name: "limit caps the result", max: 10, record: 5, limit: 2, wantLen: 2, wantHead: "t-4"},
		{name: "filters by user", max: 10, record: 6, userID: "even", wantLen: 3, wantHead: "t-4"},
		{name: "unknown user", max: 10, record: 3, userID: "nobody", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewActivityLog(tt.max)
			for i := 0; i < tt.record; i++ {
				owner := "odd"
				if i%2 == 0 {
					owner = "even"
				}
				l.Record(Activity{TaskID: fmt.Sprintf("t-%d", i), UserID: owner})
			}

			got := l.Recent(tt.userID, tt.limit)
			assert.Len(t, got, tt.wantLen)
			if tt.wantHead != "" {
				assert.Equal(t, tt.wantHead, got[0].TaskID)
			}
		})
	}
}

func TestNewActivityLog_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultMaxEntries, NewActivityLog(-1).maxEntries)
}

func activityTypes(activities []Activity) []string {
	out := make([]string, len(activities))
	for i, a := range activities {
		out[i] = a.Type
	}
	return out
}
