package notification

import (
	"errors"
	"sync"
	"time"
)

// ErrUserRequired is returned when activity is requested without a user.
var ErrUserRequired = errors.New("user id is required")

// Activity is one entry of a user's task activity log.
type Activity struct {
	TaskID     string    `json:"task_id"`
	UserID     string    `json:"user_id"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DefaultMaxEntries is the default number of activities retained.
const DefaultMaxEntries = 1000

// ActivityLog is a bounded, thread-safe log of task activity.
type ActivityLog struct {
	mu         sync.RWMutex
	entries    []Activity
	maxEntries int
}

// NewActivityLog creates a log that keeps at most maxEntries activities.
func NewActivityLog(maxEntries int) *ActivityLog {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &ActivityLog{
		entries:    make([]Activity, 0),
		maxEntries: maxEntries,
	}
}

// Record appends an activity, dropping the oldest entries past the limit.
func (l *ActivityLog) Record(a Activity) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, a)
	if excess := len(l.entries) - l.maxEntries; excess > 0 {
		l.entries = l.entries[excess:]
	}
}

// Recent returns up to limit activities for userID, newest first.
// An empty userID matches every user.
func (l *ActivityLog) Recent(userID string, limit int) []Activity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Activity, 0)
	for i := len(l.entries) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		if userID == "" || l.entries[i].UserID == userID {
			result = append(result, l.entries[i])
		}
	}
	return result
}

// Len returns the number of retained activities.
func (l *ActivityLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// RecentActivityRequest asks for a user's latest activities.
type RecentActivityRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// RecentActivityResponse carries activities, newest first.
type RecentActivityResponse struct {
	Activities []Activity `json:"activities"`
}
