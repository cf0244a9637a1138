package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityPort reads the activity log from other modules.
type ActivityPort interface {
	RecentActivity(ctx context.Context, userID string, limit int) ([]Activity, error)
}

// ActivityAdapter implements ActivityPort over the notification service container.
type ActivityAdapter struct {
	container mono.ServiceContainer
}

var _ ActivityPort = (*ActivityAdapter)(nil)

// NewActivityAdapter creates a new ActivityAdapter.
func NewActivityAdapter(container mono.ServiceContainer) *ActivityAdapter {
	return &ActivityAdapter{container: container}
}

func (a *ActivityAdapter) RecentActivity(ctx context.Context, userID string, limit int) ([]Activity, error) {
	req := RecentActivityRequest{UserID: userID, Limit: limit}
	var resp RecentActivityResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"recent-activity",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("recent-activity request failed: %w", err)
	}
	return resp.Activities, nil
}
