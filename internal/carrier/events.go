package carrier

import (
	"context"
	"time"

	"github.com/HerbHall/netmeter/pkg/plugin"
)

// TopicMergeGroupsUpdated is published after the merge groups change.
// Payload: GroupsUpdatedPayload.
const TopicMergeGroupsUpdated = "carrier.merge_groups.updated"

// GroupsUpdatedPayload carries the new merge groups.
type GroupsUpdatedPayload struct {
	Groups [][]string `json:"groups"`
}

func (m *Module) publishUpdated(ctx context.Context, groups [][]string) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, plugin.Event{
		Topic:     TopicMergeGroupsUpdated,
		Source:    "carrier",
		Timestamp: time.Now(),
		Payload:   GroupsUpdatedPayload{Groups: groups},
	})
}
