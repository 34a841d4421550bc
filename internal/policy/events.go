package policy

import (
	"context"
	"time"

	"github.com/HerbHall/netmeter/pkg/plugin"
)

// Event topics published by the policy module.
// Payload for both: TemplateEventPayload.
const (
	TopicTemplateRegistered = "policy.template.registered"
	TopicTemplateRemoved    = "policy.template.removed"
)

// TemplateEventPayload identifies the stored template the event is about.
// It carries the full template so subscribers do not need a store read.
type TemplateEventPayload struct {
	ID       string
	Name     string
	Template StoredTemplate
}

func (m *Module) publishRegistered(ctx context.Context, st StoredTemplate) {
	m.publish(ctx, TopicTemplateRegistered, st)
}

func (m *Module) publishRemoved(ctx context.Context, st StoredTemplate) {
	m.publish(ctx, TopicTemplateRemoved, st)
}

func (m *Module) publish(ctx context.Context, topic string, st StoredTemplate) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "policy",
		Timestamp: time.Now(),
		Payload:   TemplateEventPayload{ID: st.ID, Name: st.Name, Template: st},
	})
}
