package feed

import "time"

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageTemplateRegistered MessageType = "template.registered"
	MessageTemplateRemoved    MessageType = "template.removed"
	MessageMergeGroupsUpdated MessageType = "merge_groups.updated"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// TemplateData is the payload for template.* messages. The template is
// its display form with subscriber IDs scrubbed.
type TemplateData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Template string `json:"template"`
}

// MergeGroupsData is the payload for merge_groups.updated messages.
// Groups carry scrubbed subscriber IDs.
type MergeGroupsData struct {
	Groups [][]string `json:"groups"`
}
