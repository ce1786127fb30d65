// Package notify carries engine notifications to interested parties:
// stage transitions, outbreak starts and ends, siege escalations,
// economic events. Fan-out is one-way; engines publish after their own
// state is mutated and never wait on delivery.
package notify

import "time"

// Priority of a notification.
type Priority string

const (
	PriorityInfo     Priority = "info"
	PriorityWarning  Priority = "warning"
	PriorityCritical Priority = "critical"
)

// Notification is the payload handed to the sink. EntityID is the
// population or settlement the event concerns.
type Notification struct {
	Type      string         `json:"type"`
	EntityID  string         `json:"entity_id"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
	Priority  Priority       `json:"priority"`
}

// Sink accepts notifications. Engines hold exactly one sink, chosen at
// construction; the default is NopSink.
type Sink interface {
	Publish(n Notification)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Publish(Notification) {}

// New builds a notification stamped with the current time.
func New(typ, entityID string, priority Priority, payload map[string]any) Notification {
	return Notification{
		Type:      typ,
		EntityID:  entityID,
		Payload:   payload,
		Timestamp: time.Now(),
		Priority:  priority,
	}
}
