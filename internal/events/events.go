package events

import (
	"github.com/tallr-app/tallr/internal/core"
	"github.com/tallr-app/tallr/internal/notify"
	"github.com/tallr-app/tallr/internal/tray"
)

// Event type constants for the UI push channels.
const (
	TypeSnapshot     = "snapshot"
	TypeNotification = "notification"
	TypeTray         = "tray"
)

// SnapshotEvent carries the full state snapshot after a mutation.
type SnapshotEvent struct {
	BaseEvent
	Snapshot *core.Snapshot `json:"snapshot"`
}

// NewSnapshotEvent creates a new snapshot event.
func NewSnapshotEvent(snapshot *core.Snapshot) SnapshotEvent {
	return SnapshotEvent{
		BaseEvent: NewBaseEvent(TypeSnapshot),
		Snapshot:  snapshot,
	}
}

// NotificationEvent carries an alert that passed the notification policy.
type NotificationEvent struct {
	BaseEvent
	Notification notify.Payload `json:"notification"`
}

// NewNotificationEvent creates a new notification event.
func NewNotificationEvent(payload notify.Payload) NotificationEvent {
	return NotificationEvent{
		BaseEvent:    NewBaseEvent(TypeNotification),
		Notification: payload,
	}
}

// TrayEvent carries the tray model derived from the current snapshot.
type TrayEvent struct {
	BaseEvent
	Tray tray.Model `json:"tray"`
}

// NewTrayEvent creates a new tray event.
func NewTrayEvent(model tray.Model) TrayEvent {
	return TrayEvent{
		BaseEvent: NewBaseEvent(TypeTray),
		Tray:      model,
	}
}
