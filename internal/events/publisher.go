package events

import (
	"github.com/tallr-app/tallr/internal/core"
	"github.com/tallr-app/tallr/internal/logging"
	"github.com/tallr-app/tallr/internal/notify"
	"github.com/tallr-app/tallr/internal/tray"
)

// Publisher fans state changes out to every push channel: the event bus
// feeding SSE clients, and the tray presenter when a shell is attached.
// Failures are logged and never propagate to the caller.
type Publisher struct {
	bus       *Bus
	presenter tray.Presenter
	logger    *logging.Logger
}

// NewPublisher creates a Publisher. A nil presenter falls back to the
// no-op presenter.
func NewPublisher(bus *Bus, presenter tray.Presenter, logger *logging.Logger) *Publisher {
	if presenter == nil {
		presenter = tray.NopPresenter{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		bus:       bus,
		presenter: presenter,
		logger:    logger.WithComponent("publisher"),
	}
}

// Bus exposes the underlying bus for subscribers.
func (p *Publisher) Bus() *Bus {
	return p.bus
}

// SnapshotUpdated pushes the snapshot and the tray model derived from it.
// The snapshot must already be a caller-owned copy.
func (p *Publisher) SnapshotUpdated(snapshot *core.Snapshot) {
	if snapshot == nil {
		return
	}
	p.bus.Publish(NewSnapshotEvent(snapshot))

	model := tray.BuildModel(snapshot)
	p.bus.Publish(NewTrayEvent(model))
	p.presenter.Present(model)
}

// Notify pushes an alert event.
func (p *Publisher) Notify(payload notify.Payload) {
	p.logger.Debug("notification published",
		"task_id", payload.TaskID,
		"state", payload.State,
		"method", payload.DetectionMethod)
	p.bus.Publish(NewNotificationEvent(payload))
}

// Close shuts down the underlying bus.
func (p *Publisher) Close() {
	p.bus.Close()
}
