package events

import (
	"testing"
	"time"

	"github.com/tallr-app/tallr/internal/core"
	"github.com/tallr-app/tallr/internal/notify"
	"github.com/tallr-app/tallr/internal/tray"
)

type capturePresenter struct {
	models []tray.Model
}

func (c *capturePresenter) Present(m tray.Model) {
	c.models = append(c.models, m)
}

func TestPublisher_SnapshotUpdated(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()
	presenter := &capturePresenter{}
	pub := NewPublisher(bus, presenter, nil)

	ch := bus.Subscribe()

	snap := core.NewSnapshot()
	snap.Tasks["t1"] = &core.Task{
		ID:        "t1",
		ProjectID: "p1",
		Agent:     "claude",
		State:     core.StateWorking,
	}
	pub.SnapshotUpdated(snap)

	var types []string
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			types = append(types, e.EventType())
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for events")
		}
	}
	if types[0] != TypeSnapshot || types[1] != TypeTray {
		t.Errorf("event order = %v", types)
	}

	if len(presenter.models) != 1 {
		t.Fatalf("presenter calls = %d", len(presenter.models))
	}
	if presenter.models[0].Aggregate != "WORKING" {
		t.Errorf("tray aggregate = %s", presenter.models[0].Aggregate)
	}
}

func TestPublisher_SnapshotUpdatedNil(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()
	pub := NewPublisher(bus, nil, nil)

	ch := bus.Subscribe()
	pub.SnapshotUpdated(nil)

	select {
	case e := <-ch:
		t.Errorf("unexpected event %s for nil snapshot", e.EventType())
	default:
	}
}

func TestPublisher_Notify(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()
	pub := NewPublisher(bus, nil, nil)

	ch := bus.Subscribe(TypeNotification)
	pub.Notify(notify.Payload{Title: "widgets - claude", Body: "PENDING", TaskID: "t1", State: "PENDING"})

	select {
	case e := <-ch:
		ne, ok := e.(NotificationEvent)
		if !ok {
			t.Fatalf("event type = %T", e)
		}
		if ne.Notification.Title != "widgets - claude" {
			t.Errorf("title = %q", ne.Notification.Title)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for notification")
	}
}
