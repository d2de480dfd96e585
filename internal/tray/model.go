// Package tray derives the tray indicator content from a snapshot. It is
// pure data: rendering belongs to the embedding desktop shell, which
// consumes the model over the event stream or a Presenter.
package tray

import (
	"fmt"
	"sort"

	"github.com/tallr-app/tallr/internal/core"
)

// Entry is one session row in the tray menu.
type Entry struct {
	TaskID string `json:"task_id"`
	Label  string `json:"label"`
	State  string `json:"state"`
}

// Model is the fully derived tray content for one snapshot.
type Model struct {
	Aggregate string  `json:"aggregate"`
	Icon      string  `json:"icon"`
	Entries   []Entry `json:"entries"`
	Empty     bool    `json:"empty"`
}

// Placeholder is the row shown when no active sessions exist.
const Placeholder = "No active sessions"

// BuildModel derives the tray model: one row per non-DONE task, newest
// last, and an icon keyed by the aggregate state. Ordering is deterministic
// so successive menus do not shuffle.
func BuildModel(snap *core.Snapshot) Model {
	aggregate := core.AggregateState(snap.Tasks)

	var active []*core.Task
	for _, t := range snap.Tasks {
		if t.State.IsDone() {
			continue
		}
		active = append(active, t)
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].CreatedAt != active[j].CreatedAt {
			return active[i].CreatedAt < active[j].CreatedAt
		}
		return active[i].ID < active[j].ID
	})

	entries := make([]Entry, 0, len(active))
	for _, t := range active {
		name := t.ProjectID
		if p, ok := snap.Projects[t.ProjectID]; ok {
			name = p.Name
		}
		entries = append(entries, Entry{
			TaskID: t.ID,
			Label:  fmt.Sprintf("%s %s - %s - %s", glyphFor(t.State), name, t.Agent, t.State),
			State:  t.State.String(),
		})
	}

	return Model{
		Aggregate: aggregate.String(),
		Icon:      IconFor(aggregate),
		Entries:   entries,
		Empty:     len(entries) == 0,
	}
}

// glyphFor maps a task state to its menu glyph.
func glyphFor(state core.TaskState) string {
	switch {
	case state.IsPending():
		return "🟡"
	case state.IsWorking():
		return "🔵"
	case state.IsError():
		return "🔴"
	case state.IsIdle():
		return "⚫"
	default:
		return "⚪"
	}
}

// IconFor maps the aggregate state to an icon asset key. Only PENDING,
// WORKING and ERROR have dedicated icons; everything else uses the default.
func IconFor(aggregate core.TaskState) string {
	switch {
	case aggregate.IsPending():
		return "pending"
	case aggregate.IsWorking():
		return "working"
	case aggregate.IsError():
		return "error"
	default:
		return "default"
	}
}

// Presenter renders a tray model. The desktop shell supplies the real
// implementation; the daemon only computes models.
type Presenter interface {
	Present(Model)
}

// NopPresenter discards models. Used when no shell is attached.
type NopPresenter struct{}

// Present implements Presenter.
func (NopPresenter) Present(Model) {}
