package api

import (
	"net/http"
	"testing"

	"github.com/tallr-app/tallr/internal/core"
	"github.com/tallr-app/tallr/internal/events"
)

func upsertBody(taskID, repoPath, state string) UpsertRequest {
	return UpsertRequest{
		Project: ProjectPayload{Name: "widgets", RepoPath: repoPath},
		Task:    TaskPayload{ID: taskID, Agent: "claude", Title: "session", State: state},
	}
}

// drainNotifications collects buffered notification events without blocking.
func drainNotifications(ch <-chan events.Event) []events.NotificationEvent {
	var out []events.NotificationEvent
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			if ne, isNotif := ev.(events.NotificationEvent); isNotif {
				out = append(out, ne)
			}
		default:
			return out
		}
	}
}

func TestUpsertCreatesProjectAndTask(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t1", "/home/dev/widgets", "WORKING"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	resp := decodeBody[UpsertResponse](t, w)
	if resp.TaskID != "t1" {
		t.Errorf("task_id = %q, want %q", resp.TaskID, "t1")
	}
	if resp.ProjectID == "" {
		t.Errorf("project_id is empty")
	}

	snap := decodeBody[core.Snapshot](t, env.do(t, http.MethodGet, "/state", nil))
	task, ok := snap.Tasks["t1"]
	if !ok {
		t.Fatalf("task t1 missing from snapshot")
	}
	if task.ProjectID != resp.ProjectID {
		t.Errorf("task.project_id = %q, want %q", task.ProjectID, resp.ProjectID)
	}
	if !task.State.IsWorking() {
		t.Errorf("task.state = %q, want WORKING", task.State)
	}
	project, ok := snap.Projects[resp.ProjectID]
	if !ok {
		t.Fatalf("project %s missing from snapshot", resp.ProjectID)
	}
	if project.RepoPath != "/home/dev/widgets" {
		t.Errorf("project.repo_path = %q, want %q", project.RepoPath, "/home/dev/widgets")
	}
}

func TestUpsertReusesProjectByRepoPath(t *testing.T) {
	env := newTestEnv(t)

	first := decodeBody[UpsertResponse](t,
		env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t1", "/home/dev/widgets", "WORKING")))
	second := decodeBody[UpsertResponse](t,
		env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t2", "/home/dev/widgets", "IDLE")))

	if first.ProjectID != second.ProjectID {
		t.Errorf("project ids differ: %q vs %q", first.ProjectID, second.ProjectID)
	}

	snap := decodeBody[core.Snapshot](t, env.do(t, http.MethodGet, "/state", nil))
	if len(snap.Projects) != 1 {
		t.Errorf("projects = %d, want 1", len(snap.Projects))
	}
	if len(snap.Tasks) != 2 {
		t.Errorf("tasks = %d, want 2", len(snap.Tasks))
	}
}

func TestUpsertMissingRepoPath(t *testing.T) {
	env := newTestEnv(t)

	body := upsertBody("t1", "", "WORKING")
	w := env.do(t, http.MethodPost, "/tasks/upsert", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUpsertNotifiesOnPending(t *testing.T) {
	env := newTestEnv(t)
	ch := env.bus.Subscribe(events.TypeNotification)
	defer env.bus.Unsubscribe(ch)

	env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t1", "/home/dev/widgets", "PENDING"))

	got := drainNotifications(ch)
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	n := got[0].Notification
	if n.Title != "widgets - claude" {
		t.Errorf("title = %q, want %q", n.Title, "widgets - claude")
	}
	if n.Body != "PENDING" {
		t.Errorf("body = %q, want %q", n.Body, "PENDING")
	}
	if n.TaskID != "t1" {
		t.Errorf("task_id = %q, want %q", n.TaskID, "t1")
	}
	if n.Project != "widgets" {
		t.Errorf("project = %q, want %q", n.Project, "widgets")
	}
}

func TestUpsertSilentOnWorking(t *testing.T) {
	env := newTestEnv(t)
	ch := env.bus.Subscribe(events.TypeNotification)
	defer env.bus.Unsubscribe(ch)

	env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t1", "/home/dev/widgets", "WORKING"))

	if got := drainNotifications(ch); len(got) != 0 {
		t.Errorf("notifications = %d, want 0 for WORKING", len(got))
	}
}

func TestUpdateState(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t1", "/home/dev/widgets", "IDLE"))

	details := "waiting on approval"
	w := env.do(t, http.MethodPost, "/tasks/state", StateUpdateRequest{
		TaskID:  "t1",
		State:   "WORKING",
		Details: &details,
		Source:  "wrapper",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	snap := decodeBody[core.Snapshot](t, env.do(t, http.MethodGet, "/state", nil))
	task := snap.Tasks["t1"]
	if task == nil {
		t.Fatalf("task t1 missing")
	}
	if !task.State.IsWorking() {
		t.Errorf("state = %q, want WORKING", task.State)
	}
	if task.Details == nil || *task.Details != details {
		t.Errorf("details = %v, want %q", task.Details, details)
	}
	if task.DetectionMethod != "patterns" {
		t.Errorf("detection_method = %q, want %q for wrapper source", task.DetectionMethod, "patterns")
	}
}

func TestUpdateStateUnknownTask(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/tasks/state", StateUpdateRequest{TaskID: "ghost", State: "WORKING"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestUpdateStateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  StateUpdateRequest
	}{
		{"missing task_id", StateUpdateRequest{State: "WORKING"}},
		{"missing state", StateUpdateRequest{TaskID: "t1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/tasks/state", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestUpdateStatePendingNotifies(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t1", "/home/dev/widgets", "WORKING"))

	ch := env.bus.Subscribe(events.TypeNotification)
	defer env.bus.Unsubscribe(ch)

	env.do(t, http.MethodPost, "/tasks/state", StateUpdateRequest{TaskID: "t1", State: "PENDING", Source: "hook"})

	got := drainNotifications(ch)
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	if got[0].Notification.Title != "widgets - claude" {
		t.Errorf("title = %q, want %q", got[0].Notification.Title, "widgets - claude")
	}
}

func TestUpdateStateEnhanced(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t1", "/home/dev/widgets", "WORKING"))

	ch := env.bus.Subscribe(events.TypeNotification)
	defer env.bus.Unsubscribe(ch)

	w := env.do(t, http.MethodPost, "/tasks/state-enhanced", EnhancedStateUpdateRequest{
		TaskID: "t1",
		State:  "PENDING",
		Context: core.EnhancedContext{
			DetectionMethod: "network",
			Confidence:      0.95,
			Network: &core.NetworkContext{
				ActiveRequests:   1,
				ThinkingDuration: 4000,
			},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	snap := decodeBody[core.Snapshot](t, env.do(t, http.MethodGet, "/state", nil))
	task := snap.Tasks["t1"]
	if task == nil {
		t.Fatalf("task t1 missing")
	}
	if task.Confidence == nil || *task.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", task.Confidence)
	}
	if task.DetectionMethod != "network" {
		t.Errorf("detection_method = %q, want %q", task.DetectionMethod, "network")
	}
	if task.NetworkContext == nil || task.NetworkContext.ThinkingDuration != 4000 {
		t.Errorf("network context not stored: %+v", task.NetworkContext)
	}
	if task.Details == nil || *task.Details == "" {
		t.Errorf("details not generated from context")
	}

	got := drainNotifications(ch)
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1 at confidence 0.95", len(got))
	}
	if got[0].Notification.DetectionMethod != "network" {
		t.Errorf("notification detection_method = %q, want %q", got[0].Notification.DetectionMethod, "network")
	}
	if got[0].Notification.Body != "PENDING (after 4s thinking)" {
		t.Errorf("body = %q, want thinking suffix", got[0].Notification.Body)
	}
}

func TestUpdateStateEnhancedBelowThreshold(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t1", "/home/dev/widgets", "WORKING"))

	ch := env.bus.Subscribe(events.TypeNotification)
	defer env.bus.Unsubscribe(ch)

	w := env.do(t, http.MethodPost, "/tasks/state-enhanced", EnhancedStateUpdateRequest{
		TaskID: "t1",
		State:  "PENDING",
		Context: core.EnhancedContext{
			DetectionMethod: "network",
			Confidence:      0.50,
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	if got := drainNotifications(ch); len(got) != 0 {
		t.Errorf("notifications = %d, want 0 below threshold", len(got))
	}

	// The state change itself still lands.
	snap := decodeBody[core.Snapshot](t, env.do(t, http.MethodGet, "/state", nil))
	if task := snap.Tasks["t1"]; task == nil || !task.State.IsPending() {
		t.Errorf("state change suppressed along with notification")
	}
}

func TestDetailsDoneDeleteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t1", "/home/dev/widgets", "WORKING"))

	w := env.do(t, http.MethodPost, "/tasks/details", DetailsUpdateRequest{TaskID: "t1", Details: "compiling"})
	if w.Code != http.StatusOK {
		t.Fatalf("details: status = %d, want %d", w.Code, http.StatusOK)
	}

	snap := decodeBody[core.Snapshot](t, env.do(t, http.MethodGet, "/state", nil))
	if task := snap.Tasks["t1"]; task.Details == nil || *task.Details != "compiling" {
		t.Errorf("details = %v, want %q", task.Details, "compiling")
	}

	w = env.do(t, http.MethodPost, "/tasks/done", DoneRequest{TaskID: "t1"})
	if w.Code != http.StatusOK {
		t.Fatalf("done: status = %d, want %d", w.Code, http.StatusOK)
	}

	snap = decodeBody[core.Snapshot](t, env.do(t, http.MethodGet, "/state", nil))
	if task := snap.Tasks["t1"]; !task.State.IsDone() {
		t.Errorf("state = %q, want DONE", task.State)
	}

	w = env.do(t, http.MethodPost, "/tasks/delete", DeleteRequest{TaskID: "t1"})
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, want %d", w.Code, http.StatusOK)
	}

	snap = decodeBody[core.Snapshot](t, env.do(t, http.MethodGet, "/state", nil))
	if _, ok := snap.Tasks["t1"]; ok {
		t.Errorf("task t1 still present after delete")
	}
}

func TestPin(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/tasks/upsert", upsertBody("t1", "/home/dev/widgets", "WORKING"))

	w := env.do(t, http.MethodPost, "/tasks/pin", PinRequest{TaskID: "t1", Pinned: true})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	snap := decodeBody[core.Snapshot](t, env.do(t, http.MethodGet, "/state", nil))
	if task := snap.Tasks["t1"]; !task.Pinned {
		t.Errorf("pinned = false, want true")
	}
}

func TestMutationsOnUnknownTask(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"details", "/tasks/details", DetailsUpdateRequest{TaskID: "ghost", Details: "x"}},
		{"done", "/tasks/done", DoneRequest{TaskID: "ghost"}},
		{"delete", "/tasks/delete", DeleteRequest{TaskID: "ghost"}},
		{"pin", "/tasks/pin", PinRequest{TaskID: "ghost", Pinned: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body)
			if w.Code != http.StatusNotFound {
				t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/tasks/state", "not an object")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
