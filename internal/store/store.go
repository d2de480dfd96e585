// Package store holds the authoritative in-memory snapshot and coordinates
// persistence and UI push around every mutation. One exclusive mutex guards
// the whole snapshot; the lock is released before disk writes and event
// fan-out so slow consumers never stall request handling.
package store

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tallr-app/tallr/internal/core"
	"github.com/tallr-app/tallr/internal/logging"
	"github.com/tallr-app/tallr/internal/notify"
)

// Persister saves and loads snapshots.
type Persister interface {
	Save(snapshot *core.Snapshot) error
	Load() (*core.Snapshot, error)
}

// Pusher receives the post-mutation snapshot for fan-out to UI channels.
type Pusher interface {
	SnapshotUpdated(snapshot *core.Snapshot)
}

// errNoChange aborts a mutation without persisting or pushing.
var errNoChange = errors.New("no change")

// Store is the single owner of the live snapshot.
type Store struct {
	mu   sync.Mutex
	snap *core.Snapshot

	persister Persister
	pusher    Pusher
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string

	traceKeys *lru.Cache[string, struct{}]
}

// Option configures a Store.
type Option func(*Store)

// WithPusher sets the post-mutation snapshot consumer.
func WithPusher(p Pusher) Option {
	return func(s *Store) { s.pusher = p }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithNowFunc overrides the clock. Intended for tests.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// New creates a Store with an empty snapshot. Call Load to hydrate it from
// the persister.
func New(persister Persister, opts ...Option) *Store {
	s := &Store{
		snap:      core.NewSnapshot(),
		persister: persister,
		logger:    logging.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("store")

	keys, _ := lru.NewWithEvict[string, struct{}](maxTraces, func(taskID string, _ struct{}) {
		delete(s.snap.Debug, taskID)
	})
	s.traceKeys = keys
	return s
}

// Load replaces the snapshot with the persisted one. A failed load is
// logged and leaves the store empty; it never prevents startup.
func (s *Store) Load() {
	snap, err := s.persister.Load()
	if err != nil {
		s.logger.Warn("failed to load persisted state, starting empty", "error", err)
		snap = core.NewSnapshot()
	}
	snap.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.traceKeys.Purge()
	s.snap = snap
	s.reindexTraces()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// ProjectInput is the project half of an upsert.
type ProjectInput struct {
	Name         string  `json:"name"`
	RepoPath     string  `json:"repo_path"`
	PreferredIDE *string `json:"preferred_ide,omitempty"`
	GithubURL    *string `json:"github_url,omitempty"`
}

// TaskInput is the task half of an upsert.
type TaskInput struct {
	ID      string         `json:"id"`
	Agent   string         `json:"agent"`
	Title   string         `json:"title"`
	State   core.TaskState `json:"state"`
	Details *string        `json:"details,omitempty"`
}

// Upsert creates or replaces a task, creating its project on first sight of
// the repository path. A re-upserted task keeps its pinned flag and
// created_at; detection metadata resets until the next state report.
func (s *Store) Upsert(project ProjectInput, task TaskInput) (projectID, taskID string, err error) {
	repoPath := filepath.Clean(project.RepoPath)

	err = s.mutate(func(snap *core.Snapshot, now int64) error {
		for id, p := range snap.Projects {
			if p.RepoPath == repoPath {
				projectID = id
				break
			}
		}
		if projectID == "" {
			projectID = s.newID()
			preferredIDE := ""
			if project.PreferredIDE != nil {
				preferredIDE = *project.PreferredIDE
			}
			snap.Projects[projectID] = &core.Project{
				ID:           projectID,
				Name:         project.Name,
				RepoPath:     repoPath,
				PreferredIDE: preferredIDE,
				GithubURL:    cloneString(project.GithubURL),
				CreatedAt:    now,
				UpdatedAt:    now,
			}
		} else {
			snap.Projects[projectID].UpdatedAt = now
		}

		taskID = task.ID
		if taskID == "" {
			taskID = s.newID()
		}
		pinned := false
		createdAt := now
		if existing, ok := snap.Tasks[taskID]; ok {
			pinned = existing.Pinned
			createdAt = existing.CreatedAt
		}
		snap.Tasks[taskID] = &core.Task{
			ID:        taskID,
			ProjectID: projectID,
			Agent:     task.Agent,
			Title:     task.Title,
			State:     task.State,
			Details:   cloneString(task.Details),
			Pinned:    pinned,
			CreatedAt: createdAt,
			UpdatedAt: now,
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return projectID, taskID, nil
}

// UpdateState sets a task's state, details, and detection method. Stale
// confidence and contexts from earlier enhanced reports are dropped; a
// plain report supersedes them.
func (s *Store) UpdateState(taskID string, state core.TaskState, details *string, method string) (*core.Task, *core.Project, error) {
	var taskCopy *core.Task
	var projectCopy *core.Project

	err := s.mutate(func(snap *core.Snapshot, now int64) error {
		task, ok := snap.Tasks[taskID]
		if !ok {
			return core.ErrTaskNotFound(taskID)
		}
		task.State = state
		task.Details = cloneString(details)
		task.DetectionMethod = method
		task.Confidence = nil
		task.NetworkContext = nil
		task.SessionContext = nil
		task.UpdatedAt = now

		taskCopy = task.Clone()
		projectCopy = snap.Projects[task.ProjectID].Clone()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return taskCopy, projectCopy, nil
}

// UpdateStateWithContext sets a task's state from a confidence-scored
// detection, replacing its details with a generated summary and recording
// the structured context.
func (s *Store) UpdateStateWithContext(taskID string, state core.TaskState, ectx *core.EnhancedContext) (*core.Task, *core.Project, error) {
	var taskCopy *core.Task
	var projectCopy *core.Project

	err := s.mutate(func(snap *core.Snapshot, now int64) error {
		task, ok := snap.Tasks[taskID]
		if !ok {
			return core.ErrTaskNotFound(taskID)
		}
		task.State = state
		task.DetectionMethod = ectx.DetectionMethod
		confidence := ectx.Confidence
		task.Confidence = &confidence
		task.NetworkContext = ectx.Network.Clone()
		task.SessionContext = ectx.Session.Clone()
		details := notify.EnhancedDetails(ectx)
		task.Details = &details
		task.UpdatedAt = now

		taskCopy = task.Clone()
		projectCopy = snap.Projects[task.ProjectID].Clone()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return taskCopy, projectCopy, nil
}

// UpdateDetails replaces a task's free-text details.
func (s *Store) UpdateDetails(taskID, details string) error {
	return s.mutate(func(snap *core.Snapshot, now int64) error {
		task, ok := snap.Tasks[taskID]
		if !ok {
			return core.ErrTaskNotFound(taskID)
		}
		task.Details = &details
		task.UpdatedAt = now
		return nil
	})
}

// MarkDone transitions a task to DONE, replacing its details with the
// caller's closing note, if any.
func (s *Store) MarkDone(taskID string, details *string) error {
	return s.mutate(func(snap *core.Snapshot, now int64) error {
		task, ok := snap.Tasks[taskID]
		if !ok {
			return core.ErrTaskNotFound(taskID)
		}
		task.State = core.StateDone
		task.Details = cloneString(details)
		task.UpdatedAt = now
		return nil
	})
}

// Delete removes a task. The owning project stays.
func (s *Store) Delete(taskID string) error {
	return s.mutate(func(snap *core.Snapshot, now int64) error {
		if _, ok := snap.Tasks[taskID]; !ok {
			return core.ErrTaskNotFound(taskID)
		}
		delete(snap.Tasks, taskID)
		return nil
	})
}

// SetPinned sets a task's pinned flag, which exempts it from the cleanup
// sweep.
func (s *Store) SetPinned(taskID string, pinned bool) error {
	return s.mutate(func(snap *core.Snapshot, now int64) error {
		task, ok := snap.Tasks[taskID]
		if !ok {
			return core.ErrTaskNotFound(taskID)
		}
		task.Pinned = pinned
		task.UpdatedAt = now
		return nil
	})
}

// HealthStatus is the liveness summary returned by Ping.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Tasks     int    `json:"tasks"`
	Projects  int    `json:"projects"`
}

// Ping records an external liveness probe and returns entity counts. The
// ping timestamp is persisted but not pushed to the UI.
func (s *Store) Ping() HealthStatus {
	var status HealthStatus

	_ = s.mutateQuiet(func(snap *core.Snapshot, now int64) error {
		snap.LastExternalPing = now
		status = HealthStatus{
			Status:    "ok",
			Timestamp: now,
			Tasks:     len(snap.Tasks),
			Projects:  len(snap.Projects),
		}
		return nil
	})
	return status
}

// RemoveExpired deletes unpinned DONE tasks older than doneGrace and, when
// removeIdle is set, unpinned IDLE tasks older than idleMax. Age is measured
// from updated_at. Returns the number of removed tasks; when nothing
// qualifies the snapshot is left untouched.
func (s *Store) RemoveExpired(doneGrace, idleMax time.Duration, removeIdle bool) int {
	removed := 0

	err := s.mutate(func(snap *core.Snapshot, now int64) error {
		for id, task := range snap.Tasks {
			if task.Pinned {
				continue
			}
			age := now - task.UpdatedAt
			switch {
			case task.State.IsDone() && age > int64(doneGrace.Seconds()):
				delete(snap.Tasks, id)
				removed++
			case removeIdle && task.State.IsIdle() && age > int64(idleMax.Seconds()):
				delete(snap.Tasks, id)
				removed++
			}
		}
		if removed == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		s.logger.Error("cleanup sweep failed", "error", err)
	}
	if removed > 0 {
		s.logger.Info("cleanup sweep removed tasks", "removed", removed)
	}
	return removed
}

// mutate runs fn under the lock, then persists and pushes the resulting
// snapshot outside it. fn returning an error abandons both.
func (s *Store) mutate(fn func(snap *core.Snapshot, now int64) error) error {
	clone, err := s.apply(fn)
	if err != nil {
		return err
	}
	s.persist(clone)
	if s.pusher != nil {
		s.pusher.SnapshotUpdated(clone)
	}
	return nil
}

// mutateQuiet is mutate without the UI push. Used for bookkeeping writes
// that carry no user-visible state change.
func (s *Store) mutateQuiet(fn func(snap *core.Snapshot, now int64) error) error {
	clone, err := s.apply(fn)
	if err != nil {
		return err
	}
	s.persist(clone)
	return nil
}

func (s *Store) apply(fn func(snap *core.Snapshot, now int64) error) (*core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Snapshot updated_at never goes backwards, even if the wall clock does.
	now := max(s.now().Unix(), s.snap.UpdatedAt)
	if err := fn(s.snap, now); err != nil {
		return nil, err
	}
	s.snap.UpdatedAt = now
	return s.snap.Clone(), nil
}

// persist is fire-and-forget: a failed write is logged and the in-memory
// state stays authoritative.
func (s *Store) persist(clone *core.Snapshot) {
	if err := s.persister.Save(clone); err != nil {
		s.logger.Error("failed to persist state", "error", err)
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
