package api

import (
	"encoding/json"
	"net/http"

	"github.com/tallr-app/tallr/internal/core"
	"github.com/tallr-app/tallr/internal/notify"
	"github.com/tallr-app/tallr/internal/store"
)

// UpsertRequest registers a task and its project in one call.
type UpsertRequest struct {
	Project ProjectPayload `json:"project"`
	Task    TaskPayload    `json:"task"`
}

// ProjectPayload is the project half of an upsert.
type ProjectPayload struct {
	Name         string  `json:"name"`
	RepoPath     string  `json:"repo_path"`
	PreferredIDE *string `json:"preferred_ide"`
	GithubURL    *string `json:"github_url"`
}

// TaskPayload is the task half of an upsert.
type TaskPayload struct {
	ID      string  `json:"id"`
	Agent   string  `json:"agent"`
	Title   string  `json:"title"`
	State   string  `json:"state"`
	Details *string `json:"details"`
	Source  string  `json:"source"`
}

// UpsertResponse returns the ids the caller should use from now on.
type UpsertResponse struct {
	ProjectID string `json:"project_id"`
	TaskID    string `json:"task_id"`
}

// StateUpdateRequest is a plain state report from a wrapper or hook.
type StateUpdateRequest struct {
	TaskID          string  `json:"task_id"`
	State           string  `json:"state"`
	Details         *string `json:"details"`
	DetectionMethod string  `json:"detection_method"`
	Source          string  `json:"source"`
}

// EnhancedStateUpdateRequest is a state report with detection context.
type EnhancedStateUpdateRequest struct {
	TaskID  string               `json:"task_id"`
	State   string               `json:"state"`
	Context core.EnhancedContext `json:"context"`
	Source  string               `json:"source"`
}

// DetailsUpdateRequest replaces a task's details text.
type DetailsUpdateRequest struct {
	TaskID  string `json:"task_id"`
	Details string `json:"details"`
}

// DoneRequest marks a task DONE.
type DoneRequest struct {
	TaskID  string  `json:"task_id"`
	Details *string `json:"details"`
	Source  string  `json:"source"`
}

// DeleteRequest removes a task.
type DeleteRequest struct {
	TaskID string `json:"task_id"`
}

// PinRequest sets a task's pinned flag.
type PinRequest struct {
	TaskID string `json:"task_id"`
	Pinned bool   `json:"pinned"`
}

var okResponse = map[string]string{"status": "ok"}

// decodeJSON parses a request body, wrapping malformed input as a
// validation error.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return core.ErrValidation(core.CodeInvalidPayload, "invalid request body").WithCause(err)
	}
	return nil
}

// displayNames resolves the names shown in notifications. A task whose
// project vanished is reported as Unknown rather than dropped.
func displayNames(task *core.Task, project *core.Project) (projectName, agent string) {
	if project == nil {
		return "Unknown", "Unknown"
	}
	return project.Name, task.Agent
}

// handleUpsert creates or updates a project+task pair.
func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondDomainError(w, err)
		return
	}
	if req.Project.RepoPath == "" {
		s.respondDomainError(w, core.ErrValidation(core.CodeMissingRepoPath, "project repo_path is required"))
		return
	}

	state := core.ParseTaskState(req.Task.State)
	projectID, taskID, err := s.store.Upsert(
		store.ProjectInput{
			Name:         req.Project.Name,
			RepoPath:     req.Project.RepoPath,
			PreferredIDE: req.Project.PreferredIDE,
			GithubURL:    req.Project.GithubURL,
		},
		store.TaskInput{
			ID:      req.Task.ID,
			Agent:   req.Task.Agent,
			Title:   req.Task.Title,
			State:   state,
			Details: req.Task.Details,
		},
	)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.logger.Info("task upserted",
		"task_id", taskID,
		"project", req.Project.Name,
		"state", state.String())

	if notify.ShouldNotify(state, "", nil) {
		s.publisher.Notify(notify.BuildBasic(req.Project.Name, req.Task.Agent, state, taskID))
	}

	s.respondJSON(w, http.StatusOK, UpsertResponse{ProjectID: projectID, TaskID: taskID})
}

// handleUpdateState applies a plain state report.
func (s *Server) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	var req StateUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondDomainError(w, err)
		return
	}
	if req.TaskID == "" {
		s.respondDomainError(w, core.ErrValidation(core.CodeMissingTaskID, "task_id is required"))
		return
	}
	if req.State == "" {
		s.respondDomainError(w, core.ErrValidation(core.CodeMissingState, "state is required"))
		return
	}

	state := core.ParseTaskState(req.State)
	method := notify.DeriveMethod(req.Source, req.DetectionMethod)

	task, project, err := s.store.UpdateState(req.TaskID, state, req.Details, method)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.logger.Info("state updated",
		"task_id", req.TaskID,
		"state", state.String(),
		"method", method)

	if notify.ShouldNotify(state, method, nil) {
		projectName, agent := displayNames(task, project)
		s.publisher.Notify(notify.BuildBasic(projectName, agent, state, task.ID))
	}

	s.respondJSON(w, http.StatusOK, okResponse)
}

// handleUpdateStateEnhanced applies a state report with detection context.
// Notification goes through the per-method confidence thresholds.
func (s *Server) handleUpdateStateEnhanced(w http.ResponseWriter, r *http.Request) {
	var req EnhancedStateUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondDomainError(w, err)
		return
	}
	if req.TaskID == "" {
		s.respondDomainError(w, core.ErrValidation(core.CodeMissingTaskID, "task_id is required"))
		return
	}
	if req.State == "" {
		s.respondDomainError(w, core.ErrValidation(core.CodeMissingState, "state is required"))
		return
	}

	state := core.ParseTaskState(req.State)
	ectx := req.Context

	task, project, err := s.store.UpdateStateWithContext(req.TaskID, state, &ectx)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.logger.Info("enhanced state update",
		"task_id", req.TaskID,
		"state", state.String(),
		"method", ectx.DetectionMethod,
		"confidence", ectx.Confidence)

	confidence := ectx.Confidence
	if notify.ShouldNotify(state, ectx.DetectionMethod, &confidence) {
		projectName, agent := displayNames(task, project)
		s.publisher.Notify(notify.BuildEnhanced(projectName, agent, state, &ectx, task.ID, s.debug))
	}

	s.respondJSON(w, http.StatusOK, okResponse)
}

// handleUpdateDetails replaces a task's details text.
func (s *Server) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req DetailsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondDomainError(w, err)
		return
	}
	if req.TaskID == "" {
		s.respondDomainError(w, core.ErrValidation(core.CodeMissingTaskID, "task_id is required"))
		return
	}

	if err := s.store.UpdateDetails(req.TaskID, req.Details); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, okResponse)
}

// handleMarkDone marks a task DONE.
func (s *Server) handleMarkDone(w http.ResponseWriter, r *http.Request) {
	var req DoneRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondDomainError(w, err)
		return
	}
	if req.TaskID == "" {
		s.respondDomainError(w, core.ErrValidation(core.CodeMissingTaskID, "task_id is required"))
		return
	}

	if err := s.store.MarkDone(req.TaskID, req.Details); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.logger.Info("task done", "task_id", req.TaskID)
	s.respondJSON(w, http.StatusOK, okResponse)
}

// handleDelete removes a task.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondDomainError(w, err)
		return
	}
	if req.TaskID == "" {
		s.respondDomainError(w, core.ErrValidation(core.CodeMissingTaskID, "task_id is required"))
		return
	}

	if err := s.store.Delete(req.TaskID); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.logger.Info("task deleted", "task_id", req.TaskID)
	s.respondJSON(w, http.StatusOK, okResponse)
}

// handlePin sets a task's pinned flag.
func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	var req PinRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondDomainError(w, err)
		return
	}
	if req.TaskID == "" {
		s.respondDomainError(w, core.ErrValidation(core.CodeMissingTaskID, "task_id is required"))
		return
	}

	if err := s.store.SetPinned(req.TaskID, req.Pinned); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, okResponse)
}
