package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tallr-app/tallr/internal/core"
)

// DebugUpdateRequest replaces a task's diagnostic trace wholesale.
type DebugUpdateRequest struct {
	DebugData core.DebugTrace `json:"debug_data"`
}

// handleDebugLatest returns the most recently updated trace.
func (s *Server) handleDebugLatest(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.store.LatestTrace())
}

// handleDebugForTask returns one task's trace.
func (s *Server) handleDebugForTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	s.respondJSON(w, http.StatusOK, s.store.TraceFor(taskID))
}

// handleDebugUpdate stores a trace reported by a wrapper.
func (s *Server) handleDebugUpdate(w http.ResponseWriter, r *http.Request) {
	var req DebugUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondDomainError(w, err)
		return
	}

	if err := s.store.UpdateTrace(&req.DebugData); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, okResponse)
}
