package api

import (
	"errors"
	"net/http"

	"github.com/tallr-app/tallr/internal/core"
)

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatAuth:
		return http.StatusUnauthorized, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatValidation:
		return http.StatusBadRequest, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondDomainError maps a domain error onto an HTTP status. Unexpected
// errors are logged before the generic 500 goes out.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}

	var domErr *core.DomainError
	if errors.As(err, &domErr) && status != http.StatusInternalServerError {
		s.respondError(w, status, domErr.Message)
		return
	}
	s.respondError(w, status, "internal error")
}
