package auth

import (
	"net/http"
	"strings"
)

// ExtractToken pulls the presented credential from a request. It checks the
// Authorization header for a bearer token first, then the token query
// parameter, which exists because EventSource clients cannot set headers.
func ExtractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// Middleware rejects requests that do not carry a valid credential. It runs
// before any state is touched.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Validate(ExtractToken(r)) {
			g.logger.Warn("unauthorized request",
				"path", r.URL.Path,
				"remote", r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
