// Package auth implements the bearer-token gate for the loopback API.
// The shared secret is resolved lazily: environment override first, then the
// token file, then a freshly generated secret persisted for future runs.
// Resolution failure always fails closed.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tallr-app/tallr/internal/core"
	"github.com/tallr-app/tallr/internal/logging"
)

const (
	// EnvToken is the environment override for the shared secret. It takes
	// precedence over the token file.
	EnvToken = "TALLR_TOKEN"

	// TokenFileName is the secret file kept in the data directory.
	TokenFileName = "auth.token"

	tokenBytes = 32
)

// Gate validates bearer credentials against the shared secret.
type Gate struct {
	tokenPath string
	logger    *logging.Logger
	onResolve func(token string)

	mu     sync.RWMutex
	cached string
}

// Option configures the gate.
type Option func(*Gate)

// WithResolveHook registers a callback invoked once the secret is resolved.
// The server uses it to feed the token into the log sanitizer.
func WithResolveHook(fn func(token string)) Option {
	return func(g *Gate) {
		g.onResolve = fn
	}
}

// NewGate creates a gate backed by the token file at tokenPath.
func NewGate(tokenPath string, logger *logging.Logger, opts ...Option) *Gate {
	if logger == nil {
		logger = logging.NewNop()
	}
	g := &Gate{
		tokenPath: tokenPath,
		logger:    logger.WithComponent("auth"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Token returns the shared secret, resolving and caching it on first use.
func (g *Gate) Token() (string, error) {
	g.mu.RLock()
	tok := g.cached
	g.mu.RUnlock()
	if tok != "" {
		return tok, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cached != "" {
		return g.cached, nil
	}

	tok, err := g.resolve()
	if err != nil {
		return "", err
	}
	g.cached = tok
	if g.onResolve != nil {
		g.onResolve(tok)
	}
	return tok, nil
}

// resolve walks the resolution chain. Callers hold the write lock.
func (g *Gate) resolve() (string, error) {
	if tok := os.Getenv(EnvToken); tok != "" {
		g.logger.Debug("using token from environment")
		return tok, nil
	}

	data, err := os.ReadFile(g.tokenPath)
	switch {
	case err == nil:
		if tok := strings.TrimSpace(string(data)); tok != "" {
			g.logger.Debug("loaded token from file", "path", g.tokenPath)
			return tok, nil
		}
		// Empty file: fall through and regenerate.
	case !os.IsNotExist(err):
		return "", core.ErrIO(core.CodeTokenUnavailable, "reading token file").WithCause(err)
	}

	return g.generate()
}

// generate creates a new random secret and persists it with owner-only
// permissions.
func (g *Gate) generate() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", core.ErrIO(core.CodeTokenUnavailable, "generating token").WithCause(err)
	}
	tok := hex.EncodeToString(raw)

	if err := os.MkdirAll(filepath.Dir(g.tokenPath), 0o755); err != nil {
		return "", core.ErrIO(core.CodeTokenUnavailable, "creating token directory").WithCause(err)
	}
	if err := os.WriteFile(g.tokenPath, []byte(tok), 0o600); err != nil {
		return "", core.ErrIO(core.CodeTokenUnavailable, "writing token file").WithCause(err)
	}

	g.logger.Info("generated new auth token", "path", g.tokenPath)
	return tok, nil
}

// Validate reports whether the presented credential matches the shared
// secret. The comparison is constant-time in the length of the expected
// token: lengths are compared first, then every byte pair unconditionally.
// Any failure to resolve the secret fails closed.
func (g *Gate) Validate(candidate string) bool {
	expected, err := g.Token()
	if err != nil {
		g.logger.Error("token resolution failed, rejecting request", "error", err.Error())
		return false
	}
	if len(candidate) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(expected)) == 1
}

// Invalidate drops the cached secret so the next request re-resolves it.
// The token file watcher calls this when the file changes on disk.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	g.cached = ""
	g.mu.Unlock()
	g.logger.Debug("token cache invalidated")
}

// TokenPath returns the token file path.
func (g *Gate) TokenPath() string {
	return g.tokenPath
}
