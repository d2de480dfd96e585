package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tallr-app/tallr/internal/logging"
)

func newTestGate(t *testing.T, opts ...Option) *Gate {
	t.Helper()
	t.Setenv(EnvToken, "")
	return NewGate(filepath.Join(t.TempDir(), TokenFileName), logging.NewNop(), opts...)
}

func TestGate_GeneratesAndPersistsToken(t *testing.T) {
	g := newTestGate(t)

	tok, err := g.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if len(tok) != 64 {
		t.Fatalf("expected 64 hex chars, got %d: %q", len(tok), tok)
	}
	if strings.ToLower(tok) != tok {
		t.Fatalf("token should be lower-case hex: %q", tok)
	}

	info, err := os.Stat(g.TokenPath())
	if err != nil {
		t.Fatalf("token file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}

	// A second gate over the same file must resolve the same secret.
	g2 := NewGate(g.TokenPath(), logging.NewNop())
	tok2, err := g2.Token()
	if err != nil {
		t.Fatalf("token reload: %v", err)
	}
	if tok2 != tok {
		t.Fatalf("persisted token not reused: %q vs %q", tok, tok2)
	}
}

func TestGate_EnvOverrideWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, TokenFileName)
	if err := os.WriteFile(path, []byte("file-secret"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	t.Setenv(EnvToken, "env-secret")

	g := NewGate(path, logging.NewNop())
	tok, err := g.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tok != "env-secret" {
		t.Fatalf("env override ignored: %q", tok)
	}
}

func TestGate_FileTokenTrimmed(t *testing.T) {
	g := newTestGate(t)
	if err := os.WriteFile(g.TokenPath(), []byte("  file-secret\n"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	tok, err := g.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tok != "file-secret" {
		t.Fatalf("token not trimmed: %q", tok)
	}
}

func TestGate_EmptyFileRegenerates(t *testing.T) {
	g := newTestGate(t)
	if err := os.WriteFile(g.TokenPath(), []byte(" \n"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	tok, err := g.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if len(tok) != 64 {
		t.Fatalf("expected regenerated token, got %q", tok)
	}
}

func TestGate_Validate(t *testing.T) {
	g := newTestGate(t)
	tok, err := g.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	if !g.Validate(tok) {
		t.Errorf("matching credential rejected")
	}
	if g.Validate("") {
		t.Errorf("empty credential accepted")
	}
	if g.Validate(tok[:len(tok)-1]) {
		t.Errorf("shorter credential accepted")
	}
	if g.Validate(tok + "0") {
		t.Errorf("longer credential accepted")
	}
	// Flip one byte at each end.
	for _, i := range []int{0, len(tok) - 1} {
		b := []byte(tok)
		if b[i] == 'a' {
			b[i] = 'b'
		} else {
			b[i] = 'a'
		}
		if g.Validate(string(b)) {
			t.Errorf("credential differing at byte %d accepted", i)
		}
	}
}

func TestGate_FailsClosedOnResolutionError(t *testing.T) {
	t.Setenv(EnvToken, "")
	// Point the token path at a directory so reads fail with a real error
	// rather than not-exist.
	dir := t.TempDir()
	g := NewGate(dir, logging.NewNop())

	if g.Validate("anything") {
		t.Fatalf("gate must fail closed when the secret cannot be resolved")
	}
}

func TestGate_InvalidatePicksUpRotatedToken(t *testing.T) {
	g := newTestGate(t)
	old, err := g.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	if err := os.WriteFile(g.TokenPath(), []byte("rotated-secret"), 0o600); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if !g.Validate(old) {
		t.Fatalf("cache should still hold the old token before invalidation")
	}

	g.Invalidate()
	if g.Validate(old) {
		t.Errorf("old token accepted after rotation")
	}
	if !g.Validate("rotated-secret") {
		t.Errorf("rotated token rejected")
	}
}

func TestGate_ResolveHookSeesToken(t *testing.T) {
	var seen string
	g := newTestGate(t, WithResolveHook(func(tok string) { seen = tok }))
	tok, err := g.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if seen != tok {
		t.Fatalf("hook saw %q, want %q", seen, tok)
	}
}
