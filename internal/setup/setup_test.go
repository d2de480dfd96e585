package setup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func noLookPath(string) (string, error) {
	return "", errors.New("not found")
}

func TestStatusFreshDirectory(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir,
		WithCLIPath(filepath.Join(dir, "missing-cli")),
		WithLookPath(noLookPath),
	)

	st := m.Status()
	if !st.IsFirstLaunch {
		t.Errorf("IsFirstLaunch = false, want true for fresh directory")
	}
	if st.SetupCompleted {
		t.Errorf("SetupCompleted = true, want false for fresh directory")
	}
	if st.CLIInstalled {
		t.Errorf("CLIInstalled = true, want false")
	}
}

func TestMarkCompleted(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir,
		WithCLIPath(filepath.Join(dir, "missing-cli")),
		WithLookPath(noLookPath),
	)

	if err := m.MarkCompleted(); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, MarkerFileName)); err != nil {
		t.Fatalf("marker file missing after MarkCompleted: %v", err)
	}

	st := m.Status()
	if st.IsFirstLaunch {
		t.Errorf("IsFirstLaunch = true after completion, want false")
	}
	if !st.SetupCompleted {
		t.Errorf("SetupCompleted = false after completion, want true")
	}
}

func TestMarkCompletedCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	m := NewManager(dir, WithLookPath(noLookPath))

	if err := m.MarkCompleted(); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if !m.Completed() {
		t.Errorf("Completed() = false, want true")
	}
}

func TestCLIDetectedAtFixedPath(t *testing.T) {
	dir := t.TempDir()
	cli := filepath.Join(dir, "tallr")
	if err := os.WriteFile(cli, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fake cli: %v", err)
	}

	m := NewManager(dir, WithCLIPath(cli), WithLookPath(noLookPath))
	if st := m.Status(); !st.CLIInstalled {
		t.Errorf("CLIInstalled = false, want true when fixed path exists")
	}
}

func TestCLIDetectedOnPath(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir,
		WithCLIPath(filepath.Join(dir, "missing-cli")),
		WithLookPath(func(name string) (string, error) {
			if name != "tallr" {
				t.Errorf("lookPath name = %q, want %q", name, "tallr")
			}
			return "/somewhere/tallr", nil
		}),
	)
	if st := m.Status(); !st.CLIInstalled {
		t.Errorf("CLIInstalled = false, want true when PATH lookup succeeds")
	}
}
