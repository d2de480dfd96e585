// Package setup tracks first-run state: the completion marker file and
// whether the companion CLI is reachable.
package setup

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/tallr-app/tallr/internal/core"
)

// MarkerFileName is the flag file recording that first-run setup finished.
const MarkerFileName = ".setup_completed"

// defaultCLIPath is checked in addition to PATH lookup, matching where the
// installer drops its symlink.
const defaultCLIPath = "/usr/local/bin/tallr"

// Status is the first-run report served to the UI shell.
type Status struct {
	IsFirstLaunch  bool `json:"is_first_launch"`
	CLIInstalled   bool `json:"cli_installed"`
	SetupCompleted bool `json:"setup_completed"`
}

// Manager reports and records setup completion for a data directory.
type Manager struct {
	dataDir  string
	cliName  string
	cliPath  string
	lookPath func(string) (string, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithCLIPath overrides the fixed install location probed for the CLI.
func WithCLIPath(path string) Option {
	return func(m *Manager) { m.cliPath = path }
}

// WithLookPath overrides PATH resolution. Intended for tests.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(m *Manager) { m.lookPath = fn }
}

// NewManager creates a Manager rooted at the data directory.
func NewManager(dataDir string, opts ...Option) *Manager {
	m := &Manager{
		dataDir:  dataDir,
		cliName:  "tallr",
		cliPath:  defaultCLIPath,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status returns the current first-run report.
func (m *Manager) Status() Status {
	completed := m.Completed()
	return Status{
		IsFirstLaunch:  !completed,
		CLIInstalled:   m.cliInstalled(),
		SetupCompleted: completed,
	}
}

// Completed reports whether the completion marker exists.
func (m *Manager) Completed() bool {
	_, err := os.Stat(m.markerPath())
	return err == nil
}

// MarkCompleted writes the completion marker, creating the data directory
// if needed.
func (m *Manager) MarkCompleted() error {
	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return core.ErrIO(core.CodeSaveFailed, "failed to create data directory").WithCause(err)
	}
	if err := os.WriteFile(m.markerPath(), nil, 0o644); err != nil {
		return core.ErrIO(core.CodeSaveFailed, "failed to write setup marker").WithCause(err)
	}
	return nil
}

func (m *Manager) markerPath() string {
	return filepath.Join(m.dataDir, MarkerFileName)
}

func (m *Manager) cliInstalled() bool {
	if _, err := m.lookPath(m.cliName); err == nil {
		return true
	}
	_, err := os.Stat(m.cliPath)
	return err == nil
}
