// Package persist owns the on-disk snapshot file. The in-memory store stays
// authoritative: writes are best-effort, and a corrupt file is quarantined
// instead of blocking startup.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tallr-app/tallr/internal/core"
	"github.com/tallr-app/tallr/internal/logging"
)

// SnapshotFileName is the session file kept in the data directory.
const SnapshotFileName = "sessions.json"

// Manager reads and writes the snapshot file. It never holds a reference to
// the live snapshot; callers pass clones.
type Manager struct {
	path       string
	backupPath string
	logger     *logging.Logger
}

// Option configures the manager.
type Option func(*Manager)

// WithBackupPath overrides the quarantine path for corrupt snapshot files.
func WithBackupPath(path string) Option {
	return func(m *Manager) {
		m.backupPath = path
	}
}

// New creates a snapshot file manager.
func New(path string, logger *logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		path:       path,
		backupPath: path + ".backup",
		logger:     logger.WithComponent("persist"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save serializes the snapshot to pretty JSON and writes it atomically,
// creating parent directories as needed. A failure leaves the previous file
// intact.
func (m *Manager) Save(snap *core.Snapshot) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.ErrIO(core.CodeSaveFailed, "creating data directory").WithCause(err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return core.ErrIO(core.CodeSaveFailed, "marshaling snapshot").WithCause(err)
	}

	if err := atomicWriteFile(m.path, data, 0o644); err != nil {
		return core.ErrIO(core.CodeSaveFailed, "writing snapshot file").WithCause(err)
	}

	m.logger.Debug("snapshot saved",
		"path", m.path,
		"projects", len(snap.Projects),
		"tasks", len(snap.Tasks))
	return nil
}

// Load reads the snapshot file. An absent or empty file yields an empty
// snapshot. An unparsable file is renamed to the backup path and an empty
// snapshot is returned; corruption never blocks startup. The returned
// snapshot is always non-nil.
func (m *Manager) Load() (*core.Snapshot, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug("no snapshot file, starting empty", "path", m.path)
			return core.NewSnapshot(), nil
		}
		return core.NewSnapshot(), core.ErrIO(core.CodeLoadFailed, "reading snapshot file").WithCause(err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return core.NewSnapshot(), nil
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		m.quarantine(err)
		return core.NewSnapshot(), nil
	}
	snap.Normalize()

	m.logger.Info("snapshot loaded",
		"path", m.path,
		"projects", len(snap.Projects),
		"tasks", len(snap.Tasks))
	return &snap, nil
}

// quarantine moves the unreadable snapshot aside so the next save starts
// clean while the bad bytes stay available for inspection.
func (m *Manager) quarantine(cause error) {
	m.logger.Warn("snapshot file corrupt, quarantining",
		"path", m.path,
		"backup", m.backupPath,
		"error", fmt.Sprintf("%v", cause))
	if err := os.Rename(m.path, m.backupPath); err != nil {
		m.logger.Error("quarantine failed, continuing with empty state",
			"path", m.path,
			"error", err.Error())
	}
}

// Exists reports whether the snapshot file is present.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Path returns the snapshot file path.
func (m *Manager) Path() string {
	return m.path
}

// BackupPath returns the quarantine path.
func (m *Manager) BackupPath() string {
	return m.backupPath
}
