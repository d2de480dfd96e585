package auth

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/tallr-app/tallr/internal/logging"
)

// Watcher invalidates the gate's cached secret when the token file changes
// on disk, so a rotated or hand-edited token takes effect without a restart.
type Watcher struct {
	gate    *Gate
	logger  *logging.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher on the directory holding the token file. The
// directory is watched rather than the file itself because editors and
// atomic writers replace files by rename.
func NewWatcher(gate *Gate, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	dir := filepath.Dir(gate.TokenPath())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		gate:    gate,
		logger:  logger.WithComponent("auth"),
		watcher: fsw,
	}, nil
}

// Run processes filesystem events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	tokenPath := filepath.Clean(w.gate.TokenPath())
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != tokenPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Info("token file changed, invalidating cache", "op", event.Op.String())
				w.gate.Invalidate()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("token watcher error", "error", err.Error())
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
