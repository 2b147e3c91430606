package workspace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"vodconverter/internal/logging"
	"vodconverter/internal/services"
)

// DirPrefix names every per-job workspace created by a Manager.
const DirPrefix = "streaming-converter"

// SourceFileName is the name the downloaded source is materialised under.
const SourceFileName = "original"

// Manager creates, fills and removes per-job scratch directories under a root.
type Manager struct {
	root   string
	logger *slog.Logger
	lock   *flock.Flock
}

// New returns a Manager rooted at root. An empty root uses os.TempDir().
func New(root string, logger *slog.Logger) *Manager {
	if strings.TrimSpace(root) == "" {
		root = os.TempDir()
	}
	return &Manager{
		root:   root,
		logger: logging.NewComponentLogger(logger, "workspace"),
	}
}

// Root returns the directory workspaces are created under.
func (m *Manager) Root() string {
	return m.root
}

// Create makes a fresh, uniquely named directory. Concurrent calls never
// return the same path.
func (m *Manager) Create() (string, error) {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return "", services.Wrap(services.ErrWorkspace, "workspace", "create", "ensure root "+m.root, err)
	}
	dir, err := os.MkdirTemp(m.root, DirPrefix)
	if err != nil {
		return "", services.Wrap(services.ErrWorkspace, "workspace", "create", "mkdtemp", err)
	}
	return dir, nil
}

// SourcePath returns where the source object is written inside dir.
func SourcePath(dir string) string {
	return filepath.Join(dir, SourceFileName)
}

// WriteBinary appends everything read from r to the file at path, creating it
// when absent, and returns the number of bytes written.
func (m *Manager) WriteBinary(path string, r io.Reader) (int64, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, services.Wrap(services.ErrWorkspace, "workspace", "write", "open "+path, err)
	}
	n, err := io.Copy(file, r)
	if err != nil {
		_ = file.Close()
		return n, services.Wrap(services.ErrWorkspace, "workspace", "write", fmt.Sprintf("copy to %s", path), err)
	}
	if err := file.Close(); err != nil {
		return n, services.Wrap(services.ErrWorkspace, "workspace", "write", "close "+path, err)
	}
	return n, nil
}

// Remove deletes path recursively. Removing a missing path is a no-op and
// failures are logged, never returned.
func (m *Manager) Remove(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(m.logger, "workspace removal failed", "workspace_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check workspace_dir permissions and remove the directory manually"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return
	}
	m.logger.Debug("workspace removed", logging.String("path", path))
}

// Lock takes an exclusive, non-blocking lock on lockPath. Holding it marks
// this process as the owner of the workspace root so SweepStale cannot race
// another worker's live jobs.
func (m *Manager) Lock(lockPath string) error {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock dir: %w", err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("workspace root %s is owned by another worker (lock %s)", m.root, lockPath)
	}
	m.lock = lock
	return nil
}

// Unlock releases the lock taken by Lock.
func (m *Manager) Unlock() error {
	if m.lock == nil {
		return nil
	}
	err := m.lock.Unlock()
	m.lock = nil
	return err
}
