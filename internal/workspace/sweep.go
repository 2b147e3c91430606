package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vodconverter/internal/logging"
)

// SweepResult contains the outcome of a stale workspace sweep.
type SweepResult struct {
	Removed []string
	Errors  []SweepError
}

// SweepError pairs a directory path with its removal error.
type SweepError struct {
	Path  string
	Error error
}

// SweepStale removes workspaces under the root older than maxAge. Only
// directories carrying DirPrefix are considered. Jobs that crashed between
// create and cleanup leave these behind. Each failure is logged here;
// callers only need the counts.
func (m *Manager) SweepStale(ctx context.Context, maxAge time.Duration) SweepResult {
	result := SweepResult{}
	if maxAge <= 0 {
		return result
	}

	entries, err := os.ReadDir(m.root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, m.sweepFailed(m.root, err))
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), DirPrefix) {
			continue
		}
		dirPath := filepath.Join(m.root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, m.sweepFailed(dirPath, err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, m.sweepFailed(dirPath, err))
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		m.logger.Info("removed stale workspace",
			logging.String("path", dirPath),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "workspace_sweep"),
		)
	}
	return result
}

func (m *Manager) sweepFailed(path string, err error) SweepError {
	logging.WarnWithContext(m.logger, "failed to remove stale workspace", "workspace_sweep_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check workspace_dir permissions"),
		logging.String(logging.FieldImpact, "disk space not reclaimed"),
	)
	return SweepError{Path: path, Error: err}
}
