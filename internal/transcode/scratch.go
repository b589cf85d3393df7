package transcode

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const scratchPrefix = "export-"

// scratchDir creates the run-exclusive scratch directory for an export
// id. Namespacing by id keeps concurrent exports from colliding.
func scratchDir(base, exportID string) (string, error) {
	dir := filepath.Join(base, scratchPrefix+exportID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// removeScratch deletes a run's scratch directory. Failures are logged
// and swallowed: cleanup must never mask the primary outcome.
func removeScratch(dir string, logger *slog.Logger) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("scratch cleanup failed", "dir", dir, "error", err)
	}
}

// SweepScratch removes export scratch directories older than maxAge.
// Run periodically to catch leftovers from crashed runs.
func SweepScratch(base string, maxAge time.Duration, logger *slog.Logger) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("scratch sweep failed", "base", base, "error", err)
		}
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), scratchPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		dir := filepath.Join(base, e.Name())
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("orphaned scratch removal failed", "dir", dir, "error", err)
			continue
		}
		logger.Info("removed orphaned scratch dir", "dir", dir)
	}
}
