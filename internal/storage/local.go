package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalStore copies exports into a directory served by the agent's own
// HTTP server. The default for single-machine use.
type LocalStore struct {
	outputDir string
	baseURL   string
	logger    *slog.Logger
}

func NewLocalStore(outputDir, baseURL string, logger *slog.Logger) *LocalStore {
	return &LocalStore{outputDir: outputDir, baseURL: baseURL, logger: logger}
}

func (s *LocalStore) Save(ctx context.Context, localPath, exportID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := exportID + filepath.Ext(localPath)
	dst := filepath.Join(s.outputDir, name)

	in, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open export file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copy export file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close output file: %w", err)
	}

	url := s.baseURL + "/" + name
	s.logger.Info("export stored locally", "path", dst, "url", url)
	return url, nil
}
