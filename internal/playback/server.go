package playback

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// PreviewService serves locally cached source media to the preview
// player with byte-range support.
type PreviewService interface {
	ServeMedia(w http.ResponseWriter, r *http.Request, name string) error
}

// PreviewServer serves files out of a single media directory. Names
// are validated so a request can never escape it.
type PreviewServer struct {
	mediaDir string
	logger   *slog.Logger
}

func NewPreviewServer(mediaDir string, logger *slog.Logger) *PreviewServer {
	return &PreviewServer{mediaDir: mediaDir, logger: logger}
}

// ServeMedia streams the named file with range support so the preview
// player can seek without downloading the whole asset.
func (s *PreviewServer) ServeMedia(w http.ResponseWriter, r *http.Request, name string) error {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		http.Error(w, "invalid media name", http.StatusBadRequest)
		return nil
	}

	path := filepath.Join(s.mediaDir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "media not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("open media: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat media: %w", err)
	}

	s.logger.Debug("serving preview media", "name", name, "size", stat.Size())
	http.ServeContent(w, r, name, stat.ModTime(), f)
	return nil
}
