package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// UploadError is a failed upload attempt with enough detail for the
// caller to decide about resubmitting.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("export upload failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx); client errors are
// permanent.
func (e *UploadError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPStore uploads finished exports to a remote media store over
// multipart POST with bearer auth.
type HTTPStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPStore(baseURL, token string, logger *slog.Logger) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

func (s *HTTPStore) Save(ctx context.Context, localPath, exportID string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", exportID+filepath.Ext(localPath))
	if err != nil {
		return "", fmt.Errorf("create multipart: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read export file: %w", err)
	}
	if err := mw.WriteField("export_id", exportID); err != nil {
		return "", fmt.Errorf("write export id field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart: %w", err)
	}

	url := s.baseURL + "/api/media/exports"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)

	s.logger.Info("uploading export", "url", url, "export_id", exportID, "body_bytes", body.Len())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UploadError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result uploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil || result.URL == "" {
		return "", fmt.Errorf("upload response missing url: %q", string(respBody))
	}

	s.logger.Info("export upload succeeded", "export_id", exportID, "result_url", result.URL)
	return result.URL, nil
}
