package storage

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLocalStoreSave(t *testing.T) {
	outDir := t.TempDir()
	store := NewLocalStore(outDir, "http://127.0.0.1:8787/media/exports", testLogger())

	src := writeTempFile(t, "final.mp4", "video-bytes")
	url, err := store.Save(context.Background(), src, "exp-1")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8787/media/exports/exp-1.mp4", url)

	data, err := os.ReadFile(filepath.Join(outDir, "exp-1.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))
}

func TestLocalStoreMissingSource(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "http://x", testLogger())
	_, err := store.Save(context.Background(), "/does/not/exist.mp4", "exp-1")
	assert.Error(t, err)
}

func TestHTTPStoreSave(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "exp-9", r.FormValue("export_id"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "exp-9.mp4", hdr.Filename)

		w.Write([]byte(`{"url":"https://media.example/exports/exp-9.mp4"}`))
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "secret-token", testLogger())
	src := writeTempFile(t, "final.mp4", "payload")

	url, err := store.Save(context.Background(), src, "exp-9")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/exports/exp-9.mp4", url)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestHTTPStoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "t", testLogger())
	src := writeTempFile(t, "final.mp4", "payload")

	_, err := store.Save(context.Background(), src, "exp-9")
	var ue *UploadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadGateway, ue.StatusCode)
	assert.True(t, ue.IsRetryable())
}

func TestUploadErrorClientErrorNotRetryable(t *testing.T) {
	e := &UploadError{StatusCode: 422, Body: "bad"}
	assert.False(t, e.IsRetryable())
}
