package transcode

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultDownloadParallelism = 4

// downloader fetches every distinct source URL referenced by an export
// request into the run's scratch directory. Downloads run with bounded
// parallelism; any single failure aborts the whole set.
type downloader struct {
	client      *http.Client
	parallelism int
	logger      *slog.Logger
}

func newDownloader(client *http.Client, parallelism int, logger *slog.Logger) *downloader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	if parallelism <= 0 {
		parallelism = defaultDownloadParallelism
	}
	return &downloader{client: client, parallelism: parallelism, logger: logger}
}

// fetchAll downloads each distinct URL once and returns url -> local
// path. The scratch dir must already exist.
func (d *downloader) fetchAll(ctx context.Context, urls []string, scratchDir string) (map[string]string, error) {
	distinct := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		distinct = append(distinct, u)
	}

	paths := make([]string, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)
	for i, u := range distinct {
		g.Go(func() error {
			local := filepath.Join(scratchDir, scratchName(u))
			if err := d.fetch(gctx, u, local); err != nil {
				return fmt.Errorf("download %s: %w", u, err)
			}
			paths[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(distinct))
	for i, u := range distinct {
		out[u] = paths[i]
	}
	return out, nil
}

func (d *downloader) fetch(ctx context.Context, srcURL, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	d.logger.Debug("source downloaded", "url", srcURL, "bytes", n)
	return nil
}

// scratchName derives a stable collision-free local filename from a
// source URL, keeping the extension so ffmpeg can sniff the container.
func scratchName(srcURL string) string {
	ext := ""
	if u, err := url.Parse(srcURL); err == nil {
		ext = path.Ext(u.Path)
	}
	sum := sha1.Sum([]byte(srcURL))
	return fmt.Sprintf("src-%x%s", sum[:8], ext)
}
