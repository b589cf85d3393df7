package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rkanjani/ViralShorts/internal/events"
	"github.com/rkanjani/ViralShorts/internal/export"
	"github.com/rkanjani/ViralShorts/internal/storage"
	"github.com/rkanjani/ViralShorts/internal/subtitle"
)

// Pipeline runs export requests through the staged transcode state
// machine. One Pipeline serves many runs; each run gets an exclusive
// scratch directory keyed by export id.
type Pipeline struct {
	transcoder Transcoder
	store      storage.Store
	downloader *downloader
	scratch    string
	logger     *slog.Logger
}

type Config struct {
	Transcoder          Transcoder
	Store               storage.Store
	ScratchDir          string
	HTTPClient          *http.Client
	DownloadParallelism int
	Logger              *slog.Logger
}

func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		transcoder: cfg.Transcoder,
		store:      cfg.Store,
		downloader: newDownloader(cfg.HTTPClient, cfg.DownloadParallelism, cfg.Logger),
		scratch:    cfg.ScratchDir,
		logger:     cfg.Logger,
	}
}

// Stage progress milestones. Consumers treat them as monotonically
// non-decreasing hints, not ETAs.
const (
	pctDownloading   = 0
	pctProcessing    = 25
	pctConcatenating = 65
	pctBurning       = 75
	pctUploading     = 85
	pctCompleted     = 100
)

// Run executes one export. Every stage emits a progress event before
// advancing; any failure emits a terminal failed event. Cleanup of
// scratch files always happens, success or not, and its own failures
// are logged rather than surfaced.
func (p *Pipeline) Run(ctx context.Context, exportID string, req *export.Request, emit func(events.Event)) (res *Result, err error) {
	logger := p.logger.With("export_id", exportID)

	dir, err := scratchDir(p.scratch, exportID)
	if err != nil {
		emit(events.Event{Stage: StageFailed, Error: "cannot create scratch storage"})
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer removeScratch(dir, logger)
	defer func() {
		if err != nil {
			emit(events.Event{Stage: StageFailed, Error: err.Error()})
		}
	}()

	// Stage: downloading.
	emit(events.Event{Stage: StageDownloading, Percent: pctDownloading})
	var urls []string
	for _, c := range req.Clips {
		urls = append(urls, c.VideoURL, c.AudioURL)
	}
	local, err := p.downloader.fetchAll(ctx, urls, dir)
	if err != nil {
		return nil, err
	}
	logger.Info("sources downloaded", "count", len(local))

	// Stage: per-clip processing. Encoding is CPU/process-bound, so
	// clips are processed one at a time.
	emit(events.Event{Stage: StageProcessing, Percent: pctProcessing})
	intermediates := make([]string, 0, len(req.Clips))
	for i, clip := range req.Clips {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		out := filepath.Join(dir, fmt.Sprintf("clip-%03d.mp4", i))
		spec := EncodeSpec{
			Input:     local[clip.VideoURL],
			Narration: local[clip.AudioURL],
			Output:    out,
			TrimStart: clip.TrimStart,
			Duration:  clip.Duration,
			Mix:       req.AudioMix,
		}
		if err = p.transcoder.TrimEncode(ctx, spec); err != nil {
			return nil, fmt.Errorf("process clip %d (%s): %w", i, clip.LineID, err)
		}
		intermediates = append(intermediates, out)
		emit(events.Event{
			Stage:   StageProcessing,
			Percent: pctProcessing + (i+1)*(pctConcatenating-pctProcessing)/len(req.Clips),
		})
	}

	// Stage: concatenation, in timeline order.
	emit(events.Event{Stage: StageConcatenating, Percent: pctConcatenating})
	listPath := filepath.Join(dir, "concat.txt")
	if err = writeConcatList(listPath, intermediates); err != nil {
		return nil, fmt.Errorf("write concat list: %w", err)
	}
	joined := filepath.Join(dir, "joined.mp4")
	if err = p.transcoder.Concat(ctx, intermediates, listPath, joined); err != nil {
		return nil, fmt.Errorf("concatenate: %w", err)
	}

	// Stage: subtitle burn-in, skipped entirely when disabled.
	final := joined
	if req.Subtitles.Enabled && len(req.Subtitles.Words) > 0 {
		emit(events.Event{Stage: StageBurning, Percent: pctBurning})
		srtPath := filepath.Join(dir, "words.srt")
		if err = os.WriteFile(srtPath, []byte(subtitle.WriteSRT(req.Subtitles.Words)), 0o644); err != nil {
			return nil, fmt.Errorf("write subtitle file: %w", err)
		}
		burned := filepath.Join(dir, "burned.mp4")
		style := subtitle.ForceStyle(req.Subtitles.Style)
		if err = p.transcoder.BurnSubtitles(ctx, joined, srtPath, style, burned); err != nil {
			return nil, fmt.Errorf("burn subtitles: %w", err)
		}
		final = burned
	}

	// Stage: uploading.
	emit(events.Event{Stage: StageUploading, Percent: pctUploading})
	url, err := p.store.Save(ctx, final, exportID)
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	res = &Result{URL: url, IsMock: p.transcoder.IsMock()}
	emit(events.Event{Stage: StageCompleted, Percent: pctCompleted, URL: res.URL, IsMock: res.IsMock})
	logger.Info("export completed", "url", res.URL, "is_mock", res.IsMock)
	return res, nil
}

// writeConcatList writes the ffmpeg concat demuxer list file.
func writeConcatList(path string, inputs []string) error {
	var b strings.Builder
	for _, in := range inputs {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(in, "'", `'\''`))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
