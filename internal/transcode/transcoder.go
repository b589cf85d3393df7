package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

const maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics

// Transcoder is the seam between the pipeline and the external encode
// process; the real ffmpeg binary and the mock pass-through are
// swappable implementations.
type Transcoder interface {
	// Probe verifies the encoder is callable.
	Probe(ctx context.Context) error

	// TrimEncode trims one clip and re-encodes it to the common target
	// format, mixing narration audio when the spec carries one.
	TrimEncode(ctx context.Context, spec EncodeSpec) error

	// Concat joins intermediate clips in order into one file. Always a
	// re-encode: per-clip parameter sets are close but not identical,
	// and a stream-copy concat would reject the mismatch.
	Concat(ctx context.Context, inputs []string, listPath, output string) error

	// BurnSubtitles renders the subtitle file permanently into the
	// video pixels using the given force_style.
	BurnSubtitles(ctx context.Context, input, subtitlePath, forceStyle, output string) error

	// IsMock reports whether outputs are pass-through fakes.
	IsMock() bool
}

// Target output format for social shorts: 9:16 1080x1920, H.264+AAC.
// Every per-clip encode normalizes to these so concatenation is safe.
const (
	targetScale      = "scale=1080:1920:force_original_aspect_ratio=decrease,pad=1080:1920:(ow-iw)/2:(oh-ih)/2"
	targetFrameRate  = "30"
	targetSampleRate = "44100"
)

// FFmpeg shells out to an ffmpeg binary.
type FFmpeg struct {
	binPath string
	logger  *slog.Logger
}

// NewFFmpeg resolves the ffmpeg binary. An empty path means look it up
// on PATH; ErrTranscoderUnavailable when nothing is found.
func NewFFmpeg(binPath string, logger *slog.Logger) (*FFmpeg, error) {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	resolved, err := exec.LookPath(binPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscoderUnavailable, err)
	}
	logger.Info("transcoder initialised", "ffmpeg", resolved)
	return &FFmpeg{binPath: resolved, logger: logger}, nil
}

func (f *FFmpeg) IsMock() bool { return false }

func (f *FFmpeg) Probe(ctx context.Context) error {
	return f.run(ctx, []string{"-version"})
}

func (f *FFmpeg) TrimEncode(ctx context.Context, spec EncodeSpec) error {
	args := []string{
		"-y",
		"-ss", formatSeconds(spec.TrimStart),
		"-i", spec.Input,
	}
	if spec.Narration != "" {
		args = append(args, "-i", spec.Narration)
	}
	args = append(args, "-t", formatSeconds(spec.Duration))

	if spec.Narration != "" {
		args = append(args,
			"-filter_complex", narrationFilter(spec.Mix),
			"-map", "0:v", "-map", "[aout]",
		)
	}

	args = append(args, encodeArgs()...)
	args = append(args, spec.Output)
	return f.run(ctx, args)
}

func (f *FFmpeg) Concat(ctx context.Context, inputs []string, listPath, output string) error {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
	}
	args = append(args, encodeArgs()...)
	args = append(args, output)
	return f.run(ctx, args)
}

func (f *FFmpeg) BurnSubtitles(ctx context.Context, input, subtitlePath, forceStyle, output string) error {
	vf := "subtitles=" + escapeFilterPath(subtitlePath)
	if forceStyle != "" {
		vf += ":force_style='" + forceStyle + "'"
	}
	args := []string{
		"-y",
		"-i", input,
		"-vf", vf,
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "copy",
		output,
	}
	return f.run(ctx, args)
}

// encodeArgs is the common normalization every intermediate and final
// encode goes through.
func encodeArgs() []string {
	return []string{
		"-vf", targetScale + ",fps=" + targetFrameRate,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-ar", targetSampleRate,
		"-ac", "2",
	}
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	start := time.Now()
	cmd := exec.CommandContext(ctx, f.binPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &tailWriter{buf: &stderr, limit: maxStderrBytes}
	cmd.Stdout = io.Discard

	f.logger.Debug("executing ffmpeg", "args", args)

	err := cmd.Run()
	elapsed := time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		f.logger.Warn("ffmpeg failed",
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", stderr.String(),
		)
		return fmt.Errorf("ffmpeg: %w: %s", err, stderr.String())
	}

	f.logger.Debug("ffmpeg succeeded", "duration_ms", elapsed.Milliseconds())
	return nil
}

// narrationFilter mixes the clip's native audio against a narration
// track. mix is the narration share: 0 keeps native audio only, 1
// silences it entirely.
func narrationFilter(mix float64) string {
	return fmt.Sprintf(
		"[0:a]volume=%s[native];[1:a]volume=%s[narr];[native][narr]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[aout]",
		formatGain(1-mix), formatGain(mix))
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}

func formatGain(g float64) string {
	if g < 0 {
		g = 0
	}
	return fmt.Sprintf("%.3f", g)
}

// escapeFilterPath quotes a path for use inside an ffmpeg filter
// expression, where ':' and '\' are metacharacters.
func escapeFilterPath(p string) string {
	var b bytes.Buffer
	for _, r := range p {
		switch r {
		case '\\', ':', '\'':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// tailWriter keeps only the last limit bytes written.
type tailWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	w.buf.Write(p)
	if w.buf.Len() > w.limit {
		b := w.buf.Bytes()
		tail := append([]byte(nil), b[len(b)-w.limit:]...)
		w.buf.Reset()
		w.buf.Write(tail)
	}
	return n, nil
}
