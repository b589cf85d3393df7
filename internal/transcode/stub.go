package transcode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Stub is the degraded pass-through transcoder used when no ffmpeg
// binary is available: every operation copies an input unchanged so
// development and UI testing can proceed. Results carry IsMock so a
// fake export is never mistaken for a real one.
type Stub struct {
	logger *slog.Logger
}

func NewStub(logger *slog.Logger) *Stub {
	logger.Warn("transcoder binary unavailable, using mock pass-through")
	return &Stub{logger: logger}
}

func (s *Stub) IsMock() bool { return true }

func (s *Stub) Probe(ctx context.Context) error { return ctx.Err() }

func (s *Stub) TrimEncode(ctx context.Context, spec EncodeSpec) error {
	s.logger.Info("mock trim+encode", "input", spec.Input, "output", spec.Output)
	return copyFile(ctx, spec.Input, spec.Output)
}

func (s *Stub) Concat(ctx context.Context, inputs []string, listPath, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("mock concat: no inputs")
	}
	s.logger.Info("mock concat", "inputs", len(inputs), "output", output)
	return copyFile(ctx, inputs[0], output)
}

func (s *Stub) BurnSubtitles(ctx context.Context, input, subtitlePath, forceStyle, output string) error {
	s.logger.Info("mock subtitle burn", "input", input, "output", output)
	return copyFile(ctx, input, output)
}

func copyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
