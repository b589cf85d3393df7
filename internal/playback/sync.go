package playback

import (
	"log/slog"

	"github.com/rkanjani/ViralShorts/internal/timeline"
)

// Drift tolerances before a reseek is issued. Video needs lip-sync
// precision; background audio can wander further before anyone hears
// it. The hysteresis prevents constant reseeking from clock jitter.
const (
	VideoDriftTolerance = 0.1
	AudioDriftTolerance = 0.5
)

// MediaHandle is a playable media element owned by one clip. Load is
// expected to be asynchronous on the implementation side; a tick never
// waits for it.
type MediaHandle interface {
	Source() string
	Load(url string)
	Position() float64
	Seek(position float64)
	Play()
	Pause()
	IsPlaying() bool
}

// Controller drives the per-tick synchronization of media handles to
// the virtual clock. Handles are registered per clip id by the preview
// layer.
type Controller struct {
	handles map[string]MediaHandle
	logger  *slog.Logger
}

func NewController(logger *slog.Logger) *Controller {
	return &Controller{
		handles: make(map[string]MediaHandle),
		logger:  logger,
	}
}

// Register attaches a handle to a clip id, replacing any previous one.
func (c *Controller) Register(clipID string, h MediaHandle) {
	c.handles[clipID] = h
}

// Unregister pauses and forgets the clip's handle.
func (c *Controller) Unregister(clipID string) {
	if h, ok := c.handles[clipID]; ok {
		h.Pause()
		delete(c.handles, clipID)
	}
}

// Tick synchronizes every registered handle to the playhead. Active
// clips get their source loaded and position corrected within the
// kind-specific drift tolerance; inactive clips are paused. Only local
// reads and bounded seeks happen here, never blocking I/O.
func (c *Controller) Tick(tracks []timeline.Track, playhead float64, isPlaying bool) {
	active := make(map[string]ActiveClip)
	for _, ac := range ActiveClips(tracks, playhead) {
		active[ac.Clip.ID] = ac
	}

	for clipID, h := range c.handles {
		ac, ok := active[clipID]
		if !ok {
			if h.IsPlaying() {
				h.Pause()
			}
			continue
		}

		clip := ac.Clip
		expected := playhead - clip.StartTime + clip.TrimStart

		if h.Source() != clip.SourceURL {
			h.Load(clip.SourceURL)
			h.Seek(expected)
		} else if drift := h.Position() - expected; drift > tolerance(clip.Kind) || drift < -tolerance(clip.Kind) {
			c.logger.Debug("correcting playback drift", "clip_id", clipID, "drift", drift)
			h.Seek(expected)
		}

		muted := ac.Track.Muted
		switch {
		case isPlaying && !muted && !h.IsPlaying():
			h.Play()
		case (!isPlaying || muted) && h.IsPlaying():
			h.Pause()
		}
	}
}

func tolerance(kind string) float64 {
	if kind == timeline.KindAudio {
		return AudioDriftTolerance
	}
	return VideoDriftTolerance
}
