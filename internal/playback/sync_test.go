package playback

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeHandle struct {
	source   string
	position float64
	playing  bool
	loads    int
	seeks    int
}

func (f *fakeHandle) Source() string     { return f.source }
func (f *fakeHandle) Load(url string)    { f.source = url; f.loads++ }
func (f *fakeHandle) Position() float64  { return f.position }
func (f *fakeHandle) Seek(pos float64)   { f.position = pos; f.seeks++ }
func (f *fakeHandle) Play()              { f.playing = true }
func (f *fakeHandle) Pause()             { f.playing = false }
func (f *fakeHandle) IsPlaying() bool    { return f.playing }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestTickLoadsAndSeeksOnSourceChange(t *testing.T) {
	tracks := previewTracks()
	c := NewController(discardLogger())
	h := &fakeHandle{}
	c.Register("na", h)

	c.Tick(tracks, 2, true)

	assert.Equal(t, "na.mp3", h.source)
	assert.Equal(t, 1, h.loads)
	// playhead - startTime + trimStart = 2 - 0 + 0.5
	assert.InDelta(t, 2.5, h.position, 1e-9)
	assert.True(t, h.playing)
}

func TestTickHysteresisSkipsSmallDrift(t *testing.T) {
	tracks := previewTracks()
	c := NewController(discardLogger())

	video := &fakeHandle{source: "a.mp4", position: 2.05, playing: true}
	audio := &fakeHandle{source: "na.mp3", position: 2.8, playing: true}
	c.Register("a", video)
	c.Register("na", audio)

	c.Tick(tracks, 2, true)

	// Video expected at 2.0, drift 0.05 < 0.1: no reseek.
	assert.Equal(t, 0, video.seeks)
	// Audio expected at 2.5, drift 0.3 < 0.5: no reseek.
	assert.Equal(t, 0, audio.seeks)

	video.position = 2.2
	audio.position = 3.2
	c.Tick(tracks, 2, true)

	assert.Equal(t, 1, video.seeks)
	assert.InDelta(t, 2.0, video.position, 1e-9)
	assert.Equal(t, 1, audio.seeks)
	assert.InDelta(t, 2.5, audio.position, 1e-9)
}

func TestTickPausesInactiveAndStopped(t *testing.T) {
	tracks := previewTracks()
	c := NewController(discardLogger())

	h := &fakeHandle{source: "a.mp4", playing: true}
	c.Register("a", h)

	// Playhead past clip a: handle must pause.
	c.Tick(tracks, 6, true)
	assert.False(t, h.playing)

	// Back inside the clip but global playback stopped: stays paused.
	h.position = 2
	c.Tick(tracks, 2, false)
	assert.False(t, h.playing)

	c.Tick(tracks, 2, true)
	assert.True(t, h.playing)
}

func TestTickRespectsTrackMute(t *testing.T) {
	tracks := previewTracks()
	tracks[2].Muted = true

	c := NewController(discardLogger())
	h := &fakeHandle{source: "na.mp3", position: 2.5, playing: true}
	c.Register("na", h)

	c.Tick(tracks, 2, true)
	assert.False(t, h.playing)
}

func TestUnregisterPausesHandle(t *testing.T) {
	c := NewController(discardLogger())
	h := &fakeHandle{playing: true}
	c.Register("x", h)
	c.Unregister("x")
	assert.False(t, h.playing)

	// Unknown id is a no-op.
	c.Unregister("x")
}
