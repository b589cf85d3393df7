// Package editor owns the mutable editing session: the canonical clip
// and subtitle lists, view state, and the snapshot-based undo/redo
// history that every content mutation passes through.
package editor

import (
	"github.com/rkanjani/ViralShorts/internal/timeline"
)

// MaxHistoryDepth caps the undo stack; the oldest snapshot is silently
// dropped once the cap is reached.
const MaxHistoryDepth = 50

// Snapshot is an immutable deep copy of the content state. View state
// (playhead, zoom, selection) is deliberately excluded.
type Snapshot struct {
	Tracks    []timeline.Track
	Subtitles []timeline.Subtitle
}

// State is the full editor state as exposed to readers. Duration is
// always re-derived from the clips, never stored independently.
type State struct {
	Tracks             []timeline.Track    `json:"tracks"`
	Subtitles          []timeline.Subtitle `json:"subtitles"`
	Playhead           float64             `json:"playhead"`
	Duration           float64             `json:"duration"`
	Zoom               float64             `json:"zoom"`
	IsPlaying          bool                `json:"is_playing"`
	SelectedClipID     string              `json:"selected_clip_id,omitempty"`
	SelectedSubtitleID string              `json:"selected_subtitle_id,omitempty"`
}

// Session is a single-user editing session. It is not safe for
// concurrent use; the Manager serializes access per session.
type Session struct {
	ProjectID string

	tracks    []timeline.Track
	subtitles []timeline.Subtitle

	playhead           float64
	duration           float64
	zoom               float64
	isPlaying          bool
	selectedClipID     string
	selectedSubtitleID string
	clipboard          *timeline.Clip

	past   []Snapshot
	future []Snapshot
}

// NewSession creates an empty session for a project.
func NewSession(projectID string) *Session {
	return &Session{ProjectID: projectID, zoom: 1}
}

// LoadProjectData bulk-replaces the timeline, resets history and
// recomputes duration. Used when an editing session opens.
func (s *Session) LoadProjectData(tracks []timeline.Track, subtitles []timeline.Subtitle) {
	s.tracks = timeline.CloneTracks(tracks)
	s.subtitles = timeline.CloneSubtitles(subtitles)
	for i := range s.tracks {
		timeline.SortClips(s.tracks[i].Clips)
	}
	timeline.SortSubtitles(s.subtitles)
	s.past = nil
	s.future = nil
	s.selectedClipID = ""
	s.selectedSubtitleID = ""
	s.clipboard = nil
	s.playhead = 0
	s.recompute()
}

// State returns a deep copy of the current editor state.
func (s *Session) State() State {
	return State{
		Tracks:             timeline.CloneTracks(s.tracks),
		Subtitles:          timeline.CloneSubtitles(s.subtitles),
		Playhead:           s.playhead,
		Duration:           s.duration,
		Zoom:               s.zoom,
		IsPlaying:          s.isPlaying,
		SelectedClipID:     s.selectedClipID,
		SelectedSubtitleID: s.selectedSubtitleID,
	}
}

// Content returns a deep copy of the content state only.
func (s *Session) Content() Snapshot {
	return Snapshot{
		Tracks:    timeline.CloneTracks(s.tracks),
		Subtitles: timeline.CloneSubtitles(s.subtitles),
	}
}

// CanUndo reports whether an undo step is available.
func (s *Session) CanUndo() bool { return len(s.past) > 0 }

// CanRedo reports whether a redo step is available.
func (s *Session) CanRedo() bool { return len(s.future) > 0 }

// Undo restores the most recent snapshot. No-op when history is empty.
func (s *Session) Undo() {
	if len(s.past) == 0 {
		return
	}
	snap := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append(s.future, s.Content())
	s.restore(snap)
}

// Redo is the symmetric inverse of Undo. No-op when future is empty.
func (s *Session) Redo() {
	if len(s.future) == 0 {
		return
	}
	snap := s.future[len(s.future)-1]
	s.future = s.future[:len(s.future)-1]
	s.past = append(s.past, s.Content())
	s.restore(snap)
}

// View-state setters never touch history: they describe how the
// timeline is looked at, not what it contains.

func (s *Session) SetPlayhead(t float64) {
	if t < 0 {
		t = 0
	}
	if t > s.duration {
		t = s.duration
	}
	s.playhead = t
}

func (s *Session) SetZoom(z float64) {
	if z <= 0 {
		return
	}
	s.zoom = z
}

func (s *Session) SetPlaying(playing bool) { s.isPlaying = playing }

func (s *Session) SelectClip(clipID string) {
	s.selectedClipID = clipID
	s.selectedSubtitleID = ""
}

func (s *Session) SelectSubtitle(subtitleID string) {
	s.selectedSubtitleID = subtitleID
	s.selectedClipID = ""
}

// snapshot pushes the current content state onto past and discards any
// redo branch. Called before every mutating operation commits.
func (s *Session) snapshot() {
	s.past = append(s.past, s.Content())
	if len(s.past) > MaxHistoryDepth {
		s.past = s.past[len(s.past)-MaxHistoryDepth:]
	}
	s.future = nil
}

func (s *Session) restore(snap Snapshot) {
	s.tracks = timeline.CloneTracks(snap.Tracks)
	s.subtitles = timeline.CloneSubtitles(snap.Subtitles)
	s.recompute()
}

func (s *Session) recompute() {
	s.duration = timeline.CalculateDuration(s.tracks)
	if s.playhead > s.duration {
		s.playhead = s.duration
	}
}
