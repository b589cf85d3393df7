package editor

import (
	"github.com/google/uuid"

	"github.com/rkanjani/ViralShorts/internal/timeline"
)

// Content operations. Each one snapshots before mutating so it can be
// undone. Degenerate input is clamped or ignored, never an error:
// interactive editing must not be interrupted by validation failures.

// AddClip assigns a fresh id, inserts the clip into the target track
// and re-sorts by start time. Returns the assigned id, or "" when the
// track does not exist.
func (s *Session) AddClip(trackID string, clip timeline.Clip) string {
	track := s.findTrack(trackID)
	if track == nil {
		return ""
	}
	s.snapshot()

	clip.ID = uuid.NewString()
	if clip.StartTime < 0 {
		clip.StartTime = 0
	}
	if clip.SourceDuration <= 0 {
		clip.SourceDuration = clip.Duration + clip.TrimStart + clip.TrimEnd
	}
	track.Clips = append(track.Clips, clip)
	timeline.SortClips(track.Clips)
	s.recompute()
	return clip.ID
}

// RemoveClip deletes the clip from whichever track holds it and clears
// the selection if it pointed at the removed clip.
func (s *Session) RemoveClip(clipID string) {
	ref, ok := timeline.FindClip(s.tracks, clipID)
	if !ok {
		return
	}
	s.snapshot()

	track := ref.Track
	track.Clips = append(track.Clips[:ref.Index], track.Clips[ref.Index+1:]...)
	if s.selectedClipID == clipID {
		s.selectedClipID = ""
	}
	s.recompute()
}

// MoveClip repositions a clip, clamping the new start time to zero.
// When newTrackID names a different track of the same kind the clip is
// relocated; a cross-kind target silently degrades to a same-track
// reposition.
func (s *Session) MoveClip(clipID string, newStartTime float64, newTrackID string) {
	ref, ok := timeline.FindClip(s.tracks, clipID)
	if !ok {
		return
	}
	s.snapshot()

	if newStartTime < 0 {
		newStartTime = 0
	}

	src := ref.Track
	clip := *ref.Clip
	clip.StartTime = newStartTime

	if newTrackID != "" && newTrackID != src.ID {
		if dst := s.findTrack(newTrackID); dst != nil && dst.Kind == clip.Kind {
			src.Clips = append(src.Clips[:ref.Index], src.Clips[ref.Index+1:]...)
			dst.Clips = append(dst.Clips, clip)
			timeline.SortClips(dst.Clips)
			s.recompute()
			return
		}
	}

	src.Clips[ref.Index] = clip
	timeline.SortClips(src.Clips)
	s.recompute()
}

// TrimClip sets both trim offsets. Duration is re-derived from the
// clip's untrimmed source length, so repeated calls with cumulative
// offsets stay consistent. A trim that would leave no playable range
// is ignored.
func (s *Session) TrimClip(clipID string, trimStart, trimEnd float64) {
	ref, ok := timeline.FindClip(s.tracks, clipID)
	if !ok {
		return
	}
	if trimStart < 0 {
		trimStart = 0
	}
	if trimEnd < 0 {
		trimEnd = 0
	}
	if ref.Clip.SourceDuration-trimStart-trimEnd <= 0 {
		return
	}
	s.snapshot()

	ref.Clip.TrimStart = trimStart
	ref.Clip.TrimEnd = trimEnd
	ref.Clip.Duration = ref.Clip.SourceDuration - trimStart - trimEnd
	s.recompute()
}

// SplitClip divides a clip at an absolute timeline position into two
// contiguous clips. A split point at or beyond either edge is a no-op.
// The second half gets a fresh id and sits immediately after the first
// in the track's clip list.
func (s *Session) SplitClip(clipID string, splitPoint float64) string {
	ref, ok := timeline.FindClip(s.tracks, clipID)
	if !ok {
		return ""
	}
	offset := splitPoint - ref.Clip.StartTime
	if offset <= 0 || offset >= ref.Clip.Duration {
		return ""
	}
	s.snapshot()

	orig := ref.Clip
	tail := orig.Duration - offset

	second := *orig
	second.ID = uuid.NewString()
	second.StartTime = splitPoint
	second.Duration = tail
	second.TrimStart = orig.TrimStart + offset

	orig.Duration = offset
	orig.TrimEnd += tail

	track := ref.Track
	track.Clips = append(track.Clips, timeline.Clip{})
	copy(track.Clips[ref.Index+2:], track.Clips[ref.Index+1:])
	track.Clips[ref.Index+1] = second

	s.recompute()
	return second.ID
}

// CopyClip stores a copy of the clip on the session clipboard. Not a
// content mutation, so it is not undoable.
func (s *Session) CopyClip(clipID string) {
	ref, ok := timeline.FindClip(s.tracks, clipID)
	if !ok {
		return
	}
	c := *ref.Clip
	s.clipboard = &c
}

// PasteClip inserts the clipboard clip at the playhead on the track it
// was copied from, falling back to the first track of matching kind.
func (s *Session) PasteClip() string {
	if s.clipboard == nil {
		return ""
	}
	clip := *s.clipboard
	clip.StartTime = s.playhead

	for i := range s.tracks {
		if s.tracks[i].Kind == clip.Kind {
			return s.AddClip(s.tracks[i].ID, clip)
		}
	}
	return ""
}

// AddSubtitle inserts a subtitle and keeps the sequence sorted.
// Entries with a non-positive span are ignored.
func (s *Session) AddSubtitle(sub timeline.Subtitle) string {
	if sub.EndTime <= sub.StartTime {
		return ""
	}
	s.snapshot()

	sub.ID = uuid.NewString()
	s.subtitles = append(s.subtitles, sub)
	timeline.SortSubtitles(s.subtitles)
	return sub.ID
}

// UpdateSubtitle replaces the subtitle with the matching id.
func (s *Session) UpdateSubtitle(sub timeline.Subtitle) {
	if sub.EndTime <= sub.StartTime {
		return
	}
	for i := range s.subtitles {
		if s.subtitles[i].ID == sub.ID {
			s.snapshot()
			s.subtitles[i] = sub
			timeline.SortSubtitles(s.subtitles)
			return
		}
	}
}

// RemoveSubtitle deletes the subtitle with the matching id.
func (s *Session) RemoveSubtitle(subtitleID string) {
	for i := range s.subtitles {
		if s.subtitles[i].ID == subtitleID {
			s.snapshot()
			s.subtitles = append(s.subtitles[:i], s.subtitles[i+1:]...)
			if s.selectedSubtitleID == subtitleID {
				s.selectedSubtitleID = ""
			}
			return
		}
	}
}

// Track flag toggles are view/control state, not content: they bypass
// history.

func (s *Session) ToggleTrackMute(trackID string) {
	if t := s.findTrack(trackID); t != nil {
		t.Muted = !t.Muted
	}
}

func (s *Session) ToggleTrackLock(trackID string) {
	if t := s.findTrack(trackID); t != nil {
		t.Locked = !t.Locked
	}
}

func (s *Session) ToggleTrackVisibility(trackID string) {
	if t := s.findTrack(trackID); t != nil {
		t.Visible = !t.Visible
	}
}

// SetTrackVolume clamps volume to [0,1].
func (s *Session) SetTrackVolume(trackID string, volume float64) {
	t := s.findTrack(trackID)
	if t == nil {
		return
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	t.Volume = volume
}

func (s *Session) findTrack(trackID string) *timeline.Track {
	for i := range s.tracks {
		if s.tracks[i].ID == trackID {
			return &s.tracks[i]
		}
	}
	return nil
}
