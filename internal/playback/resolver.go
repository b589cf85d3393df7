// Package playback resolves a virtual playhead position to the active
// timeline content and keeps per-clip media handles synchronized to the
// shared clock during preview.
package playback

import (
	"github.com/rkanjani/ViralShorts/internal/timeline"
)

// ActiveClip pairs a clip with the track it sits on.
type ActiveClip struct {
	Track *timeline.Track
	Clip  *timeline.Clip
}

// ActiveClips returns every clip whose window contains playhead,
// restricted to visible tracks, in track array order.
func ActiveClips(tracks []timeline.Track, playhead float64) []ActiveClip {
	var out []ActiveClip
	for i := range tracks {
		if !tracks[i].Visible {
			continue
		}
		for j := range tracks[i].Clips {
			if tracks[i].Clips[j].Contains(playhead) {
				out = append(out, ActiveClip{Track: &tracks[i], Clip: &tracks[i].Clips[j]})
			}
		}
	}
	return out
}

// CompositeVideoClip returns the single video clip to draw: the active
// clip on the first visible video track, track array order deciding
// ties. The model permits overlapping video clips across tracks; this
// is the explicit compositing rule, not an array-order accident.
func CompositeVideoClip(tracks []timeline.Track, playhead float64) (ActiveClip, bool) {
	for _, ac := range ActiveClips(tracks, playhead) {
		if ac.Track.Kind == timeline.KindVideo {
			return ac, true
		}
	}
	return ActiveClip{}, false
}

// ActiveSubtitles returns every subtitle whose span contains playhead.
// Simultaneous subtitles are all returned; layout is the renderer's
// problem.
func ActiveSubtitles(subs []timeline.Subtitle, playhead float64) []timeline.Subtitle {
	var out []timeline.Subtitle
	for _, sub := range subs {
		if playhead >= sub.StartTime && playhead < sub.EndTime {
			out = append(out, sub)
		}
	}
	return out
}
