// Package timeline defines the pure data model for editing sessions:
// tracks, clips, subtitles and the derived timeline duration. It has no
// I/O and no side effects; mutation lives in the editor package.
package timeline

import "sort"

const (
	KindVideo    = "video"
	KindAudio    = "audio"
	KindSubtitle = "subtitle"
)

// Clip is a time-bounded reference to a source media asset placed on a
// track. All times are in seconds. SourceDuration is the untrimmed
// length of the source media, supplied at creation; Duration is always
// SourceDuration - TrimStart - TrimEnd.
type Clip struct {
	ID             string  `json:"id"`
	SourceID       string  `json:"source_id"`
	SourceURL      string  `json:"source_url"`
	StartTime      float64 `json:"start_time"`
	Duration       float64 `json:"duration"`
	SourceDuration float64 `json:"source_duration"`
	TrimStart      float64 `json:"trim_start"`
	TrimEnd        float64 `json:"trim_end"`
	Kind           string  `json:"kind"`
}

// End returns the clip's end position on the timeline.
func (c Clip) End() float64 {
	return c.StartTime + c.Duration
}

// Contains reports whether t falls inside [StartTime, StartTime+Duration).
func (c Clip) Contains(t float64) bool {
	return t >= c.StartTime && t < c.End()
}

type Track struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Kind    string  `json:"kind"`
	Clips   []Clip  `json:"clips"`
	Muted   bool    `json:"muted"`
	Volume  float64 `json:"volume"`
	Locked  bool    `json:"locked"`
	Visible bool    `json:"visible"`
}

// SubtitleStyle carries the render tokens burned in on export.
type SubtitleStyle struct {
	Color           string `json:"color"`
	FontSize        int    `json:"font_size"`
	BackgroundColor string `json:"background_color"`
}

// Subtitle is timeline-absolute text; it has no owning clip.
type Subtitle struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	StartTime float64       `json:"start_time"`
	EndTime   float64       `json:"end_time"`
	Style     SubtitleStyle `json:"style"`
}

// ClipRef is the result of locating a clip across tracks.
type ClipRef struct {
	Track *Track
	Clip  *Clip
	Index int
}

// CalculateDuration returns the max end time across all clips on all
// tracks, or 0 when there are no clips.
func CalculateDuration(tracks []Track) float64 {
	var max float64
	for i := range tracks {
		for j := range tracks[i].Clips {
			if end := tracks[i].Clips[j].End(); end > max {
				max = end
			}
		}
	}
	return max
}

// FindClip locates a clip by id with a linear scan, first match wins.
// Clip ids are expected to be unique across all tracks.
func FindClip(tracks []Track, clipID string) (ClipRef, bool) {
	for i := range tracks {
		for j := range tracks[i].Clips {
			if tracks[i].Clips[j].ID == clipID {
				return ClipRef{Track: &tracks[i], Clip: &tracks[i].Clips[j], Index: j}, true
			}
		}
	}
	return ClipRef{}, false
}

// SortClips orders a track's clips by start time ascending. Ties keep
// their relative order so a split's second half stays after the first.
func SortClips(clips []Clip) {
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].StartTime < clips[j].StartTime
	})
}

// SortSubtitles orders subtitles by start time ascending.
func SortSubtitles(subs []Subtitle) {
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].StartTime < subs[j].StartTime
	})
}

// CloneTracks returns a deep copy safe to keep as a history snapshot.
func CloneTracks(tracks []Track) []Track {
	if tracks == nil {
		return nil
	}
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		out[i] = t
		out[i].Clips = append([]Clip(nil), t.Clips...)
	}
	return out
}

// CloneSubtitles returns a deep copy of the subtitle sequence.
func CloneSubtitles(subs []Subtitle) []Subtitle {
	if subs == nil {
		return nil
	}
	return append([]Subtitle(nil), subs...)
}
