package export

import (
	"sort"

	"github.com/rkanjani/ViralShorts/internal/editor"
	"github.com/rkanjani/ViralShorts/internal/subtitle"
	"github.com/rkanjani/ViralShorts/internal/timeline"
)

// Build flattens the snapshot's video clips into an ordered export
// request. Clips lacking a video URL are skipped; an empty result is
// ErrNoExportableContent. AudioMix is clamped to [0,1].
func Build(snap editor.Snapshot, opts Options) (*Request, error) {
	var clips []Clip
	for _, track := range snap.Tracks {
		if track.Kind != timeline.KindVideo {
			continue
		}
		for _, c := range track.Clips {
			if c.SourceURL == "" {
				continue
			}
			trimStart, trimEnd := c.TrimStart, c.TrimEnd
			duration := c.Duration
			if ov, ok := opts.TrimOverrides[c.ID]; ok {
				trimStart, trimEnd = ov.TrimStart, ov.TrimEnd
				if d := c.SourceDuration - trimStart - trimEnd; d > 0 {
					duration = d
				}
			}

			clip := Clip{
				LineID:    c.SourceID,
				VideoURL:  c.SourceURL,
				StartTime: c.StartTime,
				Duration:  duration,
				TrimStart: trimStart,
				TrimEnd:   trimEnd,
			}
			if opts.NarrationURL != nil {
				clip.AudioURL = opts.NarrationURL(c.SourceID)
			}
			clips = append(clips, clip)
		}
	}
	if len(clips) == 0 {
		return nil, ErrNoExportableContent
	}
	sortClipsByStart(clips)

	req := &Request{
		Clips:    clips,
		AudioMix: clampMix(opts.AudioMix),
		Subtitles: Subtitles{
			Enabled: opts.SubtitlesEnabled,
			Style:   opts.SubtitleStyle,
		},
	}
	if opts.SubtitlesEnabled {
		req.Subtitles.Words = buildWords(snap.Subtitles)
	}
	return req, nil
}

// buildWords slices every subtitle line into word-level timings
// anchored at its absolute timeline position.
func buildWords(subs []timeline.Subtitle) []subtitle.WordTiming {
	var words []subtitle.WordTiming
	for _, s := range subs {
		words = append(words, subtitle.SliceWords(s.Text, s.StartTime, s.EndTime-s.StartTime)...)
	}
	return words
}

func sortClipsByStart(clips []Clip) {
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].StartTime < clips[j].StartTime
	})
}

func clampMix(mix float64) float64 {
	if mix < 0 {
		return 0
	}
	if mix > 1 {
		return 1
	}
	return mix
}
