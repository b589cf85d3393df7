// Package export projects an editing-session snapshot into the flat
// request the transcode pipeline consumes. It never mutates the
// timeline it reads.
package export

import (
	"errors"

	"github.com/rkanjani/ViralShorts/internal/subtitle"
	"github.com/rkanjani/ViralShorts/internal/timeline"
)

// ErrNoExportableContent is returned when no clip resolves to a video
// URL; it is surfaced before the pipeline is ever invoked.
var ErrNoExportableContent = errors.New("export: no clips with a resolvable video url")

// Clip is one transcode unit, in timeline order. Times are seconds.
type Clip struct {
	LineID    string  `json:"line_id"`
	VideoURL  string  `json:"video_url"`
	AudioURL  string  `json:"audio_url,omitempty"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
}

// Subtitles carries the burn-in settings and the pre-computed
// word-level timing list.
type Subtitles struct {
	Enabled bool                    `json:"enabled"`
	Style   timeline.SubtitleStyle  `json:"style"`
	Words   []subtitle.WordTiming   `json:"words,omitempty"`
}

// Request is the complete input to one pipeline run. AudioMix blends
// native clip audio against narration globally: native gain = 1-mix,
// narration gain = mix.
type Request struct {
	Clips     []Clip    `json:"clips"`
	Subtitles Subtitles `json:"subtitles"`
	AudioMix  float64   `json:"audio_mix"`
}

// TrimOverride carries an interactive trim adjustment made in the
// export dialog without committing it to the timeline.
type TrimOverride struct {
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
}

// Options shape one build. NarrationURL resolves a narration audio URL
// per source line id; nil means no narration track.
type Options struct {
	TrimOverrides    map[string]TrimOverride
	NarrationURL     func(lineID string) string
	SubtitlesEnabled bool
	SubtitleStyle    timeline.SubtitleStyle
	AudioMix         float64
}
