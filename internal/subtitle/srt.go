package subtitle

import (
	"fmt"
	"strings"

	"github.com/rkanjani/ViralShorts/internal/timeline"
)

// WriteSRT renders word-level timings as an SRT document with one cue
// per word, the format ffmpeg's subtitles filter burns in directly.
func WriteSRT(words []WordTiming) string {
	var b strings.Builder
	for i, w := range words {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(w.StartTime), srtTimestamp(w.EndTime), w.Word)
	}
	return b.String()
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3600000
	m := ms % 3600000 / 60000
	s := ms % 60000 / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// ForceStyle builds the ffmpeg force_style argument for a burn-in
// style. Colors are CSS-style #RRGGBB tokens; ASS wants &HBBGGRR&.
func ForceStyle(style timeline.SubtitleStyle) string {
	parts := []string{"Alignment=2", "MarginV=40"}
	if style.FontSize > 0 {
		parts = append(parts, fmt.Sprintf("Fontsize=%d", style.FontSize))
	}
	if c, ok := assColor(style.Color); ok {
		parts = append(parts, "PrimaryColour="+c)
	}
	if c, ok := assColor(style.BackgroundColor); ok {
		parts = append(parts, "BackColour="+c, "BorderStyle=4")
	}
	return strings.Join(parts, ",")
}

func assColor(hex string) (string, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return "", false
	}
	r, g, b := hex[0:2], hex[2:4], hex[4:6]
	return "&H" + strings.ToUpper(b+g+r) + "&", true
}
