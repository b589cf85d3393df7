// Package subtitle computes word-level caption timing and writes the
// subtitle files burned in on export. Words are proportionally
// time-sliced within their line's speech window by character-count
// weighting, so longer words hold the highlight longer.
package subtitle

import "strings"

// WordTiming is one karaoke-style caption word with absolute timing.
type WordTiming struct {
	Word      string  `json:"word"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

/// weight gives short words a floor so they stay readable: a bare "a"
// still occupies 3 units against 7 for "hello".
func weight(word string) float64 {
	return float64(len(word) + 2)
}

// SliceWords distributes duration across the words of text in
// proportion to their weights, anchored at start. Empty text yields nil.
func SliceWords(text string, start, duration float64) []WordTiming {
	words := strings.Fields(text)
	if len(words) == 0 || duration <= 0 {
		return nil
	}

	var total float64
	for _, w := range words {
		total += weight(w)
	}

	out := make([]WordTiming, len(words))
	t := start
	for i, w := range words {
		d := duration * weight(w) / total
		out[i] = WordTiming{Word: w, StartTime: t, EndTime: t + d}
		t += d
	}
	// Absorb float accumulation error so the last word ends exactly on
	// the line boundary.
	out[len(out)-1].EndTime = start + duration
	return out
}

// ActiveWordIndex returns the index of the word active at time t by
// linear accumulation, or -1 when t falls outside every word's span.
func ActiveWordIndex(words []WordTiming, t float64) int {
	for i, w := range words {
		if t >= w.StartTime && t < w.EndTime {
			return i
		}
	}
	return -1
}
