package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkanjani/ViralShorts/internal/timeline"
)

func TestSliceWordsProportionalToWeight(t *testing.T) {
	// weights: "hi"=4, "there"=7, total 11 over 11s -> 4s and 7s.
	words := SliceWords("hi there", 0, 11)
	require.Len(t, words, 2)

	assert.Equal(t, "hi", words[0].Word)
	assert.InDelta(t, 0, words[0].StartTime, 1e-9)
	assert.InDelta(t, 4, words[0].EndTime, 1e-9)

	assert.Equal(t, "there", words[1].Word)
	assert.InDelta(t, 4, words[1].StartTime, 1e-9)
	assert.InDelta(t, 11, words[1].EndTime, 1e-9)
}

func TestSliceWordsAnchoredAtStart(t *testing.T) {
	words := SliceWords("one two three", 5, 3)
	require.Len(t, words, 3)
	assert.InDelta(t, 5, words[0].StartTime, 1e-9)
	assert.InDelta(t, 8, words[len(words)-1].EndTime, 1e-9)

	// Contiguous: each word starts where the previous ended.
	for i := 1; i < len(words); i++ {
		assert.InDelta(t, words[i-1].EndTime, words[i].StartTime, 1e-9)
	}
}

func TestSliceWordsDegenerateInput(t *testing.T) {
	assert.Nil(t, SliceWords("", 0, 5))
	assert.Nil(t, SliceWords("   ", 0, 5))
	assert.Nil(t, SliceWords("word", 0, 0))
}

func TestActiveWordIndex(t *testing.T) {
	words := SliceWords("alpha beta gamma", 0, 6)
	require.Len(t, words, 3)

	assert.Equal(t, 0, ActiveWordIndex(words, words[0].StartTime))
	assert.Equal(t, 1, ActiveWordIndex(words, words[1].StartTime+0.01))
	assert.Equal(t, 2, ActiveWordIndex(words, 5.99))
	assert.Equal(t, -1, ActiveWordIndex(words, 6))
	assert.Equal(t, -1, ActiveWordIndex(words, -1))
}

func TestWriteSRT(t *testing.T) {
	srt := WriteSRT([]WordTiming{
		{Word: "hello", StartTime: 0, EndTime: 1.5},
		{Word: "world", StartTime: 1.5, EndTime: 3},
	})

	assert.Contains(t, srt, "1\n00:00:00,000 --> 00:00:01,500\nhello\n\n")
	assert.Contains(t, srt, "2\n00:00:01,500 --> 00:00:03,000\nworld\n\n")
}

func TestSRTTimestampRounding(t *testing.T) {
	assert.Equal(t, "00:01:01,001", srtTimestamp(61.0009))
	assert.Equal(t, "01:00:00,000", srtTimestamp(3600))
}

func TestForceStyle(t *testing.T) {
	style := ForceStyle(timeline.SubtitleStyle{
		Color:           "#FFCC00",
		FontSize:        24,
		BackgroundColor: "#000000",
	})

	assert.Contains(t, style, "Fontsize=24")
	assert.Contains(t, style, "PrimaryColour=&H00CCFF&")
	assert.Contains(t, style, "BackColour=&H000000&")
	assert.Contains(t, style, "Alignment=2")
}

func TestForceStyleSkipsBadColor(t *testing.T) {
	style := ForceStyle(timeline.SubtitleStyle{Color: "yellow"})
	assert.NotContains(t, style, "PrimaryColour")
}
