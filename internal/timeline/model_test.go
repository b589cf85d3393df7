package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDuration(t *testing.T) {
	tests := []struct {
		name   string
		tracks []Track
		want   float64
	}{
		{name: "no tracks", tracks: nil, want: 0},
		{name: "empty track", tracks: []Track{{Kind: KindVideo}}, want: 0},
		{
			name: "single clip",
			tracks: []Track{{Kind: KindVideo, Clips: []Clip{
				{StartTime: 0, Duration: 5},
			}}},
			want: 5,
		},
		{
			name: "max across tracks",
			tracks: []Track{
				{Kind: KindVideo, Clips: []Clip{{StartTime: 0, Duration: 5}, {StartTime: 5, Duration: 3}}},
				{Kind: KindAudio, Clips: []Clip{{StartTime: 2, Duration: 4}}},
			},
			want: 8,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateDuration(tc.tracks))
		})
	}
}

func TestFindClip(t *testing.T) {
	tracks := []Track{
		{ID: "t1", Kind: KindVideo, Clips: []Clip{{ID: "a"}, {ID: "b"}}},
		{ID: "t2", Kind: KindAudio, Clips: []Clip{{ID: "c"}}},
	}

	ref, ok := FindClip(tracks, "c")
	require.True(t, ok)
	assert.Equal(t, "t2", ref.Track.ID)
	assert.Equal(t, 0, ref.Index)

	_, ok = FindClip(tracks, "missing")
	assert.False(t, ok)
}

func TestFindClipReturnsMutablePointer(t *testing.T) {
	tracks := []Track{{ID: "t1", Kind: KindVideo, Clips: []Clip{{ID: "a", StartTime: 1}}}}

	ref, ok := FindClip(tracks, "a")
	require.True(t, ok)
	ref.Clip.StartTime = 9

	assert.Equal(t, 9.0, tracks[0].Clips[0].StartTime)
}

func TestSortClipsStable(t *testing.T) {
	clips := []Clip{
		{ID: "late", StartTime: 4},
		{ID: "first-half", StartTime: 2},
		{ID: "second-half", StartTime: 2},
		{ID: "early", StartTime: 0},
	}
	SortClips(clips)

	ids := []string{clips[0].ID, clips[1].ID, clips[2].ID, clips[3].ID}
	assert.Equal(t, []string{"early", "first-half", "second-half", "late"}, ids)
}

func TestCloneTracksIsDeep(t *testing.T) {
	tracks := []Track{{ID: "t1", Clips: []Clip{{ID: "a", StartTime: 1}}}}
	snap := CloneTracks(tracks)

	tracks[0].Clips[0].StartTime = 99
	tracks[0].Clips = append(tracks[0].Clips, Clip{ID: "b"})

	require.Len(t, snap[0].Clips, 1)
	assert.Equal(t, 1.0, snap[0].Clips[0].StartTime)
}

func TestClipContains(t *testing.T) {
	c := Clip{StartTime: 2, Duration: 3}
	assert.True(t, c.Contains(2))
	assert.True(t, c.Contains(4.999))
	assert.False(t, c.Contains(5))
	assert.False(t, c.Contains(1.999))
}
