package music

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/keshon/deejay/internal/music/state"
	"github.com/keshon/deejay/internal/music/track"
)

func song(n int) track.Track {
	return track.Track{
		Identifier: string(rune('a' + n)),
		Title:      "Song " + string(rune('A'+n)),
		Author:     "Band",
		URI:        "https://example.com/" + string(rune('a'+n)),
		Duration:   time.Minute,
		Source:     "spotify",
	}
}

func TestFormatQueue(t *testing.T) {
	cur := song(0)
	st := &state.PlaybackState{Current: &cur}
	for i := 1; i <= 5; i++ {
		st.Queue = append(st.Queue, song(i))
	}

	out := formatQueue(st, 3)
	assert.True(t, strings.HasPrefix(out, "**Now Playing:** Song A - Band"))
	assert.Contains(t, out, "1. [Song B](https://example.com/b) - Band `[src: spotify]`")
	assert.Contains(t, out, "3. [Song D](https://example.com/d) - Band")
	assert.NotContains(t, out, "Song E")
	assert.Contains(t, out, "... 2 more tracks")
	assert.Contains(t, out, "**Total Duration:** 5:00")
}

func TestFormatQueueEmpty(t *testing.T) {
	assert.Equal(t, "The queue is empty.", formatQueue(&state.PlaybackState{}, 10))

	cur := song(0)
	out := formatQueue(&state.PlaybackState{Current: &cur}, 10)
	assert.Contains(t, out, "Now Playing")
	assert.Contains(t, out, "The queue is empty.")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No tracks in history.", formatHistory(nil))

	out := formatHistory([]track.Track{song(2), song(1)})
	lines := strings.Split(out, "\n")
	assert.Equal(t, "**Last 2 Songs** (most recent first):", lines[0])
	assert.Equal(t, "- [Song C](https://example.com/c) - Band `[via spotify]`", lines[1])
	assert.Len(t, lines, 3)
}

func TestLinkWithoutURI(t *testing.T) {
	assert.Equal(t, "Live", link(track.Track{Title: "Live"}))
	assert.Equal(t, "Unknown track", link(track.Track{}))
}

func TestSkipText(t *testing.T) {
	assert.Equal(t, "Skipped 2 songs", skipText(2, 0))
	assert.Equal(t, "Skipped 3 songs from position 4", skipText(3, 4))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
}

func TestIsPlaylist(t *testing.T) {
	assert.True(t, isPlaylist("https://open.spotify.com/playlist/37i9dQZF1DX0XUsuxWHRQd"))
	assert.True(t, isPlaylist("https://www.youtube.com/PLAYLIST?list=x"))
	assert.False(t, isPlaylist("never gonna give you up"))
}
