package music

import (
	"fmt"
	"strings"

	"github.com/keshon/deejay/internal/music/state"
	"github.com/keshon/deejay/internal/music/track"
)

func link(t track.Track) string {
	title := t.Title
	if title == "" {
		title = "Unknown track"
	}
	if t.URI == "" {
		return title
	}
	return fmt.Sprintf("[%s](%s)", title, t.URI)
}

// formatQueue renders the current track, up to limit queued entries and the
// total queued duration.
func formatQueue(st *state.PlaybackState, limit int) string {
	if st.Current == nil && len(st.Queue) == 0 {
		return "The queue is empty."
	}
	var b strings.Builder
	if st.Current != nil {
		fmt.Fprintf(&b, "**Now Playing:** %s\n\n", st.Current.Display())
	}
	if len(st.Queue) == 0 {
		b.WriteString("The queue is empty.")
		return b.String()
	}
	b.WriteString("**Queue:**\n")
	shown := st.Queue
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for i, t := range shown {
		fmt.Fprintf(&b, "%d. %s - %s `[src: %s]`\n", i+1, link(t), t.Author, t.Source)
	}
	if rest := len(st.Queue) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "... %d more tracks\n", rest)
	}
	fmt.Fprintf(&b, "\n**Total Duration:** %s", track.FormatDuration(track.TotalDuration(st.Queue)))
	return b.String()
}

// formatHistory lists recent tracks, newest first.
func formatHistory(recent []track.Track) string {
	if len(recent) == 0 {
		return "No tracks in history."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Last %d Songs** (most recent first):\n", len(recent))
	for _, t := range recent {
		fmt.Fprintf(&b, "- %s - %s `[via %s]`\n", link(t), t.Author, t.Source)
	}
	return strings.TrimRight(b.String(), "\n")
}
