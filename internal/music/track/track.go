// Package track describes playable items as produced by the resolver.
package track

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("no tracks found")
	ErrUnknownProvider = errors.New("unknown provider")
)

// Track is an immutable description of a playable item. It is passed around by
// value; queue entries, history and the current slot all hold copies.
type Track struct {
	Identifier string
	Encoded    string // opaque backend handle used to start playback
	Title      string
	Author     string
	URI        string
	ArtworkURL string
	Duration   time.Duration
	Source     string
	IsStream   bool
}

// Same reports whether both values refer to the same backend item.
func (t Track) Same(other Track) bool {
	if t.Encoded != "" || other.Encoded != "" {
		return t.Encoded == other.Encoded
	}
	return t.Identifier == other.Identifier && t.URI == other.URI
}

// Display returns "Title - Author", tolerating missing metadata.
func (t Track) Display() string {
	switch {
	case t.Title != "" && t.Author != "":
		return t.Title + " - " + t.Author
	case t.Title != "":
		return t.Title
	case t.URI != "":
		return t.URI
	default:
		return "Unknown track"
	}
}

// Playlist is the result of resolving a playlist URL.
type Playlist struct {
	Name   string
	Tracks []Track
}

// TotalDuration sums the duration of every track that is not a live stream.
func TotalDuration(tracks []Track) time.Duration {
	var total time.Duration
	for _, t := range tracks {
		if !t.IsStream {
			total += t.Duration
		}
	}
	return total
}

// FormatDuration renders d as m:ss or h:mm:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Provider selects the search backend a plain query is sent to.
type Provider string

const (
	ProviderYouTube      Provider = "youtube"
	ProviderYouTubeMusic Provider = "youtube_music"
	ProviderSoundCloud   Provider = "soundcloud"
	ProviderSpotify      Provider = "spotify"
	ProviderAppleMusic   Provider = "apple_music"
	ProviderDeezer       Provider = "deezer"
	ProviderYandexMusic  Provider = "yandex_music"
	ProviderPlain        Provider = "plain"
)

// DefaultProvider is used when a command does not name one.
const DefaultProvider = ProviderSpotify

var providers = []struct {
	p      Provider
	label  string
	prefix string
}{
	{ProviderYouTubeMusic, "YouTube Music", "ytmsearch:"},
	{ProviderAppleMusic, "Apple Music", "amsearch:"},
	{ProviderSoundCloud, "SoundCloud", "scsearch:"},
	{ProviderDeezer, "Deezer", "dzsearch:"},
	{ProviderYouTube, "YouTube", "ytsearch:"},
	{ProviderSpotify, "Spotify", "spsearch:"},
	{ProviderYandexMusic, "Yandex Music", "ymsearch:"},
	{ProviderPlain, "Plain", ""},
}

// Providers lists every provider in display order.
func Providers() []Provider {
	out := make([]Provider, len(providers))
	for i, p := range providers {
		out[i] = p.p
	}
	return out
}

// ParseProvider maps a configured or user supplied name onto a Provider. An empty
// name yields DefaultProvider.
func ParseProvider(name string) (Provider, error) {
	if name == "" {
		return DefaultProvider, nil
	}
	n := strings.ToLower(strings.TrimSpace(name))
	for _, p := range providers {
		if string(p.p) == n {
			return p.p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

// Label is the human readable provider name.
func (p Provider) Label() string {
	for _, e := range providers {
		if e.p == p {
			return e.label
		}
	}
	return string(p)
}

// SearchPrefix is the backend search prefix; Plain has none.
func (p Provider) SearchPrefix() string {
	for _, e := range providers {
		if e.p == p {
			return e.prefix
		}
	}
	return ""
}

// Identifier turns a query into a backend identifier. URLs are passed through
// untouched; everything else gets the provider's search prefix.
func (p Provider) Identifier(query string) string {
	q := strings.TrimSpace(query)
	if strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://") {
		return q
	}
	return p.SearchPrefix() + q
}
