// Package lavalink talks to a Lavalink v4 node: the REST API for loading tracks
// and driving players, and the websocket for player events.
package lavalink

import (
	"encoding/json"
	"time"

	"github.com/keshon/deejay/internal/music/track"
)

// Load types returned by /v4/loadtracks.
const (
	LoadTrack    = "track"
	LoadPlaylist = "playlist"
	LoadSearch   = "search"
	LoadEmpty    = "empty"
	LoadError    = "error"
)

// TrackInfo is the metadata Lavalink attaches to an encoded track.
type TrackInfo struct {
	Identifier string  `json:"identifier"`
	IsSeekable bool    `json:"isSeekable"`
	Author     string  `json:"author"`
	Length     int64   `json:"length"`
	IsStream   bool    `json:"isStream"`
	Position   int64   `json:"position"`
	Title      string  `json:"title"`
	URI        *string `json:"uri"`
	ArtworkURL *string `json:"artworkUrl"`
	ISRC       *string `json:"isrc"`
	SourceName string  `json:"sourceName"`
}

// Track is a track as Lavalink serializes it.
type Track struct {
	Encoded string    `json:"encoded"`
	Info    TrackInfo `json:"info"`
}

// Domain converts t into the value the player works with.
func (t Track) Domain() track.Track {
	return track.Track{
		Identifier: t.Info.Identifier,
		Encoded:    t.Encoded,
		Title:      t.Info.Title,
		Author:     t.Info.Author,
		URI:        deref(t.Info.URI),
		ArtworkURL: deref(t.Info.ArtworkURL),
		Duration:   time.Duration(t.Info.Length) * time.Millisecond,
		Source:     t.Info.SourceName,
		IsStream:   t.Info.IsStream,
	}
}

// Exception is Lavalink's error payload for failed loads and playback.
type Exception struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

// PlaylistData is the data of a "playlist" load result.
type PlaylistData struct {
	Info struct {
		Name          string `json:"name"`
		SelectedTrack int    `json:"selectedTrack"`
	} `json:"info"`
	Tracks []Track `json:"tracks"`
}

// LoadResult is the raw response of /v4/loadtracks; Data depends on LoadType.
type LoadResult struct {
	LoadType string          `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}

// VoiceState is the Discord voice connection Lavalink needs to stream audio.
type VoiceState struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

// Complete reports whether every field has been received from Discord.
func (v VoiceState) Complete() bool {
	return v.Token != "" && v.Endpoint != "" && v.SessionID != ""
}

// UpdateTrack selects the track to play; a nil Encoded stops the player.
type UpdateTrack struct {
	Encoded *string `json:"encoded"`
}

// PlayerUpdate is the body of PATCH /v4/sessions/{session}/players/{guild}.
type PlayerUpdate struct {
	Track  *UpdateTrack `json:"track,omitempty"`
	Paused *bool        `json:"paused,omitempty"`
	Volume *int         `json:"volume,omitempty"`
	Voice  *VoiceState  `json:"voice,omitempty"`
}

// message is any frame received on the websocket.
type message struct {
	Op        string `json:"op"`
	SessionID string `json:"sessionId"`
	Resumed   bool   `json:"resumed"`
	GuildID   string `json:"guildId"`

	Type      string     `json:"type"`
	Track     *Track     `json:"track"`
	Reason    string     `json:"reason"`
	Exception *Exception `json:"exception"`
	Threshold int64      `json:"thresholdMs"`
	Code      int        `json:"code"`
	ByRemote  bool       `json:"byRemote"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
