package player

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"

	"github.com/keshon/deejay/internal/music/inactivity"
	"github.com/keshon/deejay/internal/music/track"
)

var (
	ErrNotInVoice        = errors.New("you must be in a voice channel")
	ErrWrongVoiceChannel = errors.New("you are not in the same voice channel as the bot")
	ErrNoSession         = errors.New("no player found")
	ErrNothingPlaying    = errors.New("no track playing")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrBackend           = errors.New("audio backend failure")
	ErrSessionClosed     = errors.New("player session closed")
	ErrUnknownAction     = errors.New("unknown action")
	ErrQueueFull         = errors.New("queue is full")
	ErrNoStatusMessage   = errors.New("no status message found")
)

// Backend is the audio player for one guild. The queue lives in the session;
// the backend only ever plays one track at a time.
type Backend interface {
	Play(ctx context.Context, t track.Track) error
	SetPaused(ctx context.Context, paused bool) error
	Stop(ctx context.Context) error
	SetVolume(ctx context.Context, volume int) error
	Destroy(ctx context.Context) error
}

// BackendFunc builds the backend player for a guild. It must not perform I/O.
type BackendFunc func(guildID snowflake.ID) Backend

// Voice joins and leaves voice channels on the chat platform.
type Voice interface {
	Connect(ctx context.Context, guildID, channelID snowflake.ID) error
	Disconnect(ctx context.Context, guildID snowflake.ID) error
}

// VoiceLocator finds the voice channel a user currently sits in. It returns
// ErrNotInVoice when the user is in none.
type VoiceLocator interface {
	UserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}

// ActivityTracker is told whether a session is producing audio.
type ActivityTracker interface {
	Track(guildID snowflake.ID, l inactivity.Listener)
	Active(guildID snowflake.ID)
	Idle(guildID snowflake.ID)
	Forget(guildID snowflake.ID)
}

// TrackEndReason is the backend's explanation for a track ending.
type TrackEndReason string

const (
	EndFinished   TrackEndReason = "finished"
	EndLoadFailed TrackEndReason = "loadFailed"
	EndStopped    TrackEndReason = "stopped"
	EndReplaced   TrackEndReason = "replaced"
	EndCleanup    TrackEndReason = "cleanup"
)

// MayStartNext reports whether the next queued track should follow.
func (r TrackEndReason) MayStartNext() bool {
	return r == EndFinished || r == EndLoadFailed
}

type noopActivity struct{}

func (noopActivity) Track(snowflake.ID, inactivity.Listener) {}
func (noopActivity) Active(snowflake.ID)                     {}
func (noopActivity) Idle(snowflake.ID)                       {}
func (noopActivity) Forget(snowflake.ID)                     {}
