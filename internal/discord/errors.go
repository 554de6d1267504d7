package discord

import (
	"errors"
	"fmt"

	"github.com/keshon/deejay/internal/music/lavalink"
	"github.com/keshon/deejay/internal/music/lyrics"
	"github.com/keshon/deejay/internal/music/player"
	"github.com/keshon/deejay/internal/music/status"
	"github.com/keshon/deejay/internal/music/track"
)

// ErrorText turns an error from a command or button into the reply users see.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, player.ErrNotInVoice):
		return "You need to be in a voice channel for that."
	case errors.Is(err, player.ErrWrongVoiceChannel):
		return "You are not in the same voice channel as the bot."
	case errors.Is(err, player.ErrNoSession), errors.Is(err, player.ErrSessionClosed):
		return fmt.Sprintf("%s isn't playing anything.", status.BotName)
	case errors.Is(err, player.ErrNothingPlaying):
		return "No track playing."
	case errors.Is(err, player.ErrQueueFull):
		return "The queue is full."
	case errors.Is(err, player.ErrNoStatusMessage):
		return "No embed message found."
	case errors.Is(err, player.ErrUnknownAction):
		return "That button doesn't do anything anymore."
	case errors.Is(err, player.ErrInvalidArgument):
		return "Invalid input: " + err.Error()
	case errors.Is(err, track.ErrNotFound):
		return "No tracks found, try a different provider with the command options."
	case errors.Is(err, lavalink.ErrLoadFailed):
		return "Couldn't load that, try a different provider with the command options."
	case errors.Is(err, lyrics.ErrNotFound):
		return "No lyrics found."
	case errors.Is(err, player.ErrBackend), errors.Is(err, lavalink.ErrNotReady):
		return "The audio server didn't respond, try again in a moment."
	default:
		return "Something went wrong, try again."
	}
}

// Expected reports whether err is a user-facing outcome rather than a fault
// worth logging.
func Expected(err error) bool {
	for _, target := range []error{
		player.ErrNotInVoice, player.ErrWrongVoiceChannel, player.ErrNoSession,
		player.ErrSessionClosed, player.ErrNothingPlaying, player.ErrQueueFull,
		player.ErrNoStatusMessage, player.ErrUnknownAction, player.ErrInvalidArgument,
		track.ErrNotFound, lyrics.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
