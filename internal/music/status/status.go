// Package status renders the live playback card and defines the message handle
// the session pushes it through.
package status

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// ErrMessageNotFound is returned by a Sink when the message was deleted out of band.
var ErrMessageNotFound = errors.New("status message not found")

// Button custom IDs carried by the card.
const (
	ActionTogglePlayback = "toggle_playback"
	ActionSkip           = "skip"
	ActionStop           = "stop"
	ActionToggleRepeat   = "toggle_repeat"
	ActionToggleShuffle  = "toggle_shuffle"
)

var actions = []string{
	ActionTogglePlayback,
	ActionSkip,
	ActionStop,
	ActionToggleRepeat,
	ActionToggleShuffle,
}

// IsAction reports whether id is one of the card's button IDs.
func IsAction(id string) bool {
	for _, a := range actions {
		if a == id {
			return true
		}
	}
	return false
}

// Payload is what gets sent to the chat platform.
type Payload struct {
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

// Handle identifies one posted status message.
type Handle struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

// Valid reports whether h points at a message.
func (h Handle) Valid() bool { return h.MessageID != 0 }

// Sink posts, edits and removes status messages. Modify and Delete return an
// error wrapping ErrMessageNotFound when the message no longer exists.
type Sink interface {
	Create(ctx context.Context, channelID snowflake.ID, p Payload) (Handle, error)
	Modify(ctx context.Context, h Handle, p Payload) error
	Delete(ctx context.Context, h Handle) error
}
