package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"

	"github.com/keshon/deejay/internal/music/status"
)

// Click is one press of a status card button.
type Click struct {
	GuildID  snowflake.ID
	UserID   snowflake.ID
	ActionID string
}

// Controls turns button clicks into session commands.
type Controls struct {
	registry *Registry
	voice    VoiceLocator
}

func NewControls(r *Registry, v VoiceLocator) *Controls {
	return &Controls{registry: r, voice: v}
}

// Authorize returns the guild's session if userID shares its voice channel.
func (c *Controls) Authorize(guildID, userID snowflake.ID) (*Session, error) {
	s, ok := c.registry.Lookup(guildID)
	if !ok {
		return nil, ErrNoSession
	}
	ch, err := c.voice.UserVoiceChannel(guildID, userID)
	if err != nil {
		if errors.Is(err, ErrNotInVoice) {
			return nil, ErrWrongVoiceChannel
		}
		return nil, err
	}
	if ch != s.VoiceChannelID() {
		return nil, ErrWrongVoiceChannel
	}
	return s, nil
}

// HandleClick runs the command bound to the clicked button. Rejected clicks
// leave the session untouched.
func (c *Controls) HandleClick(ctx context.Context, click Click) error {
	if !status.IsAction(click.ActionID) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, click.ActionID)
	}
	s, err := c.Authorize(click.GuildID, click.UserID)
	if err != nil {
		return err
	}

	switch click.ActionID {
	case status.ActionTogglePlayback:
		_, err = s.TogglePause(ctx)
	case status.ActionSkip:
		_, err = s.Skip(ctx, 0, 1)
	case status.ActionStop:
		err = s.Stop(ctx)
	case status.ActionToggleRepeat:
		_, err = s.CycleRepeat(ctx)
	case status.ActionToggleShuffle:
		_, err = s.ToggleShuffle(ctx)
	}
	return err
}
