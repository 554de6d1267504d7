package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/keshon/deejay/internal/music/player"
)

type joinFunc func(guildID, channelID string, mute, deaf bool) error

// Voice joins voice channels through the gateway only; audio itself is sent by
// Lavalink, so no UDP connection is opened here.
type Voice struct {
	state *discordgo.State
	join  joinFunc
}

func NewVoice(dg *discordgo.Session) *Voice {
	return &Voice{state: dg.State, join: dg.ChannelVoiceJoinManual}
}

// Connect joins channelID self-deafened.
func (v *Voice) Connect(_ context.Context, guildID, channelID snowflake.ID) error {
	if err := v.join(guildID.String(), channelID.String(), false, true); err != nil {
		return fmt.Errorf("join voice channel: %w", err)
	}
	return nil
}

// Disconnect leaves whatever voice channel the bot is in.
func (v *Voice) Disconnect(_ context.Context, guildID snowflake.ID) error {
	if err := v.join(guildID.String(), "", false, true); err != nil {
		return fmt.Errorf("leave voice channel: %w", err)
	}
	return nil
}

// UserVoiceChannel finds the voice channel of a user from the gateway state.
func (v *Voice) UserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error) {
	guild, err := v.state.Guild(guildID.String())
	if err != nil {
		return 0, fmt.Errorf("error retrieving guild: %w", err)
	}

	v.state.RLock()
	defer v.state.RUnlock()
	uid := userID.String()
	for _, vs := range guild.VoiceStates {
		if vs.UserID == uid && vs.ChannelID != "" {
			return snowflake.Parse(vs.ChannelID)
		}
	}
	return 0, player.ErrNotInVoice
}
