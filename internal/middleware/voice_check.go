package middleware

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/discord"
	"github.com/keshon/deejay/internal/music/player"
	"github.com/keshon/deejay/pkg/cmd"
)

// WithSameVoiceChannel rejects playback and queue commands from users who are
// not listening in the bot's voice channel. Guilds without a session pass
// through so the command can report that itself.
func WithSameVoiceChannel(controls *player.Controls) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		meta, ok := cmd.Root(c).(command.DiscordMeta)
		if !ok || (meta.Group() != command.GroupPlayback && meta.Group() != command.GroupQueue) {
			return c
		}
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.SlashInteractionContext)
			if !ok {
				return c.Run(ctx, inv)
			}
			guildID, _ := snowflake.Parse(v.Event.GuildID)
			userID, _ := snowflake.Parse(discord.InteractionUser(v.Event).ID)

			_, err := controls.Authorize(guildID, userID)
			if err != nil && !errors.Is(err, player.ErrNoSession) {
				return discord.RespondEphemeral(v.Session, v.Event, discord.ErrorText(err))
			}
			return c.Run(ctx, inv)
		})
	}
}
