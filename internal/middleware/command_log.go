package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/discord"
	"github.com/keshon/deejay/pkg/cmd"
)

// WithCommandLogger wraps a command to log its execution
func WithCommandLogger(logger zerolog.Logger) cmd.Middleware {
	log := logger.With().Str("component", "command").Logger()
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			ev := log.Info()
			if err != nil {
				ev = log.Error().Err(err)
			}
			ev = ev.Str("command", c.Name()).Dur("took", time.Since(start))
			if v, ok := inv.Data.(*command.SlashInteractionContext); ok {
				user := discord.InteractionUser(v.Event)
				ev = ev.Str("guild", v.Event.GuildID).Str("channel", v.Event.ChannelID).
					Str("user", user.ID).Str("username", user.Username)
			}
			ev.Msg("command executed")
			return err
		})
	}
}
