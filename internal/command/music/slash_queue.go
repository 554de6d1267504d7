package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/music/player"
)

type QueueCommand struct{ *Deps }

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show the queue" }
func (c *QueueCommand) Group() string       { return command.GroupQueue }

func (c *QueueCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description())
}

func (c *QueueCommand) Run(_ context.Context, sc *command.SlashInteractionContext) error {
	return c.withSession(sc, func(s *player.Session) (string, error) {
		return formatQueue(s.Snapshot(), c.DisplayLimit), nil
	})
}

type HistoryCommand struct{ *Deps }

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Description() string { return "Show recently played tracks" }
func (c *HistoryCommand) Group() string       { return command.GroupQueue }

func (c *HistoryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description())
}

func (c *HistoryCommand) Run(_ context.Context, sc *command.SlashInteractionContext) error {
	return c.withSession(sc, func(s *player.Session) (string, error) {
		return formatHistory(s.Snapshot().RecentHistory()), nil
	})
}

type ClearCommand struct{ *Deps }

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Description() string { return "Remove every queued track" }
func (c *ClearCommand) Group() string       { return command.GroupQueue }

func (c *ClearCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description())
}

func (c *ClearCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	return c.withSession(sc, func(s *player.Session) (string, error) {
		_, err := s.Clear(ctx)
		return "Cleared the queue", err
	})
}

type BumpCommand struct{ *Deps }

func (c *BumpCommand) Name() string        { return "bump" }
func (c *BumpCommand) Description() string { return "Move the player message to the bottom of the channel" }
func (c *BumpCommand) Group() string       { return command.GroupQueue }

func (c *BumpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description())
}

func (c *BumpCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	_, _, channelID := ids(sc.Event)
	return c.withSession(sc, func(s *player.Session) (string, error) {
		if err := s.Repost(ctx, channelID); err != nil {
			return "", fmt.Errorf("repost: %w", err)
		}
		return "Bumped the message.", nil
	})
}
