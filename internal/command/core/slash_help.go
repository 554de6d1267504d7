package core

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/discord"
	"github.com/keshon/deejay/internal/music/status"
	"github.com/keshon/deejay/pkg/cmd"
)

var groupOrder = []string{command.GroupPlayback, command.GroupQueue, command.GroupCore}

var groupTitles = map[string]string{
	command.GroupPlayback: "Playback",
	command.GroupQueue:    "Queue",
	command.GroupCore:     "General",
}

type HelpCommand struct{ *Deps }

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Get a list of available commands" }
func (c *HelpCommand) Group() string       { return command.GroupCore }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *HelpCommand) Run(_ context.Context, sc *command.SlashInteractionContext) error {
	embed := discord.Embed(buildHelp(c.Commands.GetAll()))
	embed.Title = status.BotName + " Help"
	return discord.RespondEmbedEphemeral(sc.Session, sc.Event, embed)
}

func buildHelp(all []cmd.Command) string {
	byGroup := lo.GroupBy(all, func(c cmd.Command) string {
		if m, ok := cmd.Root(c).(command.DiscordMeta); ok {
			return m.Group()
		}
		return command.GroupCore
	})

	var sb strings.Builder
	for _, g := range groupOrder {
		cmds := byGroup[g]
		if len(cmds) == 0 {
			continue
		}
		slices.SortFunc(cmds, func(a, b cmd.Command) int { return strings.Compare(a.Name(), b.Name()) })
		fmt.Fprintf(&sb, "**%s**\n", groupTitles[g])
		for _, c := range cmds {
			fmt.Fprintf(&sb, "`/%s` - %s\n", c.Name(), c.Description())
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
