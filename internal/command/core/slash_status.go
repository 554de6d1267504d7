package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/discord"
	"github.com/keshon/deejay/internal/music/status"
	"github.com/keshon/deejay/pkg/util"
)

type StatusCommand struct{ *Deps }

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Check whether the bot is up" }
func (c *StatusCommand) Group() string       { return command.GroupCore }

func (c *StatusCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *StatusCommand) Run(_ context.Context, sc *command.SlashInteractionContext) error {
	return discord.RespondEmbedEphemeral(sc.Session, sc.Event, discord.Embed(c.text(time.Now())))
}

func (c *StatusCommand) text(now time.Time) string {
	out := fmt.Sprintf("%s is online and ready to play some music!", status.BotName)
	if !c.Started.IsZero() {
		out += fmt.Sprintf("\nUp since %s UTC (%s)",
			util.FormatDateTpl(c.Started.UnixMilli(), "YYYY-MM-DD hh:mm"),
			now.Sub(c.Started).Round(time.Minute))
	}
	if c.Sessions != nil {
		out += fmt.Sprintf("\nPlaying in %d servers", c.Sessions())
	}
	if c.Jobs != nil {
		out += "\n" + c.Jobs()
	}
	return out
}
