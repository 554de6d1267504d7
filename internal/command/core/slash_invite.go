package core

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/discord"
)

// invitePermissions covers voice, embeds and message management.
const invitePermissions = 397556132976

type InviteCommand struct{}

func (c *InviteCommand) Name() string        { return "invite" }
func (c *InviteCommand) Description() string { return "Get a link to add the bot to another server" }
func (c *InviteCommand) Group() string       { return command.GroupCore }

func (c *InviteCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *InviteCommand) Run(_ context.Context, sc *command.SlashInteractionContext) error {
	return discord.RespondEphemeral(sc.Session, sc.Event, inviteText(sc.Event.AppID))
}

func inviteText(appID string) string {
	return fmt.Sprintf("Invite Link: \nhttps://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=%d", appID, invitePermissions)
}
