package command

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/deejay/pkg/cmd"
)

// Command groups. Middleware uses them to decide which checks apply.
const (
	GroupCore     = "core"
	GroupPlayback = "playback"
	GroupQueue    = "queue"
)

// SlashInteractionContext is what the runtime passes when a slash command runs.
type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
}

type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// DiscordMeta is exposed by the Discord adapter so middleware can read the
// group without depending on the concrete command type.
type DiscordMeta interface {
	Group() string
}

// DiscordCommand is what individual Discord commands implement.
type DiscordCommand interface {
	Name() string
	Description() string
	Group() string
	Run(ctx context.Context, sc *SlashInteractionContext) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the
// universal registry.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string        { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string { return a.Cmd.Description() }
func (a *DiscordAdapter) Group() string       { return a.Cmd.Group() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, ok := inv.Data.(*SlashInteractionContext)
	if !ok {
		return nil
	}
	return a.Cmd.Run(ctx, sc)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

// RegisterCommand registers a Discord command with reg and applies middlewares.
func RegisterCommand(reg *cmd.Registry, discordCmd DiscordCommand, mws ...cmd.Middleware) {
	c := cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...)
	reg.Register(c)
}

// Options returns the slash command options keyed by name.
func Options(e *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	data := e.ApplicationCommandData()
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, o := range data.Options {
		out[o.Name] = o
	}
	return out
}
