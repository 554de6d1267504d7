// Package discord connects the playback core to the Discord gateway: it
// dispatches slash commands and button clicks, forwards voice credentials to
// Lavalink and keeps per-guild command registrations in sync.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/music/lavalink"
	"github.com/keshon/deejay/internal/music/player"
	"github.com/keshon/deejay/pkg/cmd"
)

const (
	handlerTimeout  = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

// Deps are the collaborators the bot dispatches into.
type Deps struct {
	Registry  *player.Registry
	Controls  *player.Controls
	Node      *lavalink.Node
	Commands  *cmd.Registry
	Blacklist func(guildID snowflake.ID) bool
	HashDir   string
	Logger    zerolog.Logger
}

// Bot is a Discord bot
type Bot struct {
	dg        *discordgo.Session
	registry  *player.Registry
	controls  *player.Controls
	node      *lavalink.Node
	commands  *cmd.Registry
	blacklist func(snowflake.ID) bool
	hashes    hashStore
	log       zerolog.Logger

	ctx context.Context
}

// NewBot wires the handlers onto dg. Nothing is sent until Run.
func NewBot(dg *discordgo.Session, d Deps) *Bot {
	if d.Blacklist == nil {
		d.Blacklist = func(snowflake.ID) bool { return false }
	}
	b := &Bot{
		dg:        dg,
		registry:  d.Registry,
		controls:  d.Controls,
		node:      d.Node,
		commands:  d.Commands,
		blacklist: d.Blacklist,
		hashes:    hashStore{dir: d.HashDir},
		log:       d.Logger.With().Str("component", "discord").Logger(),
		ctx:       context.Background(),
	}

	dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)
	dg.AddHandler(b.onVoiceStateUpdate)
	dg.AddHandler(b.onVoiceServerUpdate)
	return b
}

// Run opens the gateway and blocks until ctx is done, then closes every
// playback session before disconnecting.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, cleaning up")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.registry.Shutdown(sctx); err != nil {
		b.log.Warn().Err(err).Msg("failed to close all sessions")
	}
	return nil
}

func (b *Bot) handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.ctx, handlerTimeout)
}

// onReady leaves blacklisted guilds and syncs commands everywhere else.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.setupGuild(s, g.ID)
	}
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Debug().Str("guild", g.ID).Str("name", g.Name).Msg("guild available")
	b.setupGuild(s, g.ID)
}

func (b *Bot) setupGuild(s *discordgo.Session, guildID string) {
	log := b.log.With().Str("guild", guildID).Logger()
	if b.isGuildBlacklisted(guildID) {
		log.Info().Msg("leaving blacklisted guild")
		if err := s.GuildLeave(guildID); err != nil {
			log.Error().Err(err).Msg("failed to leave guild")
		}
		return
	}
	if err := b.registerCommands(guildID); err != nil {
		log.Error().Err(err).Msg("failed to register slash commands")
	}
}

func (b *Bot) isGuildBlacklisted(guildID string) bool {
	id, err := snowflake.Parse(guildID)
	return err == nil && b.blacklist(id)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.runSlash(s, i)
	case discordgo.InteractionMessageComponent:
		b.runClick(s, i)
	default:
		b.log.Debug().Int("type", int(i.Type)).Msg("unknown interaction type")
	}
}

func (b *Bot) runSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	c := b.commands.Get(name)
	if c == nil {
		b.log.Warn().Str("command", name).Msg("unknown command")
		return
	}

	ctx, cancel := b.handlerContext()
	defer cancel()
	inv := &cmd.Invocation{Data: &command.SlashInteractionContext{Session: s, Event: i}}
	if err := c.Run(ctx, inv); err != nil {
		b.log.Error().Err(err).Str("command", name).Str("guild", i.GuildID).Msg("error running slash command")
	}
}

// runClick feeds a status card button into the guild's session. Accepted
// clicks are acknowledged silently; the card update is the visible result.
func (b *Bot) runClick(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	guildID, _ := snowflake.Parse(i.GuildID)
	userID, _ := snowflake.Parse(InteractionUser(i).ID)

	ctx, cancel := b.handlerContext()
	defer cancel()

	err := b.controls.HandleClick(ctx, player.Click{GuildID: guildID, UserID: userID, ActionID: data.CustomID})
	if err != nil {
		b.log.Debug().Err(err).Str("guild", i.GuildID).Str("action", data.CustomID).Msg("click rejected")
		err = RespondEphemeral(s, i, ErrorText(err))
	} else {
		err = RespondDeferredUpdate(s, i)
	}
	if err != nil {
		b.log.Warn().Err(err).Str("action", data.CustomID).Msg("failed to answer click")
	}
}

// onVoiceStateUpdate keeps the guild's session bound to the channel the bot is
// actually in and forwards the bot's voice session to Lavalink.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || v.UserID != s.State.User.ID {
		return
	}
	guildID, err := snowflake.Parse(v.GuildID)
	if err != nil {
		return
	}
	var channelID snowflake.ID
	if v.ChannelID != "" {
		if channelID, err = snowflake.Parse(v.ChannelID); err != nil {
			return
		}
	}
	ctx, cancel := b.handlerContext()
	defer cancel()

	b.registry.VoiceStateChanged(ctx, guildID, channelID)
	if channelID == 0 {
		return
	}
	if p, ok := b.node.Lookup(guildID); ok {
		if err := p.UpdateVoice(ctx, lavalink.VoiceState{SessionID: v.SessionID}); err != nil {
			b.log.Warn().Err(err).Str("guild", v.GuildID).Msg("failed to forward voice state")
		}
	}
}

func (b *Bot) onVoiceServerUpdate(_ *discordgo.Session, v *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(v.GuildID)
	if err != nil || v.Endpoint == "" {
		return
	}
	p, ok := b.node.Lookup(guildID)
	if !ok {
		return
	}
	ctx, cancel := b.handlerContext()
	defer cancel()
	if err := p.UpdateVoice(ctx, lavalink.VoiceState{Token: v.Token, Endpoint: v.Endpoint}); err != nil {
		b.log.Warn().Err(err).Str("guild", v.GuildID).Msg("failed to forward voice server")
	}
}
