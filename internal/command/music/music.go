// Package music holds the slash commands that drive a guild's playback session.
package music

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/discord"
	"github.com/keshon/deejay/internal/music/player"
	"github.com/keshon/deejay/internal/music/track"
	"github.com/keshon/deejay/pkg/cmd"
)

// Resolver turns queries into tracks.
type Resolver interface {
	ResolveOne(ctx context.Context, query string, p track.Provider) (track.Track, error)
	ResolvePlaylist(ctx context.Context, url string, p track.Provider) (track.Playlist, error)
}

// LyricsFetcher looks up song lyrics.
type LyricsFetcher interface {
	Get(ctx context.Context, author, title string) (string, error)
}

// Deps are shared by every music command.
type Deps struct {
	Registry     *player.Registry
	Voice        player.VoiceLocator
	Resolver     Resolver
	Lyrics       LyricsFetcher
	Provider     track.Provider
	DisplayLimit int
}

// Register adds every music command to reg.
func Register(reg *cmd.Registry, d *Deps, mws ...cmd.Middleware) {
	for _, c := range []command.DiscordCommand{
		&PlayCommand{d}, &FillCommand{d},
		&StopCommand{d}, &SkipCommand{d}, &PauseCommand{d}, &ResumeCommand{d},
		&VolumeCommand{d}, &RepeatCommand{d}, &ShuffleCommand{d},
		&QueueCommand{d}, &HistoryCommand{d}, &ClearCommand{d},
		&BumpCommand{d}, &LyricsCommand{d}, &NowPlayingCommand{d},
	} {
		command.RegisterCommand(reg, c, mws...)
	}
}

func ids(e *discordgo.InteractionCreate) (guildID, userID, channelID snowflake.ID) {
	guildID, _ = snowflake.Parse(e.GuildID)
	userID, _ = snowflake.Parse(discord.InteractionUser(e).ID)
	channelID, _ = snowflake.Parse(e.ChannelID)
	return guildID, userID, channelID
}

// session returns the guild's live session or player.ErrNoSession.
func (d *Deps) session(e *discordgo.InteractionCreate) (*player.Session, error) {
	guildID, _, _ := ids(e)
	s, ok := d.Registry.Lookup(guildID)
	if !ok {
		return nil, player.ErrNoSession
	}
	return s, nil
}

// withSession acknowledges the interaction, runs fn against the guild's
// session and edits the reply with its text. The acknowledgement comes first
// since fn may queue behind other operations of the session.
func (d *Deps) withSession(sc *command.SlashInteractionContext, fn func(*player.Session) (string, error)) error {
	if err := discord.RespondDeferredEphemeral(sc.Session, sc.Event); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}
	s, err := d.session(sc.Event)
	if err != nil {
		return failDeferred(sc, err)
	}
	text, err := fn(s)
	if err != nil {
		return failDeferred(sc, err)
	}
	return discord.EditResponse(sc.Session, sc.Event, text)
}

// fail reports err to the user. Faults are returned as well so the command
// logger records them.
func fail(sc *command.SlashInteractionContext, err error) error {
	rerr := discord.RespondEphemeral(sc.Session, sc.Event, discord.ErrorText(err))
	if discord.Expected(err) {
		return rerr
	}
	return errors.Join(err, rerr)
}

// failDeferred is fail for interactions answered with a deferred response.
func failDeferred(sc *command.SlashInteractionContext, err error) error {
	rerr := discord.EditResponse(sc.Session, sc.Event, discord.ErrorText(err))
	if discord.Expected(err) {
		return rerr
	}
	return errors.Join(err, rerr)
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, def int) int {
	if o, ok := opts[name]; ok {
		return int(o.IntValue())
	}
	return def
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if o, ok := opts[name]; ok {
		return o.StringValue()
	}
	return ""
}
