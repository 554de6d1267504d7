package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/discord"
	"github.com/keshon/deejay/internal/music/player"
	"github.com/keshon/deejay/internal/music/track"
)

const maxEmbedDescription = 4096

type LyricsCommand struct{ *Deps }

func (c *LyricsCommand) Name() string        { return "lyrics" }
func (c *LyricsCommand) Description() string { return "Show lyrics of the current track" }
func (c *LyricsCommand) Group() string       { return command.GroupPlayback }

func (c *LyricsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description())
}

func (c *LyricsCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	cur, err := c.current(sc)
	if err != nil {
		return fail(sc, err)
	}
	if err := discord.RespondDeferredEphemeral(sc.Session, sc.Event); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}
	text, err := c.Lyrics.Get(ctx, cur.Author, cur.Title)
	if err != nil {
		return failDeferred(sc, err)
	}
	embed := discord.Embed(truncate(text, maxEmbedDescription))
	embed.Title = cur.Display()
	embed.URL = cur.URI
	return discord.EditResponseEmbed(sc.Session, sc.Event, embed)
}

type NowPlayingCommand struct{ *Deps }

func (c *NowPlayingCommand) Name() string        { return "nowplaying" }
func (c *NowPlayingCommand) Description() string { return "Show the current track" }
func (c *NowPlayingCommand) Group() string       { return command.GroupPlayback }

func (c *NowPlayingCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description())
}

func (c *NowPlayingCommand) Run(_ context.Context, sc *command.SlashInteractionContext) error {
	cur, err := c.current(sc)
	if err != nil {
		return fail(sc, err)
	}
	return discord.RespondEmbedEphemeral(sc.Session, sc.Event, nowPlayingEmbed(cur))
}

func nowPlayingEmbed(t track.Track) *discordgo.MessageEmbed {
	desc := t.Author
	if !t.IsStream && t.Duration > 0 {
		desc = fmt.Sprintf("%s\n`%s`", t.Author, track.FormatDuration(t.Duration))
	}
	embed := discord.Embed(desc)
	embed.Title = t.Title
	embed.URL = t.URI
	if t.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.ArtworkURL}
	}
	return embed
}

// current returns the playing track or player.ErrNothingPlaying.
func (d *Deps) current(sc *command.SlashInteractionContext) (track.Track, error) {
	s, err := d.session(sc.Event)
	if err != nil {
		return track.Track{}, err
	}
	cur := s.Snapshot().Current
	if cur == nil {
		return track.Track{}, player.ErrNothingPlaying
	}
	return *cur, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
