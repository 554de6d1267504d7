package music

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/discord"
	"github.com/keshon/deejay/internal/music/player"
	"github.com/keshon/deejay/internal/music/track"
)

type PlayCommand struct{ *Deps }

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Play a track or a playlist" }
func (c *PlayCommand) Group() string       { return command.GroupQueue }

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Link or search query",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "provider",
				Description: "Where to search when the query is not a link",
				Choices:     providerChoices(),
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "bump",
				Description: "Put the track at the front of the queue",
			},
		},
	}
}

func providerChoices() []*discordgo.ApplicationCommandOptionChoice {
	var out []*discordgo.ApplicationCommandOptionChoice
	for _, p := range track.Providers() {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: p.Label(), Value: string(p)})
	}
	return out
}

func (c *PlayCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	opts := command.Options(sc.Event)
	query := strings.TrimSpace(stringOption(opts, "query"))
	bump := false
	if o, ok := opts["bump"]; ok {
		bump = o.BoolValue()
	}
	provider := c.Provider
	if name := stringOption(opts, "provider"); name != "" {
		p, err := track.ParseProvider(name)
		if err != nil {
			return fail(sc, fmt.Errorf("%w: %w", player.ErrInvalidArgument, err))
		}
		provider = p
	}
	if query == "" {
		return fail(sc, fmt.Errorf("%w: empty query", player.ErrInvalidArgument))
	}

	if err := discord.RespondDeferredEphemeral(sc.Session, sc.Event); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}

	if isPlaylist(query) {
		text, err := c.enqueuePlaylist(ctx, sc, query, provider)
		if err != nil {
			return failDeferred(sc, err)
		}
		return discord.EditResponse(sc.Session, sc.Event, text)
	}

	text, err := c.play(ctx, sc, query, provider, bump)
	if err != nil {
		return failDeferred(sc, err)
	}
	return discord.EditResponse(sc.Session, sc.Event, text)
}

func (c *PlayCommand) play(ctx context.Context, sc *command.SlashInteractionContext, query string, p track.Provider, bump bool) (string, error) {
	guildID, userID, channelID := ids(sc.Event)
	voiceID, err := c.Voice.UserVoiceChannel(guildID, userID)
	if err != nil {
		return "", err
	}
	t, err := c.Resolver.ResolveOne(ctx, query, p)
	if err != nil {
		return "", err
	}
	s, err := c.Registry.Join(ctx, guildID, player.JoinParams{VoiceChannelID: voiceID, TextChannelID: channelID})
	if err != nil {
		return "", err
	}
	res, err := s.Play(ctx, t, bump)
	if err != nil {
		return "", err
	}
	return playText(t, res), nil
}

func playText(t track.Track, res player.PlayResult) string {
	if res.StartedImmediately {
		return fmt.Sprintf("Playing %s", t.Display())
	}
	return fmt.Sprintf("Added %s to the queue at position %d", t.Display(), res.Position)
}

// isPlaylist mirrors how users paste playlist links from every provider.
func isPlaylist(query string) bool {
	return strings.Contains(strings.ToLower(query), "playlist")
}

// enqueuePlaylist resolves url and adds every track; shared with /fill.
func (d *Deps) enqueuePlaylist(ctx context.Context, sc *command.SlashInteractionContext, url string, p track.Provider) (string, error) {
	guildID, userID, channelID := ids(sc.Event)
	voiceID, err := d.Voice.UserVoiceChannel(guildID, userID)
	if err != nil {
		return "", err
	}
	pl, err := d.Resolver.ResolvePlaylist(ctx, url, p)
	if err != nil {
		return "", err
	}
	s, err := d.Registry.Join(ctx, guildID, player.JoinParams{VoiceChannelID: voiceID, TextChannelID: channelID})
	if err != nil {
		return "", err
	}
	res, err := s.EnqueueMany(ctx, pl.Tracks)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %d tracks to the queue from playlist %s", res.Added, pl.Name), nil
}
