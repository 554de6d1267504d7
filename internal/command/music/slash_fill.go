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

// fillPlaylists are curated Spotify playlists by genre.
var fillPlaylists = []struct {
	Genre string
	URL   string
}{
	{"Rap", "https://open.spotify.com/playlist/37i9dQZF1DX0XUsuxWHRQd?si=32f6cef96dbb49fa"},
	{"Indie", "https://open.spotify.com/playlist/37i9dQZF1DX2sUQwD7tbmL?si=ef0c982971c445ae"},
	{"Pop", "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=15a3cbd2ca994b79"},
	{"Dance", "https://open.spotify.com/playlist/37i9dQZF1DX4dyzvuaRJ0n?si=2e77a916ab5446b2"},
	{"LoFi", "https://open.spotify.com/playlist/37i9dQZF1DWWQRwui0ExPn?si=1cf892cf35d440fc"},
}

func fillURL(genre string) (string, bool) {
	for _, p := range fillPlaylists {
		if p.Genre == genre {
			return p.URL, true
		}
	}
	return "", false
}

type FillCommand struct{ *Deps }

func (c *FillCommand) Name() string        { return "fill" }
func (c *FillCommand) Description() string { return "Fill the queue with a playlist of the chosen genre" }
func (c *FillCommand) Group() string       { return command.GroupQueue }

func (c *FillCommand) SlashDefinition() *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(fillPlaylists))
	for _, p := range fillPlaylists {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: p.Genre, Value: p.Genre})
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "genre",
			Description: "Genre to play",
			Required:    true,
			Choices:     choices,
		}},
	}
}

func (c *FillCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	genre := stringOption(command.Options(sc.Event), "genre")
	url, ok := fillURL(genre)
	if !ok {
		return fail(sc, fmt.Errorf("%w: unknown genre %q", player.ErrInvalidArgument, genre))
	}
	if err := discord.RespondDeferredEphemeral(sc.Session, sc.Event); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}
	text, err := c.enqueuePlaylist(ctx, sc, url, track.ProviderSpotify)
	if err != nil {
		return failDeferred(sc, err)
	}
	return discord.EditResponse(sc.Session, sc.Event, text)
}
