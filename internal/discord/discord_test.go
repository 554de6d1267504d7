package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/deejay/internal/music/player"
	"github.com/keshon/deejay/internal/music/status"
	"github.com/keshon/deejay/internal/music/track"
	"github.com/keshon/deejay/pkg/retrylimit"
)

var (
	_ player.Voice        = (*Voice)(nil)
	_ player.VoiceLocator = (*Voice)(nil)
	_ status.Sink         = (*StatusSink)(nil)
)

func TestUserVoiceChannel(t *testing.T) {
	st := discordgo.NewState()
	require.NoError(t, st.GuildAdd(&discordgo.Guild{
		ID: "1",
		VoiceStates: []*discordgo.VoiceState{
			{GuildID: "1", UserID: "10", ChannelID: "500"},
			{GuildID: "1", UserID: "11", ChannelID: ""},
		},
	}))
	v := &Voice{state: st}

	ch, err := v.UserVoiceChannel(1, 10)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(500), ch)

	_, err = v.UserVoiceChannel(1, 11)
	assert.ErrorIs(t, err, player.ErrNotInVoice)
	_, err = v.UserVoiceChannel(1, 12)
	assert.ErrorIs(t, err, player.ErrNotInVoice)
	_, err = v.UserVoiceChannel(2, 10)
	assert.Error(t, err)
}

func TestVoiceJoinAndLeave(t *testing.T) {
	var calls []string
	v := &Voice{join: func(g, c string, mute, deaf bool) error {
		calls = append(calls, fmt.Sprintf("%s/%s/%v/%v", g, c, mute, deaf))
		return nil
	}}
	require.NoError(t, v.Connect(context.Background(), 1, 500))
	require.NoError(t, v.Disconnect(context.Background(), 1))
	assert.Equal(t, []string{"1/500/false/true", "1//false/true"}, calls)
}

func restErr(code, apiCode int) *discordgo.RESTError {
	e := &discordgo.RESTError{Response: &http.Response{StatusCode: code, Status: http.StatusText(code)}}
	if apiCode != 0 {
		e.Message = &discordgo.APIErrorMessage{Code: apiCode, Message: "err"}
	}
	return e
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	err := classify(restErr(http.StatusNotFound, discordgo.ErrCodeUnknownMessage))
	assert.ErrorIs(t, err, status.ErrMessageNotFound)
	var fatal *retrylimit.FatalError
	assert.ErrorAs(t, err, &fatal)

	assert.ErrorIs(t, classify(restErr(http.StatusNotFound, 0)), status.ErrMessageNotFound)

	var hs retrylimit.HTTPError
	require.ErrorAs(t, classify(restErr(http.StatusBadGateway, 0)), &hs)
	assert.Equal(t, http.StatusBadGateway, hs.StatusCode())

	forbidden := classify(restErr(http.StatusForbidden, discordgo.ErrCodeMissingPermissions))
	assert.ErrorAs(t, forbidden, &fatal)
	assert.NotErrorIs(t, forbidden, status.ErrMessageNotFound)

	plain := errors.New("connection reset")
	assert.Same(t, plain, classify(plain))
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "You are not in the same voice channel as the bot.", ErrorText(player.ErrWrongVoiceChannel))
	assert.Equal(t, "DJ X isn't playing anything.", ErrorText(fmt.Errorf("wrap: %w", player.ErrNoSession)))
	assert.Equal(t, "No tracks found, try a different provider with the command options.", ErrorText(track.ErrNotFound))
	assert.Equal(t, "No embed message found.", ErrorText(player.ErrNoStatusMessage))
	assert.Equal(t, "Something went wrong, try again.", ErrorText(errors.New("x")))
}

func TestHashCommandIsStable(t *testing.T) {
	def := func(order ...string) *discordgo.ApplicationCommand {
		c := &discordgo.ApplicationCommand{Name: "play", Description: "Play"}
		for _, n := range order {
			c.Options = append(c.Options, &discordgo.ApplicationCommandOption{
				Type: discordgo.ApplicationCommandOptionString, Name: n, Description: n,
			})
		}
		return c
	}
	assert.Equal(t, hashCommand(def("query", "provider")), hashCommand(def("provider", "query")))
	assert.NotEqual(t, hashCommand(def("query")), hashCommand(def("query", "provider")))
}

func TestHashStoreRoundTrip(t *testing.T) {
	h := hashStore{dir: t.TempDir()}
	assert.Empty(t, h.load("1"))
	require.NoError(t, h.save("1", map[string]string{"play": "abc"}))
	assert.Equal(t, map[string]string{"play": "abc"}, h.load("1"))
}
