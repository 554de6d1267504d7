package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/keshon/deejay/internal/music/status"
	"github.com/keshon/deejay/pkg/retrylimit"
)

const sinkAttempts = 3

// StatusSink posts the playback card as a regular channel message.
type StatusSink struct {
	dg  *discordgo.Session
	lim *retrylimit.AdaptiveLimiter
}

func NewStatusSink(dg *discordgo.Session) *StatusSink {
	return &StatusSink{
		dg:  dg,
		lim: retrylimit.NewAdaptiveLimiter(5, 1, 10, 1, 0.5),
	}
}

func (s *StatusSink) Create(ctx context.Context, channelID snowflake.ID, p status.Payload) (status.Handle, error) {
	var msg *discordgo.Message
	err := s.call(ctx, func() error {
		var err error
		msg, err = s.dg.ChannelMessageSendComplex(channelID.String(), &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{p.Embed},
			Components: p.Components,
		}, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return status.Handle{}, fmt.Errorf("send status message: %w", err)
	}
	id, err := snowflake.Parse(msg.ID)
	if err != nil {
		return status.Handle{}, fmt.Errorf("parse message id: %w", err)
	}
	return status.Handle{ChannelID: channelID, MessageID: id}, nil
}

func (s *StatusSink) Modify(ctx context.Context, h status.Handle, p status.Payload) error {
	embeds := []*discordgo.MessageEmbed{p.Embed}
	components := p.Components
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	err := s.call(ctx, func() error {
		_, err := s.dg.ChannelMessageEditComplex(&discordgo.MessageEdit{
			ID:         h.MessageID.String(),
			Channel:    h.ChannelID.String(),
			Embeds:     &embeds,
			Components: &components,
		}, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return fmt.Errorf("edit status message: %w", err)
	}
	return nil
}

func (s *StatusSink) Delete(ctx context.Context, h status.Handle) error {
	err := s.call(ctx, func() error {
		return s.dg.ChannelMessageDelete(h.ChannelID.String(), h.MessageID.String(), discordgo.WithContext(ctx))
	})
	if err != nil {
		return fmt.Errorf("delete status message: %w", err)
	}
	return nil
}

func (s *StatusSink) call(ctx context.Context, fn func() error) error {
	return retrylimit.WithRetryMax(ctx, func() error { return classify(fn()) }, s.lim, sinkAttempts)
}

// restStatus exposes the HTTP status of a Discord REST error to retrylimit.
type restStatus struct {
	err *discordgo.RESTError
}

func (r *restStatus) Error() string   { return r.err.Error() }
func (r *restStatus) Unwrap() error   { return r.err }
func (r *restStatus) StatusCode() int { return r.err.Response.StatusCode }

// classify marks vanished messages with status.ErrMessageNotFound and keeps
// only rate limits, server errors and transport failures retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Response == nil {
		return err
	}
	if isUnknownMessage(rest) {
		return &retrylimit.FatalError{Err: fmt.Errorf("%w: %w", status.ErrMessageNotFound, err)}
	}
	code := rest.Response.StatusCode
	if code == http.StatusTooManyRequests || code >= 500 {
		return &restStatus{err: rest}
	}
	return &retrylimit.FatalError{Err: err}
}

func isUnknownMessage(rest *discordgo.RESTError) bool {
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}
