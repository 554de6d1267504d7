package player

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// TrackStarted routes a backend start event to the guild's session.
func (r *Registry) TrackStarted(ctx context.Context, guildID snowflake.ID, encoded string) {
	if s, ok := r.Lookup(guildID); ok {
		s.OnTrackStarted(ctx, encoded)
	}
}

// TrackEnded routes a backend end event to the guild's session.
func (r *Registry) TrackEnded(ctx context.Context, guildID snowflake.ID, encoded, reason string) {
	if s, ok := r.Lookup(guildID); ok {
		s.OnTrackEnded(ctx, encoded, TrackEndReason(reason))
	}
}

// VoiceStateChanged routes the bot's own voice state to the guild's session.
// channelID is zero once the bot left voice.
func (r *Registry) VoiceStateChanged(ctx context.Context, guildID, channelID snowflake.ID) {
	if s, ok := r.Lookup(guildID); ok {
		s.OnVoiceStateChanged(ctx, channelID)
	}
}

// VoiceClosed destroys the guild's session after its voice connection dropped.
func (r *Registry) VoiceClosed(ctx context.Context, guildID snowflake.ID) {
	if s, ok := r.Lookup(guildID); ok {
		s.OnVoiceClosed(ctx)
	}
}
