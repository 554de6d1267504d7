package lavalink

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/keshon/deejay/internal/music/track"
)

// Player drives one guild's Lavalink player. The queue lives with the caller;
// the node only ever knows the current track.
type Player struct {
	node    *Node
	guildID snowflake.ID

	mu    sync.Mutex
	voice VoiceState
}

func (p *Player) GuildID() snowflake.ID { return p.guildID }

func (p *Player) Play(ctx context.Context, t track.Track) error {
	enc := t.Encoded
	return p.update(ctx, PlayerUpdate{
		Track:  &UpdateTrack{Encoded: &enc},
		Paused: lo.ToPtr(false),
	})
}

func (p *Player) SetPaused(ctx context.Context, paused bool) error {
	return p.update(ctx, PlayerUpdate{Paused: &paused})
}

func (p *Player) Stop(ctx context.Context) error {
	return p.update(ctx, PlayerUpdate{Track: &UpdateTrack{}})
}

func (p *Player) SetVolume(ctx context.Context, volume int) error {
	return p.update(ctx, PlayerUpdate{Volume: &volume})
}

// Destroy removes the player from the node and forgets it locally.
func (p *Player) Destroy(ctx context.Context) error {
	p.node.forget(p)
	return p.node.rest.DestroyPlayer(ctx, p.node.SessionID(), p.guildID)
}

// UpdateVoice merges the non-empty fields of v into the known voice state and
// hands it to the node once Discord delivered all of them.
func (p *Player) UpdateVoice(ctx context.Context, v VoiceState) error {
	p.mu.Lock()
	old := p.voice
	if v.Token != "" {
		p.voice.Token = v.Token
	}
	if v.Endpoint != "" {
		p.voice.Endpoint = v.Endpoint
	}
	if v.SessionID != "" {
		p.voice.SessionID = v.SessionID
	}
	cur := p.voice
	p.mu.Unlock()

	if !cur.Complete() || cur == old {
		return nil
	}
	return p.node.rest.UpdatePlayer(ctx, p.node.SessionID(), p.guildID, PlayerUpdate{Voice: &cur})
}

// update attaches the voice state so a player recreated after a node restart
// can stream right away.
func (p *Player) update(ctx context.Context, u PlayerUpdate) error {
	p.mu.Lock()
	if p.voice.Complete() {
		v := p.voice
		u.Voice = &v
	}
	p.mu.Unlock()
	return p.node.rest.UpdatePlayer(ctx, p.node.SessionID(), p.guildID, u)
}
