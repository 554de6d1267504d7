package lavalink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/keshon/deejay/internal/music/track"
)

var ErrLoadFailed = errors.New("track load failed")

// Resolver turns user queries and URLs into playable tracks.
type Resolver struct {
	client *Client
}

func NewResolver(c *Client) *Resolver {
	return &Resolver{client: c}
}

// ResolveOne returns the single best match for query.
func (r *Resolver) ResolveOne(ctx context.Context, query string, p track.Provider) (track.Track, error) {
	tracks, _, err := r.load(ctx, p.Identifier(query))
	if err != nil {
		return track.Track{}, err
	}
	return tracks[0], nil
}

// ResolvePlaylist loads every track behind a playlist URL. A single track
// comes back as a one-entry playlist named after it.
func (r *Resolver) ResolvePlaylist(ctx context.Context, url string, p track.Provider) (track.Playlist, error) {
	tracks, name, err := r.load(ctx, p.Identifier(url))
	if err != nil {
		return track.Playlist{}, err
	}
	if name == "" {
		name = tracks[0].Title
	}
	return track.Playlist{Name: name, Tracks: tracks}, nil
}

// load returns at least one track or an error.
func (r *Resolver) load(ctx context.Context, identifier string) ([]track.Track, string, error) {
	res, err := r.client.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, "", err
	}

	var (
		raw  []Track
		name string
	)
	switch res.LoadType {
	case LoadTrack:
		var t Track
		if err := json.Unmarshal(res.Data, &t); err != nil {
			return nil, "", fmt.Errorf("decode track: %w", err)
		}
		raw = []Track{t}
	case LoadSearch:
		if err := json.Unmarshal(res.Data, &raw); err != nil {
			return nil, "", fmt.Errorf("decode search: %w", err)
		}
	case LoadPlaylist:
		var pl PlaylistData
		if err := json.Unmarshal(res.Data, &pl); err != nil {
			return nil, "", fmt.Errorf("decode playlist: %w", err)
		}
		raw, name = pl.Tracks, pl.Info.Name
	case LoadError:
		var ex Exception
		_ = json.Unmarshal(res.Data, &ex)
		return nil, "", fmt.Errorf("%w: %s", ErrLoadFailed, ex.Message)
	case LoadEmpty:
	default:
		return nil, "", fmt.Errorf("%w: unknown load type %q", ErrLoadFailed, res.LoadType)
	}

	if len(raw) == 0 {
		return nil, "", track.ErrNotFound
	}
	return lo.Map(raw, func(t Track, _ int) track.Track { return t.Domain() }), name, nil
}
