package lavalink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/keshon/deejay/pkg/retrylimit"
)

const (
	resumeTimeout = 60 * time.Second

	// Discord voice close codes after which the bot is no longer in voice.
	closeDisconnected   = 4014
	closeCallTerminated = 4022
)

// Config locates a Lavalink node.
type Config struct {
	Host       string
	Port       int
	Password   string
	Secure     bool
	UserID     snowflake.ID
	ClientName string
}

func (c Config) restURL() string {
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

func (c Config) wsURL() string {
	scheme := "ws"
	if c.Secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d/v4/websocket", scheme, c.Host, c.Port)
}

// EventListener receives player events for every guild on the node.
type EventListener interface {
	TrackStarted(ctx context.Context, guildID snowflake.ID, encoded string)
	TrackEnded(ctx context.Context, guildID snowflake.ID, encoded, reason string)
	VoiceClosed(ctx context.Context, guildID snowflake.ID)
}

// Node is one Lavalink server: a websocket for events plus the REST client the
// guild players use.
type Node struct {
	cfg    Config
	rest   *Client
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu        sync.RWMutex
	sessionID string

	ready     chan struct{}
	readyOnce sync.Once

	playersMu sync.Mutex
	players   map[snowflake.ID]*Player

	eventsMu sync.Mutex
	events   map[snowflake.ID]*guildEvents
}

func NewNode(cfg Config, logger zerolog.Logger) *Node {
	if cfg.ClientName == "" {
		cfg.ClientName = "deejay"
	}
	return &Node{
		cfg:     cfg,
		rest:    NewClient(cfg.restURL(), cfg.Password),
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		log:     logger.With().Str("component", "lavalink").Logger(),
		ready:   make(chan struct{}),
		players: make(map[snowflake.ID]*Player),
		events:  make(map[snowflake.ID]*guildEvents),
	}
}

// Rest returns the node's REST client.
func (n *Node) Rest() *Client { return n.rest }

// SessionID returns the websocket session, empty while disconnected.
func (n *Node) SessionID() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sessionID
}

// WaitReady blocks until the node sent its first ready frame.
func (n *Node) WaitReady(ctx context.Context) error {
	select {
	case <-n.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrNotReady, ctx.Err())
	}
}

// Run keeps the websocket connected and dispatches events to l until ctx is
// done. A dropped connection is resumed when the node still knows the session.
func (n *Node) Run(ctx context.Context, l EventListener) error {
	for {
		conn, err := n.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		err = n.read(ctx, conn, l)
		if ctx.Err() != nil {
			return nil
		}
		n.log.Warn().Err(err).Msg("connection lost, reconnecting")
	}
}

func (n *Node) dial(ctx context.Context) (*websocket.Conn, error) {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = 0
	cfg.InitialDelay = time.Second
	cfg.MaxDelay = 30 * time.Second

	var conn *websocket.Conn
	err := retrylimit.WithRetryConfig(ctx, func() error {
		h := http.Header{}
		h.Set("Authorization", n.cfg.Password)
		h.Set("User-Id", n.cfg.UserID.String())
		h.Set("Client-Name", n.cfg.ClientName)
		if sid := n.SessionID(); sid != "" {
			h.Set("Session-Id", sid)
		}
		c, resp, err := n.dialer.DialContext(ctx, n.cfg.wsURL(), h)
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return &retrylimit.FatalError{Err: fmt.Errorf("lavalink rejected password: %w", err)}
		}
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, nil, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", n.cfg.wsURL(), err)
	}
	n.log.Info().Str("url", n.cfg.wsURL()).Msg("connected")
	return conn, nil
}

func (n *Node) read(ctx context.Context, conn *websocket.Conn, l EventListener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var m message
		if err := json.Unmarshal(data, &m); err != nil {
			n.log.Warn().Err(err).Msg("malformed frame")
			continue
		}
		n.handle(ctx, m, l)
	}
}

func (n *Node) handle(ctx context.Context, m message, l EventListener) {
	switch m.Op {
	case "ready":
		n.onReady(ctx, m, l)
	case "event":
		n.onEvent(ctx, m, l)
	case "playerUpdate", "stats":
	default:
		n.log.Debug().Str("op", m.Op).Msg("unhandled op")
	}
}

func (n *Node) onReady(ctx context.Context, m message, l EventListener) {
	n.mu.Lock()
	n.sessionID = m.SessionID
	n.mu.Unlock()
	n.readyOnce.Do(func() { close(n.ready) })
	n.log.Info().Str("session", m.SessionID).Bool("resumed", m.Resumed).Msg("ready")

	if !m.Resumed {
		// players of a previous session are gone on the node
		for _, g := range n.guilds() {
			n.dispatch(g, func() { l.VoiceClosed(ctx, g) })
		}
	}
	if err := n.rest.EnableResuming(ctx, m.SessionID, resumeTimeout); err != nil {
		n.log.Warn().Err(err).Msg("failed to enable resuming")
	}
}

func (n *Node) onEvent(ctx context.Context, m message, l EventListener) {
	guildID, err := snowflake.Parse(m.GuildID)
	if err != nil {
		n.log.Warn().Err(err).Str("type", m.Type).Msg("event without guild")
		return
	}
	log := n.log.With().Str("guild", m.GuildID).Logger()

	encoded := ""
	if m.Track != nil {
		encoded = m.Track.Encoded
	}

	switch m.Type {
	case "TrackStartEvent":
		n.dispatch(guildID, func() { l.TrackStarted(ctx, guildID, encoded) })
	case "TrackEndEvent":
		reason := m.Reason
		n.dispatch(guildID, func() { l.TrackEnded(ctx, guildID, encoded, reason) })
	case "TrackExceptionEvent":
		ev := log.Error()
		if m.Exception != nil {
			ev = ev.Err(errors.New(m.Exception.Message)).Str("severity", m.Exception.Severity)
		}
		ev.Msg("track exception")
	case "TrackStuckEvent":
		log.Warn().Int64("threshold_ms", m.Threshold).Msg("track stuck")
	case "WebSocketClosedEvent":
		log.Warn().Int("code", m.Code).Str("reason", m.Reason).Bool("by_remote", m.ByRemote).
			Msg("voice websocket closed")
		if m.Code == closeDisconnected || m.Code == closeCallTerminated {
			n.dispatch(guildID, func() { l.VoiceClosed(ctx, guildID) })
		}
	default:
		log.Debug().Str("type", m.Type).Msg("unhandled event")
	}
}

// Player returns the guild's player, creating it without any I/O.
func (n *Node) Player(guildID snowflake.ID) *Player {
	n.playersMu.Lock()
	defer n.playersMu.Unlock()
	if p, ok := n.players[guildID]; ok {
		return p
	}
	p := &Player{node: n, guildID: guildID}
	n.players[guildID] = p
	return p
}

// Lookup returns the guild's player if one exists.
func (n *Node) Lookup(guildID snowflake.ID) (*Player, bool) {
	n.playersMu.Lock()
	defer n.playersMu.Unlock()
	p, ok := n.players[guildID]
	return p, ok
}

func (n *Node) forget(p *Player) {
	n.playersMu.Lock()
	defer n.playersMu.Unlock()
	if cur, ok := n.players[p.guildID]; ok && cur == p {
		delete(n.players, p.guildID)
	}
}

func (n *Node) guilds() []snowflake.ID {
	n.playersMu.Lock()
	defer n.playersMu.Unlock()
	out := make([]snowflake.ID, 0, len(n.players))
	for g := range n.players {
		out = append(out, g)
	}
	return out
}
