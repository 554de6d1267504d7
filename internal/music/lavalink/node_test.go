package lavalink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/deejay/internal/music/player"
	"github.com/keshon/deejay/internal/music/track"
)

var (
	_ player.Backend = (*Player)(nil)
	_ EventListener  = (*player.Registry)(nil)
)

type recordedCall struct {
	method string
	path   string
	body   map[string]any
}

type fakeNode struct {
	srv *httptest.Server

	mu    sync.Mutex
	calls []recordedCall
}

func newFakeNode(t *testing.T, frames ...string) *fakeNode {
	t.Helper()
	f := &fakeNode{}
	up := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/websocket", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		assert.Equal(t, "99", r.Header.Get("User-Id"))
		assert.Equal(t, "deejay", r.Header.Get("Client-Name"))
		conn, err := up.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		for _, fr := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(fr)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	mux.HandleFunc("/v4/sessions/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}
		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{r.Method, r.URL.Path, body})
		f.mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeNode) config(t *testing.T) Config {
	u, err := url.Parse(f.srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return Config{Host: u.Hostname(), Port: port, Password: "secret", UserID: 99}
}

func (f *fakeNode) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

type fakeListener struct {
	events chan string
}

func (l *fakeListener) TrackStarted(_ context.Context, g snowflake.ID, enc string) {
	l.events <- fmt.Sprintf("start %s %s", g, enc)
}

func (l *fakeListener) TrackEnded(_ context.Context, g snowflake.ID, enc, reason string) {
	l.events <- fmt.Sprintf("end %s %s %s", g, enc, reason)
}

func (l *fakeListener) VoiceClosed(_ context.Context, g snowflake.ID) {
	l.events <- fmt.Sprintf("closed %s", g)
}

func (l *fakeListener) next(t *testing.T) string {
	t.Helper()
	select {
	case e := <-l.events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestNodeDispatchesEvents(t *testing.T) {
	f := newFakeNode(t,
		`{"op":"ready","resumed":false,"sessionId":"s1"}`,
		`{"op":"stats","players":1}`,
		`{"op":"event","type":"TrackStartEvent","guildId":"42","track":{"encoded":"QAAA","info":{}}}`,
		`{"op":"event","type":"TrackStuckEvent","guildId":"42","track":{"encoded":"QAAA","info":{}},"thresholdMs":10000}`,
		`{"op":"event","type":"TrackEndEvent","guildId":"42","track":{"encoded":"QAAA","info":{}},"reason":"finished"}`,
		`{"op":"event","type":"WebSocketClosedEvent","guildId":"42","code":4006,"reason":"Session no longer valid","byRemote":true}`,
		`{"op":"event","type":"WebSocketClosedEvent","guildId":"42","code":4014,"reason":"Disconnected","byRemote":true}`,
	)
	n := NewNode(f.config(t), zerolog.Nop())
	n.Player(7)

	l := &fakeListener{events: make(chan string, 16)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx, l) }()

	require.NoError(t, n.WaitReady(ctx))
	var guild7, guild42 []string
	for range 4 {
		e := l.next(t)
		if e == "closed 7" {
			guild7 = append(guild7, e)
			continue
		}
		guild42 = append(guild42, e)
	}
	assert.Equal(t, []string{"closed 7"}, guild7)
	assert.Equal(t, []string{"start 42 QAAA", "end 42 QAAA finished", "closed 42"}, guild42)
	assert.Equal(t, "s1", n.SessionID())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	calls := f.recorded()
	require.NotEmpty(t, calls)
	assert.Equal(t, http.MethodPatch, calls[0].method)
	assert.Equal(t, "/v4/sessions/s1", calls[0].path)
	assert.Equal(t, true, calls[0].body["resuming"])
}

func TestPlayerUpdates(t *testing.T) {
	f := newFakeNode(t, `{"op":"ready","resumed":false,"sessionId":"s1"}`)
	n := NewNode(f.config(t), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx, &fakeListener{events: make(chan string, 16)}) }()
	require.NoError(t, n.WaitReady(ctx))

	p := n.Player(42)
	require.NoError(t, p.UpdateVoice(ctx, VoiceState{SessionID: "voice-session"}))
	require.NoError(t, p.UpdateVoice(ctx, VoiceState{Token: "tok", Endpoint: "eu.discord.media"}))
	require.NoError(t, p.UpdateVoice(ctx, VoiceState{Token: "tok"}))
	require.NoError(t, p.Play(ctx, track.Track{Encoded: "QAAA"}))
	require.NoError(t, p.SetVolume(ctx, 150))
	require.NoError(t, p.Stop(ctx))
	require.NoError(t, p.Destroy(ctx))

	var players []recordedCall
	for _, c := range f.recorded() {
		if c.path == "/v4/sessions/s1/players/42" {
			players = append(players, c)
		}
	}
	require.Len(t, players, 5)

	voice := map[string]any{"token": "tok", "endpoint": "eu.discord.media", "sessionId": "voice-session"}
	assert.Equal(t, voice, players[0].body["voice"])

	assert.Equal(t, map[string]any{"encoded": "QAAA"}, players[1].body["track"])
	assert.Equal(t, false, players[1].body["paused"])
	assert.Equal(t, voice, players[1].body["voice"])

	assert.EqualValues(t, 150, players[2].body["volume"])

	stop, ok := players[3].body["track"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, stop, "encoded")
	assert.Nil(t, stop["encoded"])

	assert.Equal(t, http.MethodDelete, players[4].method)
	_, ok = n.Lookup(42)
	assert.False(t, ok)
}

func TestPlayerNotReady(t *testing.T) {
	n := NewNode(Config{Host: "127.0.0.1", Port: 1}, zerolog.Nop())
	err := n.Player(1).Play(context.Background(), track.Track{Encoded: "x"})
	assert.ErrorIs(t, err, ErrNotReady)
}

// blockingListener holds TrackEnded for guild 1 until release is closed.
type blockingListener struct {
	fakeListener
	release chan struct{}
}

func (l *blockingListener) TrackEnded(ctx context.Context, g snowflake.ID, enc, reason string) {
	if g == 1 {
		<-l.release
	}
	l.fakeListener.TrackEnded(ctx, g, enc, reason)
}

func TestSlowGuildDoesNotBlockOthers(t *testing.T) {
	f := newFakeNode(t,
		`{"op":"ready","resumed":true,"sessionId":"s1"}`,
		`{"op":"event","type":"TrackEndEvent","guildId":"1","track":{"encoded":"A","info":{}},"reason":"finished"}`,
		`{"op":"event","type":"TrackStartEvent","guildId":"1","track":{"encoded":"B","info":{}}}`,
		`{"op":"event","type":"TrackStartEvent","guildId":"2","track":{"encoded":"C","info":{}}}`,
	)
	n := NewNode(f.config(t), zerolog.Nop())

	l := &blockingListener{fakeListener: fakeListener{events: make(chan string, 16)}, release: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx, l) }()

	assert.Equal(t, "start 2 C", l.next(t))

	close(l.release)
	assert.Equal(t, "end 1 A finished", l.next(t))
	assert.Equal(t, "start 1 B", l.next(t))
}
