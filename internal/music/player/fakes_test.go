package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"

	"github.com/keshon/deejay/internal/music/state"
	"github.com/keshon/deejay/internal/music/status"
	"github.com/keshon/deejay/internal/music/track"
	"github.com/keshon/deejay/pkg/jobmgr"
)

const (
	testGuild = snowflake.ID(100)
	testVoice = snowflake.ID(200)
	testText  = snowflake.ID(300)
	testUser  = snowflake.ID(400)
)

var errBoom = errors.New("boom")

type fakeBackend struct {
	mu      sync.Mutex
	played  []string
	paused  bool
	stops   int
	volume  int
	destroy int
	failOn  map[string]bool
	failAll bool
}

func (b *fakeBackend) Play(_ context.Context, t track.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll || b.failOn[t.Identifier] {
		return errBoom
	}
	b.played = append(b.played, t.Identifier)
	b.paused = false
	return nil
}

func (b *fakeBackend) SetPaused(_ context.Context, p bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll {
		return errBoom
	}
	b.paused = p
	return nil
}

func (b *fakeBackend) Stop(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stops++
	return nil
}

func (b *fakeBackend) SetVolume(_ context.Context, v int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = v
	return nil
}

func (b *fakeBackend) Destroy(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroy++
	return nil
}

func (b *fakeBackend) playedIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.played...)
}

type fakeSink struct {
	mu       sync.Mutex
	next     snowflake.ID
	live     map[snowflake.ID]status.Payload
	created  int
	modified int
	deleted  []snowflake.ID
	last     status.Payload
}

func newFakeSink() *fakeSink {
	return &fakeSink{next: 1000, live: map[snowflake.ID]status.Payload{}}
}

func (f *fakeSink) Create(_ context.Context, ch snowflake.ID, p status.Payload) (status.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.created++
	f.live[f.next] = p
	f.last = p
	return status.Handle{ChannelID: ch, MessageID: f.next}, nil
}

func (f *fakeSink) Modify(_ context.Context, h status.Handle, p status.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live[h.MessageID]; !ok {
		return status.ErrMessageNotFound
	}
	f.modified++
	f.live[h.MessageID] = p
	f.last = p
	return nil
}

func (f *fakeSink) Delete(_ context.Context, h status.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live[h.MessageID]; !ok {
		return status.ErrMessageNotFound
	}
	delete(f.live, h.MessageID)
	f.deleted = append(f.deleted, h.MessageID)
	return nil
}

// vanish deletes every message behind the session's back.
func (f *fakeSink) vanish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = map[snowflake.ID]status.Payload{}
}

func (f *fakeSink) snapshot() (created, live, deleted int, last status.Payload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, len(f.live), len(f.deleted), f.last
}

type fakeVoice struct {
	mu           sync.Mutex
	connects     int
	disconnects  int
	failConnect  bool
	userChannels map[snowflake.ID]snowflake.ID
}

func (v *fakeVoice) Connect(context.Context, snowflake.ID, snowflake.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failConnect {
		return errBoom
	}
	v.connects++
	return nil
}

func (v *fakeVoice) Disconnect(context.Context, snowflake.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.disconnects++
	return nil
}

func (v *fakeVoice) UserVoiceChannel(_, userID snowflake.ID) (snowflake.ID, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ch, ok := v.userChannels[userID]
	if !ok {
		return 0, ErrNotInVoice
	}
	return ch, nil
}

type fixture struct {
	backend *fakeBackend
	sink    *fakeSink
	voice   *fakeVoice
	jobs    *jobmgr.Manager
	reg     *Registry
}

func newFixture(deleteDelay time.Duration) *fixture {
	f := &fixture{
		backend: &fakeBackend{},
		sink:    newFakeSink(),
		voice:   &fakeVoice{userChannels: map[snowflake.ID]snowflake.ID{testUser: testVoice}},
		jobs:    jobmgr.NewManager(nil),
	}
	f.reg = NewRegistry(Deps{
		Backends: func(snowflake.ID) Backend { return f.backend },
		Voice:    f.voice,
		Sink:     f.sink,
		Jobs:     f.jobs,
		Logger:   zerolog.Nop(),
		Options: Options{
			Limits:        state.Limits{QueueCapacity: 100, HistoryCapacity: 20},
			DefaultVolume: 100,
			DeleteDelay:   deleteDelay,
			Pick:          func(n int) int { return n - 1 },
		},
	})
	return f
}

func (f *fixture) join() *Session {
	s, err := f.reg.Join(context.Background(), testGuild, JoinParams{VoiceChannelID: testVoice, TextChannelID: testText})
	if err != nil {
		panic(err)
	}
	return s
}

func tr(id string) track.Track {
	return track.Track{Identifier: id, Encoded: "enc-" + id, Title: "Title " + id, Author: "Author", URI: "https://example.com/" + id}
}

func historyIDs(s *Session) []string {
	st := s.Snapshot()
	out := make([]string, len(st.History))
	for i, t := range st.History {
		out[i] = t.Identifier
	}
	return out
}

func queueIDs(s *Session) []string {
	st := s.Snapshot()
	out := make([]string, len(st.Queue))
	for i, t := range st.Queue {
		out[i] = t.Identifier
	}
	return out
}
