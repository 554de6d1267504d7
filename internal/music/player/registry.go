package player

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"

	"github.com/keshon/deejay/internal/music/state"
	"github.com/keshon/deejay/internal/music/status"
	"github.com/keshon/deejay/pkg/jobmgr"
	"github.com/keshon/deejay/pkg/util"
)

const shutdownWorkers = 8

// Options tune every session a registry creates.
type Options struct {
	Limits        state.Limits
	DefaultVolume int
	DeleteDelay   time.Duration
	// Pick chooses the next queue index while shuffling; rand.IntN when nil.
	Pick func(n int) int
}

// Deps are the collaborators shared by all sessions.
type Deps struct {
	Backends BackendFunc
	Voice    Voice
	Sink     status.Sink
	Activity ActivityTracker
	Jobs     *jobmgr.Manager
	Logger   zerolog.Logger
	Options  Options
}

// Registry owns the guild to session mapping. It never holds two sessions for
// one guild.
type Registry struct {
	deps Deps
	log  zerolog.Logger

	mu       sync.Mutex
	sessions map[snowflake.ID]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry(deps Deps) *Registry {
	if deps.Activity == nil {
		deps.Activity = noopActivity{}
	}
	if deps.Jobs == nil {
		deps.Jobs = jobmgr.NewManager(nil)
	}
	if deps.Options.Pick == nil {
		deps.Options.Pick = rand.IntN
	}
	return &Registry{
		deps:     deps,
		log:      deps.Logger.With().Str("component", "registry").Logger(),
		sessions: make(map[snowflake.ID]*Session),
	}
}

// GetOrCreate returns the guild's session, creating it when absent. Concurrent
// callers for one guild all get the same instance; created is true for exactly
// one of them. No I/O happens under the registry lock.
func (r *Registry) GetOrCreate(guildID snowflake.ID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s, false
	}
	s := newSession(guildID, r)
	r.sessions[guildID] = s
	r.log.Debug().Str("guild", guildID.String()).Msg("session created")
	return s, true
}

// Join returns the guild's session joined to p. A session torn down between
// lookup and join is replaced once.
func (r *Registry) Join(ctx context.Context, guildID snowflake.ID, p JoinParams) (*Session, error) {
	for attempt := 0; ; attempt++ {
		s, _ := r.GetOrCreate(guildID)
		err := s.Join(ctx, p)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrSessionClosed) || attempt > 0 {
			return nil, err
		}
	}
}

// Lookup returns the guild's session if one exists.
func (r *Registry) Lookup(guildID snowflake.ID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// Remove unregisters s. Sessions call it on themselves while being destroyed;
// a session that was already replaced never evicts its successor.
func (r *Registry) Remove(guildID snowflake.ID, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[guildID]; ok && cur == s {
		delete(r.sessions, guildID)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown closes every session and drops the status removals still pending
// for sessions that already ended.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.Unlock()

	r.log.Info().Int("sessions", len(all)).Msg("closing sessions")
	err := util.Parallel(ctx, all, shutdownWorkers, func(ctx context.Context, s *Session) error {
		return s.Close(ctx)
	})
	if n := r.deps.Jobs.StopPrefix(statusDeletePrefix); n > 0 {
		r.log.Debug().Int("jobs", n).Msg("pending status removals dropped")
	}
	return err
}
