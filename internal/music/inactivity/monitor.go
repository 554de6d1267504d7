// Package inactivity fires a per-guild signal once playback has been idle for
// the configured timeout.
package inactivity

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"

	"github.com/keshon/deejay/pkg/jobmgr"
)

const notifyTimeout = 30 * time.Second

// Listener receives the monitor's signals for one guild.
type Listener interface {
	NotifyInactive(ctx context.Context)
	NotifyActive(ctx context.Context)
	NotifyTracked(ctx context.Context)
}

// Monitor keeps one idle timer per tracked guild on top of a job manager.
type Monitor struct {
	jobs    *jobmgr.Manager
	timeout time.Duration
	log     zerolog.Logger

	mu        sync.Mutex
	listeners map[snowflake.ID]Listener
	// gens counts timer arms and cancels per guild. A timer only fires for
	// the generation that armed it.
	gens map[snowflake.ID]uint64
}

// New returns a monitor firing after timeout of continuous idleness.
func New(jobs *jobmgr.Manager, timeout time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		jobs:      jobs,
		timeout:   timeout,
		log:       logger.With().Str("component", "inactivity").Logger(),
		listeners: make(map[snowflake.ID]Listener),
		gens:      make(map[snowflake.ID]uint64),
	}
}

// Track starts watching guild. A freshly tracked guild counts as idle until it
// reports activity.
func (m *Monitor) Track(guildID snowflake.ID, l Listener) {
	m.mu.Lock()
	m.listeners[guildID] = l
	m.mu.Unlock()

	l.NotifyTracked(context.Background())
	m.Idle(guildID)
}

// Active cancels the guild's idle timer.
func (m *Monitor) Active(guildID snowflake.ID) {
	l, ok := m.listener(guildID)
	if !ok {
		return
	}
	m.bump(guildID)
	if err := m.jobs.Stop(jobName(guildID)); err == nil {
		m.log.Debug().Str("guild", guildID.String()).Msg("idle timer cancelled")
	}
	l.NotifyActive(context.Background())
}

// Idle arms the guild's idle timer unless one is already counting down.
func (m *Monitor) Idle(guildID snowflake.ID) {
	if _, ok := m.listener(guildID); !ok {
		return
	}
	name := jobName(guildID)
	if m.jobs.Has(name) {
		return
	}
	gen := m.bump(guildID)
	err := m.jobs.StartAfter(name, m.timeout, func(context.Context) error {
		m.fire(guildID, gen)
		return nil
	})
	if err != nil {
		return
	}
	m.log.Debug().Str("guild", guildID.String()).Dur("timeout", m.timeout).Msg("idle timer armed")
}

// Forget stops watching guild.
func (m *Monitor) Forget(guildID snowflake.ID) {
	m.mu.Lock()
	delete(m.listeners, guildID)
	delete(m.gens, guildID)
	m.mu.Unlock()
	_ = m.jobs.Stop(jobName(guildID))
}

// Tracked reports how many guilds are watched.
func (m *Monitor) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// fire notifies the listener unless the timer armed at gen has since been
// cancelled or replaced.
func (m *Monitor) fire(guildID snowflake.ID, gen uint64) {
	m.mu.Lock()
	l, ok := m.listeners[guildID]
	current := m.gens[guildID] == gen
	m.mu.Unlock()
	if !ok || !current {
		m.log.Debug().Str("guild", guildID.String()).Msg("stale idle timer ignored")
		return
	}
	m.log.Info().Str("guild", guildID.String()).Dur("timeout", m.timeout).Msg("playback inactive")

	// The listener usually forgets the guild, which cancels this job's context.
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	l.NotifyInactive(ctx)
}

func (m *Monitor) bump(guildID snowflake.ID) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[guildID]++
	return m.gens[guildID]
}

func (m *Monitor) listener(guildID snowflake.ID) (Listener, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listeners[guildID]
	return l, ok
}

func jobName(guildID snowflake.ID) string {
	return "idle:" + guildID.String()
}
