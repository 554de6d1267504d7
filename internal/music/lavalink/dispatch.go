package lavalink

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// guildEvents runs one guild's event handlers in arrival order. The worker
// goroutine only lives while handlers are pending.
type guildEvents struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

func (q *guildEvents) push(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, fn)
	if !q.running {
		q.running = true
		go q.drain()
	}
}

func (q *guildEvents) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()
		fn()
	}
}

// dispatch queues fn behind the guild's earlier events so a slow handler only
// delays its own guild.
func (n *Node) dispatch(guildID snowflake.ID, fn func()) {
	n.eventsMu.Lock()
	q, ok := n.events[guildID]
	if !ok {
		q = &guildEvents{}
		n.events[guildID] = q
	}
	n.eventsMu.Unlock()
	q.push(fn)
}
