// Package state holds the per-guild playback state and its queue semantics.
//
// PlaybackState is a plain value with no locking. The owning session mutates a
// clone, performs the backend call the change depends on and only then commits
// the clone, so a failed backend call never leaves a half-applied state behind.
package state

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/keshon/deejay/internal/music/track"
)

const (
	MinVolume = 0
	MaxVolume = 1000
)

var ErrInvalidState = errors.New("invalid playback state")

// RepeatMode is the policy applied when the current track completes.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatTrack
	RepeatQueue
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatTrack:
		return "Track"
	case RepeatQueue:
		return "Queue"
	default:
		return "Unknown"
	}
}

// ParseRepeatMode accepts "off", "track" or "queue" in any case.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return RepeatOff, nil
	case "track":
		return RepeatTrack, nil
	case "queue":
		return RepeatQueue, nil
	}
	return RepeatOff, fmt.Errorf("unknown repeat mode %q", s)
}

// EndReason tells why a session sits in the stopped display state.
type EndReason int

const (
	EndNone EndReason = iota
	EndQueueEnded
	EndStopped
	EndInactive
)

// Limits bounds the queue and history.
type Limits struct {
	QueueCapacity   int // 0 means unbounded
	HistoryCapacity int
}

// PlaybackState is the mutable state of one session.
type PlaybackState struct {
	Current *track.Track
	Queue   []track.Track
	History []track.Track // most recent last
	Paused  bool
	Repeat  RepeatMode
	Shuffle bool
	Volume  int
	End     EndReason
	Limits  Limits
}

// New returns an idle state.
func New(limits Limits, volume int) *PlaybackState {
	return &PlaybackState{
		Volume: lo.Clamp(volume, MinVolume, MaxVolume),
		Limits: limits,
	}
}

// Clone returns a deep copy.
func (s *PlaybackState) Clone() *PlaybackState {
	c := *s
	if s.Current != nil {
		cur := *s.Current
		c.Current = &cur
	}
	c.Queue = slices.Clone(s.Queue)
	c.History = slices.Clone(s.History)
	return &c
}

// Playing reports whether a track occupies the current slot, paused or not.
func (s *PlaybackState) Playing() bool { return s.Current != nil }

// Active reports whether audio is actually being produced.
func (s *PlaybackState) Active() bool { return s.Current != nil && !s.Paused }

// Validate checks the invariants every committed state must hold.
func (s *PlaybackState) Validate() error {
	if s.Paused && s.Current == nil {
		return fmt.Errorf("%w: paused without a current track", ErrInvalidState)
	}
	if s.Current != nil && s.End != EndNone {
		return fmt.Errorf("%w: end reason set while playing", ErrInvalidState)
	}
	if s.Volume < MinVolume || s.Volume > MaxVolume {
		return fmt.Errorf("%w: volume %d out of range", ErrInvalidState, s.Volume)
	}
	if s.Limits.HistoryCapacity > 0 && len(s.History) > s.Limits.HistoryCapacity {
		return fmt.Errorf("%w: history over capacity", ErrInvalidState)
	}
	return nil
}

// Start puts t in the current slot and records it in the history.
func (s *PlaybackState) Start(t track.Track) {
	s.Current = &t
	s.Paused = false
	s.End = EndNone
	s.remember(t)
}

// Enqueue adds tracks at the tail, or at the head keeping their order when bump
// is set. It returns the 1-based position of the first added track and how many
// fit under the queue capacity.
func (s *PlaybackState) Enqueue(tracks []track.Track, bump bool) (position, added int) {
	room := len(tracks)
	if c := s.Limits.QueueCapacity; c > 0 {
		room = lo.Clamp(c-len(s.Queue), 0, len(tracks))
	}
	if room == 0 {
		return 0, 0
	}
	batch := tracks[:room]
	if bump {
		s.Queue = slices.Insert(s.Queue, 0, batch...)
		return 1, room
	}
	position = len(s.Queue) + 1
	s.Queue = append(s.Queue, batch...)
	return position, room
}

// StartMany plays the first track and queues the rest in one transition.
func (s *PlaybackState) StartMany(tracks []track.Track) (added int) {
	if len(tracks) == 0 {
		return 0
	}
	s.Start(tracks[0])
	_, n := s.Enqueue(tracks[1:], false)
	return n + 1
}

// Advance moves playback forward by steps tracks and returns the new current
// track, or nil once the queue is exhausted. steps is clamped to len(Queue)+1.
// honorTrackRepeat keeps the current track for RepeatTrack (natural end); a skip
// passes false. RepeatQueue recycles every finished track to the tail. pick
// chooses the queue index consumed next and is only consulted while shuffling.
func (s *PlaybackState) Advance(steps int, honorTrackRepeat bool, pick func(n int) int) *track.Track {
	if s.Current == nil || steps <= 0 {
		return s.Current
	}
	if honorTrackRepeat && s.Repeat == RepeatTrack {
		s.Paused = false
		return s.Current
	}
	steps = min(steps, len(s.Queue)+1)
	for range steps {
		finished := *s.Current
		if s.Repeat == RepeatQueue {
			s.Queue = append(s.Queue, finished)
		}
		if len(s.Queue) == 0 {
			s.Current = nil
			s.Paused = false
			s.End = EndQueueEnded
			return nil
		}
		idx := 0
		if s.Shuffle && pick != nil && len(s.Queue) > 1 {
			idx = lo.Clamp(pick(len(s.Queue)), 0, len(s.Queue)-1)
		}
		next := s.Queue[idx]
		s.Queue = slices.Delete(s.Queue, idx, idx+1)
		s.Start(next)
	}
	return s.Current
}

// RemoveRange deletes up to quantity entries starting at the 1-based position
// from. Out of range values are clamped; it returns how many were removed.
func (s *PlaybackState) RemoveRange(from, quantity int) int {
	if from < 1 || quantity < 1 || from > len(s.Queue) {
		return 0
	}
	start := from - 1
	end := lo.Clamp(start+quantity, start, len(s.Queue))
	s.Queue = slices.Delete(s.Queue, start, end)
	return end - start
}

// ClearQueue empties the queue and leaves the current track alone.
func (s *PlaybackState) ClearQueue() int {
	n := len(s.Queue)
	s.Queue = nil
	return n
}

// Reset enters the stopped display state.
func (s *PlaybackState) Reset(reason EndReason) {
	s.Queue = nil
	s.Halt(reason)
}

// Halt ends playback of the current track and keeps the queue.
func (s *PlaybackState) Halt(reason EndReason) {
	s.Current = nil
	s.Paused = false
	s.End = reason
}

// SetVolume clamps v into range and returns the stored value.
func (s *PlaybackState) SetVolume(v int) int {
	s.Volume = lo.Clamp(v, MinVolume, MaxVolume)
	return s.Volume
}

// CycleRepeat flips between Off and Queue; Track falls back to Off.
func (s *PlaybackState) CycleRepeat() RepeatMode {
	if s.Repeat == RepeatOff {
		s.Repeat = RepeatQueue
	} else {
		s.Repeat = RepeatOff
	}
	return s.Repeat
}

// RecentHistory returns the history newest first.
func (s *PlaybackState) RecentHistory() []track.Track {
	out := slices.Clone(s.History)
	slices.Reverse(out)
	return out
}

func (s *PlaybackState) remember(t track.Track) {
	s.History = append(s.History, t)
	if c := s.Limits.HistoryCapacity; c > 0 && len(s.History) > c {
		s.History = slices.Clone(lo.Drop(s.History, len(s.History)-c))
	}
}
