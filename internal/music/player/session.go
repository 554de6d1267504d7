package player

import (
	"context"
	"errors"
	"fmt"
	"slices"
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
	maxAdvanceAttempts = 3
	cleanupTimeout     = 10 * time.Second

	statusDeletePrefix = "status-delete:"
)

// JoinParams binds a session to the channels it plays in and reports to.
type JoinParams struct {
	VoiceChannelID snowflake.ID
	TextChannelID  snowflake.ID
}

type PlayResult struct {
	StartedImmediately bool
	Position           int // 1-based queue position when queued
}

type EnqueueResult struct {
	Started bool
	Added   int
}

type SkipResult struct {
	Skipped int
	Current *track.Track
}

// Session is the playback controller of one guild. Every mutating call is
// serialized by opMu, including the backend and chat calls it makes and the
// final status push. stateMu only guards the committed state so Snapshot never
// waits for network calls.
type Session struct {
	guildID  snowflake.ID
	backend  Backend
	voice    Voice
	sink     status.Sink
	activity ActivityTracker
	jobs     *jobmgr.Manager
	registry *Registry
	opts     Options
	log      zerolog.Logger

	opMu   sync.Mutex
	closed bool
	// voicePending is set from Connect until the gateway confirms the
	// channel. Guarded by opMu.
	voicePending bool

	// message bookkeeping, guarded by opMu
	msg           status.Handle
	gen           uint64
	pendingDelete string

	stateMu        sync.RWMutex
	st             *state.PlaybackState
	voiceChannelID snowflake.ID
	textChannelID  snowflake.ID
}

func newSession(guildID snowflake.ID, r *Registry) *Session {
	d := r.deps
	return &Session{
		guildID:  guildID,
		backend:  d.Backends(guildID),
		voice:    d.Voice,
		sink:     d.Sink,
		activity: d.Activity,
		jobs:     d.Jobs,
		registry: r,
		opts:     d.Options,
		log:      d.Logger.With().Str("component", "player").Str("guild", guildID.String()).Logger(),
		st:       state.New(d.Options.Limits, d.Options.DefaultVolume),
	}
}

// GuildID returns the guild the session belongs to.
func (s *Session) GuildID() snowflake.ID { return s.guildID }

// Snapshot returns a deep copy of the committed state.
func (s *Session) Snapshot() *state.PlaybackState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.st.Clone()
}

// VoiceChannelID returns the voice channel the session is bound to.
func (s *Session) VoiceChannelID() snowflake.ID {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.voiceChannelID
}

// TextChannelID returns the channel the status message lives in.
func (s *Session) TextChannelID() snowflake.ID {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.textChannelID
}

// Join connects to the voice channel on first use and binds the text channel
// when no status message is live. Joining an already connected session is a
// no-op apart from the text channel binding.
func (s *Session) Join(ctx context.Context, p JoinParams) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	if s.voiceChannelID == 0 {
		if err := s.voice.Connect(ctx, s.guildID, p.VoiceChannelID); err != nil {
			s.destroyLocked(ctx)
			return fmt.Errorf("%w: join voice: %w", ErrBackend, err)
		}
		s.stateMu.Lock()
		s.voiceChannelID = p.VoiceChannelID
		s.stateMu.Unlock()
		s.voicePending = true
		s.activity.Track(s.guildID, s)
		s.log.Info().Str("voice_channel", p.VoiceChannelID.String()).Msg("joined voice")
	}

	if !s.msg.Valid() && p.TextChannelID != 0 {
		s.stateMu.Lock()
		s.textChannelID = p.TextChannelID
		s.stateMu.Unlock()
	}
	return nil
}

// Play starts t right away when nothing is playing, otherwise queues it at the
// tail or, with bump, at the head.
func (s *Session) Play(ctx context.Context, t track.Track, bump bool) (PlayResult, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return PlayResult{}, ErrSessionClosed
	}

	next := s.st.Clone()
	if !next.Playing() {
		next.Start(t)
		if err := s.backend.Play(ctx, t); err != nil {
			return PlayResult{}, fmt.Errorf("%w: play: %w", ErrBackend, err)
		}
		s.commit(next)
		s.started(ctx)
		return PlayResult{StartedImmediately: true}, nil
	}

	pos, n := next.Enqueue([]track.Track{t}, bump)
	if n == 0 {
		return PlayResult{}, ErrQueueFull
	}
	s.commit(next)
	s.push(ctx, false)
	return PlayResult{Position: pos}, nil
}

// EnqueueMany appends tracks in one transition. When idle the first track is
// started and the rest queued.
func (s *Session) EnqueueMany(ctx context.Context, tracks []track.Track) (EnqueueResult, error) {
	if len(tracks) == 0 {
		return EnqueueResult{}, fmt.Errorf("%w: no tracks", ErrInvalidArgument)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return EnqueueResult{}, ErrSessionClosed
	}

	next := s.st.Clone()
	if !next.Playing() {
		added := next.StartMany(tracks)
		if err := s.backend.Play(ctx, tracks[0]); err != nil {
			return EnqueueResult{}, fmt.Errorf("%w: play: %w", ErrBackend, err)
		}
		s.commit(next)
		s.started(ctx)
		return EnqueueResult{Started: true, Added: added}, nil
	}

	_, added := next.Enqueue(tracks, false)
	if added == 0 {
		return EnqueueResult{}, ErrQueueFull
	}
	s.commit(next)
	s.push(ctx, false)
	return EnqueueResult{Added: added}, nil
}

// Stop clears the queue and the current track, shows the terminal card and
// schedules its removal. Stopping a stopped session changes nothing.
func (s *Session) Stop(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	if !s.st.Playing() && s.st.End != state.EndNone {
		return nil
	}
	if err := s.backend.Stop(ctx); err != nil {
		return fmt.Errorf("%w: stop: %w", ErrBackend, err)
	}
	next := s.st.Clone()
	next.Reset(state.EndStopped)
	s.commit(next)
	s.ended(ctx)
	return nil
}

// Pause pauses the current track. Pausing a paused session only re-renders.
func (s *Session) Pause(ctx context.Context) error {
	return s.setPaused(ctx, true)
}

// Resume resumes the current track. Resuming a playing session only re-renders.
func (s *Session) Resume(ctx context.Context) error {
	return s.setPaused(ctx, false)
}

// TogglePause flips between paused and playing and returns the new paused flag.
func (s *Session) TogglePause(ctx context.Context) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return false, ErrSessionClosed
	}
	want := !s.st.Paused
	return want, s.setPausedLocked(ctx, want)
}

func (s *Session) setPaused(ctx context.Context, paused bool) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.setPausedLocked(ctx, paused)
}

func (s *Session) setPausedLocked(ctx context.Context, paused bool) error {
	if !s.st.Playing() {
		return ErrNothingPlaying
	}
	if s.st.Paused != paused {
		if err := s.backend.SetPaused(ctx, paused); err != nil {
			return fmt.Errorf("%w: pause: %w", ErrBackend, err)
		}
		next := s.st.Clone()
		next.Paused = paused
		s.commit(next)
	}
	s.push(ctx, false)
	s.reportActivity()
	return nil
}

// Skip moves playback forward by quantity tracks when fromPosition is 0, or
// removes quantity queue entries starting at the 1-based fromPosition.
func (s *Session) Skip(ctx context.Context, fromPosition, quantity int) (SkipResult, error) {
	if quantity <= 0 {
		return SkipResult{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidArgument, quantity)
	}
	if fromPosition < 0 {
		return SkipResult{}, fmt.Errorf("%w: position must not be negative, got %d", ErrInvalidArgument, fromPosition)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return SkipResult{}, ErrSessionClosed
	}

	if fromPosition > 0 {
		next := s.st.Clone()
		n := next.RemoveRange(fromPosition, quantity)
		s.commit(next)
		s.push(ctx, false)
		return SkipResult{Skipped: n, Current: next.Current}, nil
	}

	if !s.st.Playing() {
		return SkipResult{}, ErrNothingPlaying
	}
	steps := min(quantity, len(s.st.Queue)+1)
	next := s.st.Clone()
	cur := next.Advance(steps, false, s.opts.Pick)
	if cur == nil {
		if err := s.backend.Stop(ctx); err != nil {
			return SkipResult{}, fmt.Errorf("%w: stop: %w", ErrBackend, err)
		}
		s.commit(next)
		s.ended(ctx)
		return SkipResult{Skipped: steps}, nil
	}
	if err := s.backend.Play(ctx, *cur); err != nil {
		return SkipResult{}, fmt.Errorf("%w: play: %w", ErrBackend, err)
	}
	s.commit(next)
	s.started(ctx)
	return SkipResult{Skipped: steps, Current: cur}, nil
}

// SetVolume clamps v into range, applies it and returns the stored value.
func (s *Session) SetVolume(ctx context.Context, v int) (int, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}

	next := s.st.Clone()
	vol := next.SetVolume(v)
	if err := s.backend.SetVolume(ctx, vol); err != nil {
		return 0, fmt.Errorf("%w: volume: %w", ErrBackend, err)
	}
	s.commit(next)
	s.push(ctx, false)
	return vol, nil
}

// SetRepeat sets the repeat mode.
func (s *Session) SetRepeat(ctx context.Context, mode state.RepeatMode) error {
	_, err := s.mutate(ctx, func(st *state.PlaybackState) any {
		st.Repeat = mode
		return nil
	})
	return err
}

// CycleRepeat flips repeat between Off and Queue.
func (s *Session) CycleRepeat(ctx context.Context) (state.RepeatMode, error) {
	v, err := s.mutate(ctx, func(st *state.PlaybackState) any { return st.CycleRepeat() })
	if err != nil {
		return state.RepeatOff, err
	}
	return v.(state.RepeatMode), nil
}

// ToggleShuffle flips the shuffle flag and returns the new value. The stored
// queue order is never touched.
func (s *Session) ToggleShuffle(ctx context.Context) (bool, error) {
	v, err := s.mutate(ctx, func(st *state.PlaybackState) any {
		st.Shuffle = !st.Shuffle
		return st.Shuffle
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Clear empties the queue; the current track keeps playing.
func (s *Session) Clear(ctx context.Context) (int, error) {
	v, err := s.mutate(ctx, func(st *state.PlaybackState) any { return st.ClearQueue() })
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// mutate applies a state-only change and re-renders.
func (s *Session) mutate(ctx context.Context, fn func(*state.PlaybackState) any) (any, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	next := s.st.Clone()
	out := fn(next)
	s.commit(next)
	s.push(ctx, false)
	return out, nil
}

// Repost deletes the live status message and posts it again at the bottom of
// channelID.
func (s *Session) Repost(ctx context.Context, channelID snowflake.ID) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if !s.msg.Valid() {
		return ErrNoStatusMessage
	}

	old := s.msg
	s.dropMessage()
	if err := s.sink.Delete(ctx, old); err != nil && !errors.Is(err, status.ErrMessageNotFound) {
		s.log.Warn().Err(err).Msg("failed to delete status message for repost")
	}
	if channelID != 0 {
		s.stateMu.Lock()
		s.textChannelID = channelID
		s.stateMu.Unlock()
	}
	if err := s.create(ctx, status.Render(s.st)); err != nil {
		return err
	}
	if !s.st.Playing() {
		s.scheduleDelete()
	}
	return nil
}

// OnTrackStarted confirms the backend started the current track.
func (s *Session) OnTrackStarted(ctx context.Context, encoded string) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed || !s.isCurrent(encoded) {
		return
	}
	s.log.Debug().Str("track", s.st.Current.Display()).Msg("track started")
	s.reportActivity()
}

// OnTrackEnded advances the queue after a natural end or a load failure.
// Events for anything but the current track are stale and ignored.
func (s *Session) OnTrackEnded(ctx context.Context, encoded string, reason TrackEndReason) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed || !s.isCurrent(encoded) {
		return
	}
	s.log.Debug().Str("track", s.st.Current.Display()).Str("reason", string(reason)).Msg("track ended")
	if !reason.MayStartNext() {
		return
	}
	s.advance(ctx, reason == EndFinished)
}

// OnVoiceClosed tears the session down after the voice connection went away.
func (s *Session) OnVoiceClosed(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return
	}
	s.voiceClosedLocked(ctx)
}

// OnVoiceStateChanged follows the bot's own voice state. A move rebinds the
// session to the new channel. Leaving voice destroys the session, except for a
// leave that arrives before the gateway confirmed this session's own join:
// that one belongs to the previous connection.
func (s *Session) OnVoiceStateChanged(ctx context.Context, channelID snowflake.ID) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return
	}
	if channelID == 0 {
		if s.voicePending || s.VoiceChannelID() == 0 {
			s.log.Debug().Msg("ignoring voice leave of a previous connection")
			return
		}
		s.voiceClosedLocked(ctx)
		return
	}

	s.voicePending = false
	s.stateMu.Lock()
	prev := s.voiceChannelID
	s.voiceChannelID = channelID
	s.stateMu.Unlock()
	if prev != 0 && prev != channelID {
		s.log.Info().Str("from", prev.String()).Str("to", channelID.String()).Msg("moved voice channel")
	}
}

func (s *Session) voiceClosedLocked(ctx context.Context) {
	s.log.Info().Msg("voice connection closed")
	if s.st.Playing() {
		next := s.st.Clone()
		next.Reset(state.EndStopped)
		s.commit(next)
		s.push(ctx, false)
		s.scheduleDelete()
	}
	s.destroyLocked(ctx)
}

// NotifyInactive stops playback, shows the inactivity card and destroys the
// session. It is ignored when playback became active in the meantime.
func (s *Session) NotifyInactive(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed || s.st.Active() {
		return
	}

	if err := s.backend.Stop(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to stop backend on inactivity")
	}
	next := s.st.Clone()
	next.Reset(state.EndInactive)
	s.commit(next)
	s.push(ctx, false)
	s.scheduleDelete()
	s.destroyLocked(ctx)
}

func (s *Session) NotifyActive(context.Context)  {}
func (s *Session) NotifyTracked(context.Context) {}

// Close destroys the session and removes its status message right away.
func (s *Session) Close(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed {
		return nil
	}
	if s.msg.Valid() {
		h := s.msg
		s.dropMessage()
		if err := s.sink.Delete(ctx, h); err != nil && !errors.Is(err, status.ErrMessageNotFound) {
			s.log.Warn().Err(err).Msg("failed to delete status message")
		}
	}
	s.destroyLocked(ctx)
	return nil
}

// advance plays the next track after the current one ended. A track the backend
// refuses is skipped, a bounded number of times, and never enters the history.
// Once the attempts run out playback halts with the untried tracks still queued.
func (s *Session) advance(ctx context.Context, honorTrackRepeat bool) {
	next := s.st.Clone()
	played := slices.Clone(next.History)
	for range maxAdvanceAttempts {
		cur := next.Advance(1, honorTrackRepeat, s.opts.Pick)
		if cur == nil {
			s.commit(next)
			s.ended(ctx)
			return
		}
		err := s.backend.Play(ctx, *cur)
		if err == nil {
			s.commit(next)
			s.started(ctx)
			return
		}
		s.log.Warn().Err(err).Str("track", cur.Display()).Msg("failed to start next track")
		next.History = slices.Clone(played)
		honorTrackRepeat = false
	}

	if err := s.backend.Stop(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to stop backend")
	}
	next.Halt(state.EndQueueEnded)
	s.commit(next)
	s.ended(ctx)
}

func (s *Session) isCurrent(encoded string) bool {
	return s.st.Current != nil && s.st.Current.Encoded == encoded
}

// commit publishes next as the session state. Callers hold opMu.
func (s *Session) commit(next *state.PlaybackState) {
	if err := next.Validate(); err != nil {
		s.log.Error().Err(err).Msg("committing inconsistent state")
	}
	s.stateMu.Lock()
	s.st = next
	s.stateMu.Unlock()
}

// started finishes a transition into playback.
func (s *Session) started(ctx context.Context) {
	s.cancelDelete()
	s.push(ctx, true)
	s.reportActivity()
}

// ended finishes a transition into the stopped display state.
func (s *Session) ended(ctx context.Context) {
	s.push(ctx, false)
	s.scheduleDelete()
	s.reportActivity()
}

func (s *Session) reportActivity() {
	if s.st.Active() {
		s.activity.Active(s.guildID)
	} else {
		s.activity.Idle(s.guildID)
	}
}

// push renders the committed state onto the live message. A vanished message
// is forgotten; a new one is only posted when allowCreate is set. Failures are
// logged and never fail the operation.
func (s *Session) push(ctx context.Context, allowCreate bool) {
	p := status.Render(s.st)
	if s.msg.Valid() {
		err := s.sink.Modify(ctx, s.msg, p)
		switch {
		case err == nil:
			return
		case errors.Is(err, status.ErrMessageNotFound):
			s.log.Debug().Msg("status message gone, dropping handle")
			s.dropMessage()
		default:
			s.log.Warn().Err(err).Msg("failed to update status message")
			return
		}
	}
	if !allowCreate {
		return
	}
	if err := s.create(ctx, p); err != nil {
		s.log.Warn().Err(err).Msg("failed to post status message")
	}
}

func (s *Session) create(ctx context.Context, p status.Payload) error {
	channelID := s.TextChannelID()
	if channelID == 0 {
		return nil
	}
	h, err := s.sink.Create(ctx, channelID, p)
	if err != nil {
		return fmt.Errorf("post status message: %w", err)
	}
	s.gen++
	s.msg = h
	return nil
}

func (s *Session) dropMessage() {
	s.cancelDelete()
	s.msg = status.Handle{}
}

// scheduleDelete removes the live message after the grace delay. The job is
// keyed to the message generation so it can never delete a newer message.
func (s *Session) scheduleDelete() {
	if !s.msg.Valid() || s.pendingDelete != "" {
		return
	}
	h, gen := s.msg, s.gen
	name := fmt.Sprintf("%s%s:%d", statusDeletePrefix, s.guildID, gen)
	err := s.jobs.StartAfter(name, s.opts.DeleteDelay, func(ctx context.Context) error {
		return s.deleteIfCurrent(ctx, name, gen, h)
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to schedule status message removal")
		return
	}
	s.pendingDelete = name
}

func (s *Session) cancelDelete() {
	if s.pendingDelete == "" {
		return
	}
	_ = s.jobs.Stop(s.pendingDelete)
	s.pendingDelete = ""
}

func (s *Session) deleteIfCurrent(jobCtx context.Context, name string, gen uint64, h status.Handle) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if jobCtx.Err() != nil || s.pendingDelete != name || s.gen != gen || s.msg != h {
		return nil
	}
	s.pendingDelete = ""
	s.msg = status.Handle{}

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := s.sink.Delete(ctx, h); err != nil && !errors.Is(err, status.ErrMessageNotFound) {
		return fmt.Errorf("delete status message: %w", err)
	}
	return nil
}

// destroyLocked releases everything the session holds and unregisters it.
func (s *Session) destroyLocked(ctx context.Context) {
	if s.closed {
		return
	}
	s.closed = true
	s.activity.Forget(s.guildID)

	if err := s.backend.Destroy(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to destroy backend player")
	}
	if s.VoiceChannelID() != 0 {
		if err := s.voice.Disconnect(ctx, s.guildID); err != nil {
			s.log.Warn().Err(err).Msg("failed to leave voice")
		}
	}
	s.registry.Remove(s.guildID, s)
	s.log.Info().Msg("session destroyed")
}
