package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

// Session is the playback session shared by every UI consumer. It owns the
// queue and the transport, resolves what happens when a track ends, and
// publishes a domain event for every state change.
//
// All operations are serialized on one mutex. Events are published after the
// mutex is released, so handlers may call back into the session.
// Errors from collaborators never escape: they are logged and surface as
// TrackErrorEvent or as "nothing happened".
type Session struct {
	// Dependencies (injected)
	logger *slog.Logger
	bus    ports.EventBus
	loader *CatalogLoader

	// State
	queue     *Queue
	transport *Transport
	repeat    domain.RepeatMode
	mini      bool

	initialized bool
	disposed    bool
	pending     []domain.Event

	// Concurrency control
	mu sync.Mutex
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	rng    *rand.Rand
	volume float64
	repeat domain.RepeatMode
}

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) SessionOption {
	return func(o *sessionOptions) { o.rng = rng }
}

// WithVolume sets the initial output volume.
func WithVolume(volume float64) SessionOption {
	return func(o *sessionOptions) { o.volume = volume }
}

// WithRepeatMode sets the initial repeat mode.
func WithRepeatMode(mode domain.RepeatMode) SessionOption {
	return func(o *sessionOptions) { o.repeat = mode }
}

// NewSession creates a session over output. Call Init to load the catalog.
func NewSession(
	logger *slog.Logger,
	bus ports.EventBus,
	output ports.AudioOutput,
	loader *CatalogLoader,
	opts ...SessionOption,
) *Session {
	o := sessionOptions{volume: DefaultVolume}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		logger: logger.With("service", "session"),
		bus:    bus,
		loader: loader,
		queue:  NewQueue(o.rng),
		repeat: o.repeat,
	}
	s.transport = NewTransport(logger, output, s.listenerFor, s.emit)
	s.transport.volume = min(max(o.volume, 0), 1)

	logger.Debug("session created")
	return s
}

// emit queues an event for publishing once the current operation unlocks.
// Must be called with mu held.
func (s *Session) emit(event domain.Event) {
	s.pending = append(s.pending, event)
}

// update runs fn under the lock, then publishes the events it produced.
// After Dispose it does nothing and returns false.
func (s *Session) update(fn func()) bool {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false
	}
	fn()
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, event := range events {
		s.bus.Publish(event)
	}
	return true
}

// Init loads the catalog into the queue and binds the first track without
// playing it. Only the first call has any effect.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return domain.ErrSessionDisposed
	}
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	tracks := s.loader.Load(ctx)

	s.update(func() {
		s.queue.Replace(tracks)
		s.emit(domain.NewCatalogLoadedEvent(len(tracks)))
		s.emitQueueChanged()
		s.syncTransport(false)
	})
	return nil
}

// Dispose unloads the output. Every later call is a no-op.
func (s *Session) Dispose() {
	s.update(func() {
		s.transport.Unload()
		s.disposed = true
		s.logger.Debug("session disposed")
	})
}

// syncTransport loads the current track into the transport. Unless force is
// set, a track that is already bound is left alone.
func (s *Session) syncTransport(force bool) {
	current, ok := s.queue.Current()
	if !ok {
		if s.transport.State() != domain.StateEmpty || s.transport.Track() != (domain.Track{}) {
			s.transport.Unload()
		}
		return
	}
	if !force && s.transport.State() != domain.StateEmpty && s.transport.Track().SameAs(current) {
		return
	}
	s.transport.Load(current)
}

func (s *Session) emitQueueChanged() {
	s.emit(domain.NewQueueChangedEvent(s.queue.tracks, s.queue.Index()))
}

// Actions

// TogglePlay plays or pauses the current track. It does nothing without a playable track.
func (s *Session) TogglePlay() {
	s.update(s.transport.TogglePlay)
}

// Next moves to the following track and plays it. At the end of the queue it
// wraps around in repeat-all mode and otherwise does nothing.
func (s *Session) Next() {
	s.update(func() {
		if !s.queue.Advance(s.repeat == domain.RepeatAll) {
			return
		}
		s.transport.SetIntent(true)
		s.emitQueueChanged()
		s.syncTransport(true)
	})
}

// Previous moves to the preceding track and plays it. At the first track it does nothing.
func (s *Session) Previous() {
	s.update(func() {
		if !s.queue.Retreat() {
			return
		}
		s.transport.SetIntent(true)
		s.emitQueueChanged()
		s.syncTransport(true)
	})
}

// Seek jumps to fraction (clamped to [0, 1]) of the current track.
func (s *Session) Seek(fraction float64) {
	s.update(func() { s.transport.Seek(fraction) })
}

// ReplaceQueue installs tracks as the queue, positioned on the first one.
// The play intent is kept.
func (s *Session) ReplaceQueue(tracks []domain.Track) {
	s.update(func() {
		s.queue.Replace(tracks)
		s.emitQueueChanged()
		s.syncTransport(false)
	})
}

// SetCurrentTrack moves to track if it is in the queue. Unknown tracks are ignored.
func (s *Session) SetCurrentTrack(track domain.Track) {
	s.update(func() {
		if !s.queue.SetCurrent(track) {
			s.logger.Debug("track not in queue", slog.String("track_id", track.ID))
			return
		}
		s.emitQueueChanged()
		s.syncTransport(false)
	})
}

// PlayTrack moves to track if it is in the queue and plays it.
func (s *Session) PlayTrack(track domain.Track) {
	s.update(func() {
		if !s.queue.SetCurrent(track) {
			s.logger.Debug("track not in queue", slog.String("track_id", track.ID))
			return
		}
		s.emitQueueChanged()
		generation := s.transport.Generation()
		s.transport.SetIntent(true)
		s.syncTransport(false)
		if s.transport.Generation() == generation {
			s.transport.Resume()
		}
	})
}

// PlayTrackSet replaces the queue with an album, genre, artist or playlist
// and starts playing its first track. It returns false when the set is empty,
// could not be loaded or the session is disposed, leaving the queue untouched.
func (s *Session) PlayTrackSet(ctx context.Context, kind domain.TrackSetKind, id string) bool {
	tracks := s.loader.LoadSet(ctx, kind, id)
	if len(tracks) == 0 {
		return false
	}

	return s.update(func() {
		s.queue.Replace(tracks)
		s.transport.SetIntent(true)
		s.emitQueueChanged()
		s.syncTransport(true)
	})
}

// Shuffle permutes the queue once, keeping the current track playing.
func (s *Session) Shuffle() {
	s.update(func() {
		if s.queue.Len() < 2 {
			return
		}
		s.queue.Shuffle()
		s.emitQueueChanged()
	})
}

// ToggleShuffleMode turns shuffle mode on or off. Queues with at most one track are left alone.
func (s *Session) ToggleShuffleMode() {
	s.update(func() {
		if !s.queue.ToggleShuffleMode() {
			return
		}
		s.emit(domain.NewShuffleChangedEvent(s.queue.Shuffling()))
		s.emitQueueChanged()
	})
}

// ToggleRepeat cycles the repeat mode off → all → one → off.
func (s *Session) ToggleRepeat() {
	s.update(func() {
		s.repeat = s.repeat.Next()
		s.emit(domain.NewRepeatChangedEvent(s.repeat))
	})
}

// SetRepeatMode sets the repeat mode.
func (s *Session) SetRepeatMode(mode domain.RepeatMode) {
	s.update(func() {
		if s.repeat == mode {
			return
		}
		s.repeat = mode
		s.emit(domain.NewRepeatChangedEvent(s.repeat))
	})
}

// SetMiniView sets the compact player view flag.
func (s *Session) SetMiniView(mini bool) {
	s.update(func() {
		if s.mini == mini {
			return
		}
		s.mini = mini
		s.emit(domain.NewMiniViewChangedEvent(mini))
	})
}

// ToggleMiniView flips the compact player view flag.
func (s *Session) ToggleMiniView() {
	s.update(func() {
		s.mini = !s.mini
		s.emit(domain.NewMiniViewChangedEvent(s.mini))
	})
}

// InsertAfterCurrent queues track to play next.
func (s *Session) InsertAfterCurrent(track domain.Track) {
	s.update(func() {
		wasEmpty := s.queue.Len() == 0
		s.queue.InsertAfterCurrent(track)
		s.emitQueueChanged()
		if wasEmpty {
			s.syncTransport(false)
		}
	})
}

// AppendToEnd queues track to play last.
func (s *Session) AppendToEnd(track domain.Track) {
	s.update(func() {
		wasEmpty := s.queue.Len() == 0
		s.queue.AppendToEnd(track)
		s.emitQueueChanged()
		if wasEmpty {
			s.syncTransport(false)
		}
	})
}

// SetVolume sets the output volume, clamped to [0, 1].
func (s *Session) SetVolume(volume float64) {
	s.update(func() { s.transport.SetVolume(volume) })
}

// State

// Snapshot returns a copy of the whole session state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.Snapshot{
		IsPlaying:    s.transport.IsPlaying(),
		CurrentIndex: s.queue.Index(),
		Queue:        s.queue.Tracks(),
		Position:     s.transport.Position(),
		Duration:     s.transport.Duration(),
		RepeatMode:   s.repeat,
		IsShuffling:  s.queue.Shuffling(),
		IsMini:       s.mini,
		Volume:       s.transport.Volume(),
		State:        s.transport.State(),
	}
	if current, ok := s.queue.Current(); ok {
		snap.CurrentTrack = &current
	}
	return snap
}

// IsPlaying reports the play intent.
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport.IsPlaying()
}

// CurrentTrack returns the track at the current queue position.
func (s *Session) CurrentTrack() (domain.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Current()
}

// CurrentIndex returns the current queue position.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Index()
}

// Queue returns a copy of the queue in play order.
func (s *Session) Queue() []domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Tracks()
}

// OriginalQueue returns a copy of the order restored when shuffle mode is turned off.
func (s *Session) OriginalQueue() []domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Original()
}

// Position returns the playback position.
func (s *Session) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport.Position()
}

// Duration returns the duration of the current track, or 0 before metadata.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport.Duration()
}

// RepeatMode returns the repeat mode.
func (s *Session) RepeatMode() domain.RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeat
}

// IsShuffling reports whether shuffle mode is on.
func (s *Session) IsShuffling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Shuffling()
}

// IsMini reports the compact player view flag.
func (s *Session) IsMini() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mini
}

// Volume returns the output volume.
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport.Volume()
}

// State returns the transport state.
func (s *Session) State() domain.TransportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport.State()
}

// Output callbacks

func (s *Session) listenerFor(generation uint64) ports.OutputListener {
	return &outputListener{session: s, generation: generation}
}

// outputListener forwards output callbacks for one load into the session.
type outputListener struct {
	session    *Session
	generation uint64
}

func (l *outputListener) OnLoadedMetadata(duration time.Duration) {
	s := l.session
	s.update(func() {
		if !s.transport.HandleLoadedMetadata(l.generation, duration) {
			return
		}
		s.emit(domain.NewTrackLoadedEvent(s.transport.Track(), duration, s.queue.Index()))
		s.transport.PlayIfIntended()
	})
}

func (l *outputListener) OnTimeUpdate(position time.Duration) {
	s := l.session
	s.update(func() { s.transport.HandleTimeUpdate(l.generation, position) })
}

func (l *outputListener) OnEnded() {
	s := l.session
	s.update(func() {
		if !s.transport.HandleEnded(l.generation) {
			return
		}
		s.emit(domain.NewTrackEndedEvent(s.transport.Track(), s.queue.Index()))
		s.resolveEnded()
	})
}

func (l *outputListener) OnError(err error) {
	s := l.session
	s.update(func() { s.transport.HandleError(l.generation, err) })
}

// resolveEnded picks what plays after a track ends naturally.
//
//	one: replay the same track from the start
//	all: advance, wrapping from the last track to the first
//	off: advance, or stop at the end of the queue with the position held at the end
func (s *Session) resolveEnded() {
	switch s.repeat {
	case domain.RepeatOne:
		s.transport.SetIntent(true)
		s.syncTransport(true)
	case domain.RepeatAll:
		s.queue.Advance(true)
		s.transport.SetIntent(true)
		s.emitQueueChanged()
		s.syncTransport(true)
	default:
		if !s.queue.Advance(false) {
			s.transport.SetIntent(false)
			return
		}
		s.transport.SetIntent(true)
		s.emitQueueChanged()
		s.syncTransport(true)
	}
}

// Verify that outputListener implements the OutputListener interface
var _ ports.OutputListener = (*outputListener)(nil)
