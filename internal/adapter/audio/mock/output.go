// Package mock provides an in-memory implementation of the AudioOutput interface.
// Nothing happens on its own: tests drive metadata, progress and track end
// explicitly through CompleteLoad, Tick, Finish and Fail.
package mock

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

// DefaultDuration is the duration reported by CompleteLoad when none is given.
const DefaultDuration = 3 * time.Minute

// Output is a mock implementation of the AudioOutput interface.
//
// Thread-safety: This implementation is thread-safe. Listener callbacks are
// always invoked without the internal lock held.
type Output struct {
	logger *slog.Logger

	mu       sync.Mutex
	src      string
	listener ports.OutputListener
	duration time.Duration
	position time.Duration
	volume   float64
	playing  bool
	closed   bool

	// history
	loads  []string
	plays  int
	seeks  []time.Duration
	unload int

	// behavior configuration (for testing error scenarios)
	failLoad bool
	failPlay bool
	autoLoad time.Duration

	wg sync.WaitGroup
}

// Option configures an Output.
type Option func(*Output)

// WithAutoLoad makes every successful Load report duration as metadata from
// its own goroutine, so the output can stand in for a real one without a driver.
func WithAutoLoad(duration time.Duration) Option {
	return func(o *Output) { o.autoLoad = duration }
}

// NewOutput creates a new mock audio output at full volume.
func NewOutput(logger *slog.Logger, opts ...Option) *Output {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	o := &Output{
		logger: logger.With("component", "mock-output"),
		volume: 1.0,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetFailLoad makes Load return an error.
func (o *Output) SetFailLoad(fail bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failLoad = fail
}

// SetFailPlay makes Play return domain.ErrPlaybackFailed.
func (o *Output) SetFailPlay(fail bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failPlay = fail
}

// Load binds src and listener. No callback is made until a driver method is called.
func (o *Output) Load(src string, listener ports.OutputListener) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return domain.ErrOutputClosed
	}
	if src == "" {
		return domain.ErrNoSource
	}
	if o.failLoad {
		return domain.NewAudioOutputError("load", src, domain.ErrUnsupportedFormat)
	}

	o.src = src
	o.listener = listener
	o.duration = 0
	o.position = 0
	o.playing = false
	o.loads = append(o.loads, src)
	o.logger.Debug("source loaded", slog.String("src", src))

	if o.autoLoad > 0 {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			o.CompleteLoad(o.autoLoad)
		}()
	}
	return nil
}

// Unload detaches the current source and listener.
func (o *Output) Unload() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.src == "" {
		return nil
	}
	o.src = ""
	o.listener = nil
	o.duration = 0
	o.position = 0
	o.playing = false
	o.unload++
	return nil
}

// Play starts playback.
func (o *Output) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.src == "" {
		return domain.ErrNoTrackLoaded
	}
	if o.failPlay {
		return domain.ErrPlaybackFailed
	}
	o.playing = true
	o.plays++
	return nil
}

// Pause pauses playback.
func (o *Output) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.src == "" {
		return domain.ErrNoTrackLoaded
	}
	o.playing = false
	return nil
}

// Seek moves the playback position.
func (o *Output) Seek(position time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.src == "" {
		return domain.ErrNoTrackLoaded
	}
	if position < 0 || (o.duration > 0 && position > o.duration) {
		return domain.ErrInvalidPosition
	}
	o.position = position
	o.seeks = append(o.seeks, position)
	return nil
}

// SetVolume sets the output volume.
func (o *Output) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.volume = volume
	return nil
}

// Close marks the output closed, drops the source and waits for pending
// automatic metadata reports.
func (o *Output) Close() error {
	o.mu.Lock()
	o.closed = true
	o.src = ""
	o.listener = nil
	o.playing = false
	o.mu.Unlock()

	o.wg.Wait()
	return nil
}

// Driver methods. Each captures the listener under the lock and calls it after
// releasing the lock, mirroring how a real output calls back from its own goroutine.

// CompleteLoad reports metadata for the current source. A zero duration means DefaultDuration.
func (o *Output) CompleteLoad(duration time.Duration) {
	if duration <= 0 {
		duration = DefaultDuration
	}

	o.mu.Lock()
	listener := o.listener
	o.duration = duration
	o.mu.Unlock()

	if listener != nil {
		listener.OnLoadedMetadata(duration)
	}
}

// Tick reports a playback position for the current source.
func (o *Output) Tick(position time.Duration) {
	o.mu.Lock()
	listener := o.listener
	o.position = position
	o.mu.Unlock()

	if listener != nil {
		listener.OnTimeUpdate(position)
	}
}

// Finish plays the current source to the end.
func (o *Output) Finish() {
	o.mu.Lock()
	listener := o.listener
	o.position = o.duration
	o.playing = false
	o.mu.Unlock()

	if listener != nil {
		listener.OnEnded()
	}
}

// Fail reports an asynchronous error for the current source.
func (o *Output) Fail(err error) {
	o.mu.Lock()
	listener := o.listener
	o.playing = false
	o.mu.Unlock()

	if listener != nil {
		listener.OnError(err)
	}
}

// Listener returns the listener bound by the last Load, so tests can replay
// callbacks from a superseded load.
func (o *Output) Listener() ports.OutputListener {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.listener
}

// Inspection methods

// Src returns the currently loaded source.
func (o *Output) Src() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.src
}

// IsPlaying reports whether Play was called since the last Load, Pause or Finish.
func (o *Output) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

// Position returns the last position set by Seek or Tick.
func (o *Output) Position() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position
}

// Volume returns the current volume.
func (o *Output) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// Loads returns every source passed to a successful Load, in order.
func (o *Output) Loads() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.loads)
}

// Seeks returns every position passed to a successful Seek, in order.
func (o *Output) Seeks() []time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.seeks)
}

// PlayCalls returns the number of successful Play calls.
func (o *Output) PlayCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.plays
}

// UnloadCalls returns the number of Unload calls that released a source.
func (o *Output) UnloadCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.unload
}

// Verify that Output implements the AudioOutput interface
var _ ports.AudioOutput = (*Output)(nil)
