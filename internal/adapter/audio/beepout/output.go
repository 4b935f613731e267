//go:build (linux && cgo) || windows || darwin

package beepout

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

// Available reports whether this build can play audio.
const Available = true

// Output is the speaker implementation of the AudioOutput interface.
//
// Thread-safety: This implementation is thread-safe via sync.Mutex. The
// speaker lock is only ever taken while holding mu, never the other way round.
type Output struct {
	logger  *slog.Logger
	cfg     ports.AudioOutputConfig
	baseURL string
	client  *http.Client
	rate    beep.SampleRate

	mu           sync.Mutex
	current      *source
	volume       float64
	speakerReady bool
	closed       bool

	wg sync.WaitGroup
}

// source is the state of one Load. A superseded source is never current again,
// so its goroutines and callbacks recognise themselves as stale.
type source struct {
	src      string
	listener ports.OutputListener
	cancel   context.CancelFunc

	streamer beep.StreamSeekCloser
	format   beep.Format
	duration time.Duration
	ctrl     *beep.Ctrl
	vol      *effects.Volume

	queued   bool // handed to the speaker mixer
	stopTick chan struct{}
}

// NewOutput creates a speaker output. The speaker itself is opened on the first Play.
func NewOutput(logger *slog.Logger, cfg ports.AudioOutputConfig, opts ...Option) *Output {
	o := options{client: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	cfg = withDefaults(cfg)

	return &Output{
		logger:  logger.With("component", "speaker-output"),
		cfg:     cfg,
		baseURL: o.baseURL,
		client:  o.client,
		rate:    beep.SampleRate(cfg.SampleRate),
		volume:  1.0,
	}
}

// Load starts fetching and decoding src in the background.
func (o *Output) Load(src string, listener ports.OutputListener) error {
	if src == "" {
		return domain.ErrNoSource
	}
	loc, err := resolveSource(o.baseURL, src)
	if err != nil {
		return domain.NewAudioOutputError("load", src, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return domain.ErrOutputClosed
	}
	o.stopLocked()

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.FetchTimeout)
	s := &source{src: src, listener: listener, cancel: cancel}
	o.current = s

	o.wg.Add(1)
	go o.prepare(ctx, s, loc)

	o.logger.Debug("loading source", slog.String("src", src))
	return nil
}

// prepare fetches and decodes s, then reports its duration.
func (o *Output) prepare(ctx context.Context, s *source, loc location) {
	defer o.wg.Done()
	defer s.cancel()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	data, err := fetch(ctx, o.client, loc)
	if err == nil {
		streamer, format, err = decode(data, loc.ext())
	}

	o.mu.Lock()
	if o.current != s {
		o.mu.Unlock()
		if streamer != nil {
			_ = streamer.Close()
		}
		return
	}
	if err != nil {
		o.current = nil
		o.mu.Unlock()
		o.logger.Warn("failed to prepare source", slog.String("src", s.src), slog.Any("error", err))
		s.listener.OnError(domain.NewAudioOutputError("load", s.src, err))
		return
	}

	s.streamer = streamer
	s.format = format
	s.duration = format.SampleRate.D(streamer.Len())
	s.vol = &effects.Volume{
		Streamer: beep.Resample(4, s.format.SampleRate, o.rate, s.streamer),
		Base:     2,
		Volume:   levelToVolume(o.volume),
		Silent:   o.volume == 0,
	}
	s.ctrl = &beep.Ctrl{Streamer: s.vol, Paused: true}
	o.mu.Unlock()

	s.listener.OnLoadedMetadata(s.duration)
}

// Unload stops playback and drops the current source.
func (o *Output) Unload() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
	return nil
}

// stopLocked releases the current source. Must be called with mu held.
func (o *Output) stopLocked() {
	s := o.current
	if s == nil {
		return
	}
	o.current = nil

	s.cancel()
	o.stopTickerLocked(s)
	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		s.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if s.streamer != nil {
		_ = s.streamer.Close()
	}
}

func (o *Output) initSpeakerLocked() error {
	if o.speakerReady {
		return nil
	}
	if err := speaker.Init(o.rate, o.rate.N(o.cfg.BufferSize)); err != nil {
		return err
	}
	o.speakerReady = true
	return nil
}

// Play starts or resumes the current source. A source that has ended is
// handed to the mixer again from its current position.
func (o *Output) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.current
	if s == nil || s.ctrl == nil {
		return domain.ErrNoTrackLoaded
	}
	if err := o.initSpeakerLocked(); err != nil {
		return domain.NewAudioOutputError("play", s.src, err)
	}

	if !s.queued {
		s.queued = true
		speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() {
			// Runs on the speaker goroutine with the speaker lock held
			go o.finished(s)
		})))
	}

	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()

	o.startTickerLocked(s)
	return nil
}

// finished reports the end of s if it is still current.
func (o *Output) finished(s *source) {
	o.mu.Lock()
	if o.current != s {
		o.mu.Unlock()
		return
	}
	s.queued = false
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	o.stopTickerLocked(s)
	o.mu.Unlock()

	s.listener.OnEnded()
}

// Pause pauses the current source.
func (o *Output) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.current
	if s == nil || s.ctrl == nil {
		return domain.ErrNoTrackLoaded
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	o.stopTickerLocked(s)
	return nil
}

// Seek moves the current source to position.
func (o *Output) Seek(position time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.current
	if s == nil || s.streamer == nil {
		return domain.ErrNoTrackLoaded
	}
	if position < 0 || position > s.duration {
		return domain.ErrInvalidPosition
	}

	speaker.Lock()
	defer speaker.Unlock()
	n := min(s.format.SampleRate.N(position), s.streamer.Len())
	if err := s.streamer.Seek(n); err != nil {
		return domain.NewAudioOutputError("seek", s.src, err)
	}
	return nil
}

// SetVolume sets the output volume. It applies to the current and later sources.
func (o *Output) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.volume = volume
	if s := o.current; s != nil && s.vol != nil {
		speaker.Lock()
		s.vol.Volume = levelToVolume(volume)
		s.vol.Silent = volume == 0
		speaker.Unlock()
	}
	return nil
}

// Close stops playback, waits for background work and closes the speaker.
func (o *Output) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.stopLocked()
	ready := o.speakerReady
	o.mu.Unlock()

	o.wg.Wait()
	if ready {
		speaker.Close()
	}
	return nil
}

func (o *Output) startTickerLocked(s *source) {
	if s.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	s.stopTick = stop

	o.wg.Add(1)
	go o.tick(s, stop)
}

func (o *Output) stopTickerLocked(s *source) {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

// tick reports the position of s until stop is closed.
func (o *Output) tick(s *source, stop <-chan struct{}) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		o.mu.Lock()
		if o.current != s {
			o.mu.Unlock()
			return
		}
		speaker.Lock()
		position := s.format.SampleRate.D(s.streamer.Position())
		speaker.Unlock()
		o.mu.Unlock()

		s.listener.OnTimeUpdate(position)
	}
}

// Verify that Output implements the AudioOutput interface
var _ ports.AudioOutput = (*Output)(nil)
