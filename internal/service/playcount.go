package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

// PlayCountConfig tunes the play-count recorder.
type PlayCountConfig struct {
	// QueueSize bounds pending increments; further starts are dropped.
	QueueSize int

	// Timeout bounds one read-increment-write cycle.
	Timeout time.Duration

	// RateInterval spaces consecutive catalog writes. Zero disables limiting.
	RateInterval time.Duration
}

// DefaultPlayCountConfig returns the default recorder configuration.
func DefaultPlayCountConfig() PlayCountConfig {
	return PlayCountConfig{
		QueueSize:    64,
		Timeout:      5 * time.Second,
		RateInterval: 50 * time.Millisecond,
	}
}

// PlayCountService increments a song's play counter in the catalog every time
// a track starts from the top. It is best effort: increments run on a single
// background worker, failures are logged and dropped, and playback never
// waits on it.
type PlayCountService struct {
	// Dependencies (injected)
	logger *slog.Logger
	store  ports.CatalogStore
	bus    ports.EventBus

	limiter *rate.Limiter
	timeout time.Duration

	// Worker
	jobs   chan string
	wg     sync.WaitGroup
	mu     sync.RWMutex // guards closed against sends on a closed channel
	closed bool
	sub    domain.SubscriptionID
}

// NewPlayCountService subscribes to track starts and starts the worker.
// Call Shutdown to stop it.
func NewPlayCountService(logger *slog.Logger, store ports.CatalogStore, bus ports.EventBus, cfg PlayCountConfig) *PlayCountService {
	defaults := DefaultPlayCountConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	limit := rate.Inf
	if cfg.RateInterval > 0 {
		limit = rate.Every(cfg.RateInterval)
	}

	s := &PlayCountService{
		logger:  logger.With("service", "playcount"),
		store:   store,
		bus:     bus,
		limiter: rate.NewLimiter(limit, 1),
		timeout: cfg.Timeout,
		jobs:    make(chan string, cfg.QueueSize),
	}

	s.wg.Add(1)
	go s.run()

	s.sub = bus.Subscribe(domain.EventTrackStarted, s.handleTrackStarted)
	return s
}

func (s *PlayCountService) handleTrackStarted(event domain.Event) {
	started, ok := event.(domain.TrackStartedEvent)
	if !ok || !started.Fresh {
		return
	}
	if started.Track.ID == "" {
		s.logger.Warn("no catalog id for started track", slog.String("src", started.Track.Src))
		return
	}
	s.Record(started.Track.ID)
}

// Record queues one increment for songID without blocking.
// It reports false if the recorder is shut down or its queue is full.
func (s *PlayCountService) Record(songID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.jobs <- songID:
		return true
	default:
		s.logger.Warn("play count queue full, dropping increment", slog.String("song_id", songID))
		return false
	}
}

func (s *PlayCountService) run() {
	defer s.wg.Done()
	for songID := range s.jobs {
		s.increment(songID)
	}
}

// increment reads the counter, adds one and writes it back.
func (s *PlayCountService) increment(songID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Warn("play count rate limit wait aborted", slog.String("song_id", songID), slog.Any("error", err))
		return
	}

	plays, err := s.store.PlayCount(ctx, songID)
	if err != nil {
		s.logger.Error("failed to read play count", slog.String("song_id", songID), slog.Any("error", err))
		return
	}

	plays++
	if err := s.store.SetPlayCount(ctx, songID, plays); err != nil {
		s.logger.Error("failed to write play count", slog.String("song_id", songID), slog.Any("error", err))
		return
	}

	s.logger.Debug("play count recorded", slog.String("song_id", songID), slog.Int("plays", plays))
	s.bus.Publish(domain.NewPlayCountRecordedEvent(songID, plays))
}

// Shutdown unsubscribes, lets the worker finish queued increments and waits for it.
// It is safe to call more than once.
func (s *PlayCountService) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.bus.Unsubscribe(s.sub)
	close(s.jobs)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Debug("play count recorder stopped")
}
