package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunestream/tunestream/internal/adapter/eventbus"
	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/logger"
	"github.com/tunestream/tunestream/internal/testutil"
)

const eventually = 2 * time.Second

func testPlayCountConfig() PlayCountConfig {
	return PlayCountConfig{QueueSize: 8, Timeout: time.Second}
}

// Helper to create a recorder over a fresh bus and store
func newTestPlayCount(t *testing.T, songs []domain.CatalogSong, cfg PlayCountConfig) (*PlayCountService, *fakeStore, *eventbus.SyncEventBus) {
	t.Helper()
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	store := newFakeStore(songs)
	svc := NewPlayCountService(log, store, bus, cfg)
	t.Cleanup(func() {
		svc.Shutdown()
		_ = bus.Close()
	})
	return svc, store, bus
}

func TestPlayCountService_FreshStartIncrements(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	svc, store, bus := newTestPlayCount(t, catalogSongs(2), testPlayCountConfig())
	recorded := make(chan domain.PlayCountRecordedEvent, 4)
	bus.Subscribe(domain.EventPlayCountRecorded, func(e domain.Event) {
		recorded <- e.(domain.PlayCountRecordedEvent)
	})
	track := testutil.Tracks(1)[0]

	bus.Publish(domain.NewTrackStartedEvent(track, true))

	select {
	case e := <-recorded:
		assert.Equal(t, "s1", e.SongID)
		assert.Equal(t, 1, e.Plays)
	case <-time.After(eventually):
		t.Fatal("play count was not recorded")
	}
	assert.Equal(t, 1, store.playsOf("s1"))
	svc.Shutdown()
}

func TestPlayCountService_ResumeIsIgnored(t *testing.T) {
	svc, store, bus := newTestPlayCount(t, catalogSongs(1), testPlayCountConfig())

	bus.Publish(domain.NewTrackStartedEvent(testutil.Tracks(1)[0], false))
	bus.Publish(domain.NewTrackStartedEvent(domain.Track{Src: "/audio/anon.mp3"}, true))
	svc.Shutdown()

	assert.Zero(t, store.playsOf("s1"))
	assert.Zero(t, store.writes)
}

func TestPlayCountService_Accumulates(t *testing.T) {
	svc, store, _ := newTestPlayCount(t, catalogSongs(1), testPlayCountConfig())

	for range 3 {
		require.True(t, svc.Record("s1"))
	}
	svc.Shutdown()

	// Shutdown drains queued increments
	assert.Equal(t, 3, store.playsOf("s1"))
}

func TestPlayCountService_FailuresAreSwallowed(t *testing.T) {
	t.Run("read", func(t *testing.T) {
		svc, store, _ := newTestPlayCount(t, catalogSongs(1), testPlayCountConfig())
		store.readErr = errors.New("connection reset")

		assert.True(t, svc.Record("s1"))
		svc.Shutdown()
		assert.Zero(t, store.writes)
	})

	t.Run("write", func(t *testing.T) {
		svc, store, _ := newTestPlayCount(t, catalogSongs(1), testPlayCountConfig())
		store.writeErr = errors.New("permission denied")

		assert.True(t, svc.Record("s1"))
		svc.Shutdown()
		assert.Zero(t, store.playsOf("s1"))
	})

	t.Run("unknown song", func(t *testing.T) {
		svc, store, _ := newTestPlayCount(t, catalogSongs(1), testPlayCountConfig())

		assert.True(t, svc.Record("missing"))
		svc.Shutdown()
		assert.Zero(t, store.writes)
	})
}

func TestPlayCountService_FullQueueDrops(t *testing.T) {
	svc, store, _ := newTestPlayCount(t, catalogSongs(1), PlayCountConfig{QueueSize: 1, Timeout: time.Second})
	gate := make(chan struct{})
	store.mu.Lock()
	store.gate = gate
	store.mu.Unlock()

	// The worker takes the first job and blocks on the store, the second fills the queue
	require.True(t, svc.Record("s1"))
	require.Eventually(t, func() bool { return svc.Record("s1") }, eventually, time.Millisecond)
	assert.False(t, svc.Record("s1"))

	close(gate)
	svc.Shutdown()
	assert.Equal(t, 2, store.playsOf("s1"))
}

func TestPlayCountService_Shutdown(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	defer func() { _ = bus.Close() }()
	store := newFakeStore(catalogSongs(1))
	svc := NewPlayCountService(log, store, bus, testPlayCountConfig())
	require.True(t, bus.HasSubscribers(domain.EventTrackStarted))

	svc.Shutdown()
	svc.Shutdown()

	assert.False(t, bus.HasSubscribers(domain.EventTrackStarted))
	assert.False(t, svc.Record("s1"))
	bus.Publish(domain.NewTrackStartedEvent(testutil.Tracks(1)[0], true))
	assert.Zero(t, store.playsOf("s1"))
}

func TestPlayCountService_WithSession(t *testing.T) {
	f := newStartedSession(t, 3, WithRepeatMode(domain.RepeatOne))
	f.store.mu.Lock()
	f.store.plays["s1"] = 10
	f.store.mu.Unlock()
	svc := NewPlayCountService(logger.NewTestLogger(), f.store, f.bus, testPlayCountConfig())

	// Start, pause, resume: one play
	f.output.CompleteLoad(0)
	f.session.TogglePlay()
	f.session.TogglePlay()
	f.session.TogglePlay()

	// Repeat one replays from the top: a second play
	f.output.Finish()
	f.output.CompleteLoad(0)

	svc.Shutdown()
	assert.Equal(t, 12, f.store.playsOf("s1"))
}
