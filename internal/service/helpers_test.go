package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/tunestream/tunestream/internal/adapter/audio/mock"
	"github.com/tunestream/tunestream/internal/adapter/eventbus"
	"github.com/tunestream/tunestream/internal/adapter/storage"
	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/logger"
	"github.com/tunestream/tunestream/internal/ports"
)

// fakeStore is an in-memory CatalogStore with injectable failures.
type fakeStore struct {
	mu        sync.Mutex
	songs     []domain.CatalogSong
	sets      map[string][]domain.CatalogSong
	plays     map[string]int
	listErr   error
	readErr   error
	writeErr  error
	listCalls int
	writes    int

	// gate, when set, blocks PlayCount until it is closed
	gate chan struct{}
}

// catalogSongs returns n songs that the loader maps onto testutil.Tracks(n).
func catalogSongs(n int) []domain.CatalogSong {
	songs := make([]domain.CatalogSong, n)
	for i := range songs {
		id := fmt.Sprintf("s%d", i+1)
		songs[i] = domain.CatalogSong{
			ID:         id,
			Title:      "Song " + id,
			ArtistName: "Artist " + id,
			AudioURL:   id + ".mp3",
		}
	}
	return songs
}

func newFakeStore(songs []domain.CatalogSong) *fakeStore {
	plays := make(map[string]int)
	for _, s := range songs {
		plays[s.ID] = s.Plays
	}
	return &fakeStore{songs: songs, sets: map[string][]domain.CatalogSong{}, plays: plays}
}

func (f *fakeStore) setSongs(kind domain.TrackSetKind, id string, songs []domain.CatalogSong) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[string(kind)+":"+id] = songs
	for _, s := range songs {
		if _, ok := f.plays[s.ID]; !ok {
			f.plays[s.ID] = s.Plays
		}
	}
}

func (f *fakeStore) ListSongs(context.Context) ([]domain.CatalogSong, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.songs, nil
}

func (f *fakeStore) set(kind domain.TrackSetKind, id string) ([]domain.CatalogSong, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sets[string(kind)+":"+id], nil
}

func (f *fakeStore) SongsByAlbum(_ context.Context, id string) ([]domain.CatalogSong, error) {
	return f.set(domain.TrackSetAlbum, id)
}

func (f *fakeStore) SongsByGenre(_ context.Context, id string) ([]domain.CatalogSong, error) {
	return f.set(domain.TrackSetGenre, id)
}

func (f *fakeStore) SongsByArtist(_ context.Context, id string) ([]domain.CatalogSong, error) {
	return f.set(domain.TrackSetArtist, id)
}

func (f *fakeStore) SongsByPlaylist(_ context.Context, id string) ([]domain.CatalogSong, error) {
	return f.set(domain.TrackSetPlaylist, id)
}

func (f *fakeStore) PlayCount(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return 0, f.readErr
	}
	plays, ok := f.plays[id]
	if !ok {
		return 0, domain.ErrSongNotFound
	}
	return plays, nil
}

func (f *fakeStore) SetPlayCount(_ context.Context, id string, plays int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if _, ok := f.plays[id]; !ok {
		return domain.ErrSongNotFound
	}
	f.plays[id] = plays
	f.writes++
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) playsOf(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays[id]
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

var _ ports.CatalogStore = (*fakeStore)(nil)

// eventRecorder collects every published event.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func recordEvents(bus ports.EventBus) *eventRecorder {
	r := &eventRecorder{}
	bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	return r
}

func (r *eventRecorder) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type()
	}
	return out
}

func (r *eventRecorder) started() []domain.TrackStartedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TrackStartedEvent
	for _, e := range r.events {
		if started, ok := e.(domain.TrackStartedEvent); ok {
			out = append(out, started)
		}
	}
	return out
}

func (r *eventRecorder) errors() []domain.TrackErrorEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TrackErrorEvent
	for _, e := range r.events {
		if failed, ok := e.(domain.TrackErrorEvent); ok {
			out = append(out, failed)
		}
	}
	return out
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// sessionFixture wires a session over the mock output and a fake catalog.
type sessionFixture struct {
	session *Session
	output  *mock.Output
	bus     *eventbus.SyncEventBus
	store   *fakeStore
	events  *eventRecorder
}

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func newSessionFixture(t *testing.T, songs []domain.CatalogSong, opts ...SessionOption) *sessionFixture {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	t.Cleanup(func() { _ = bus.Close() })

	store := newFakeStore(songs)
	output := mock.NewOutput(log)
	loader := NewCatalogLoader(log, store, storage.NewResolver())

	opts = append([]SessionOption{WithRand(newTestRand())}, opts...)
	f := &sessionFixture{
		session: NewSession(log, bus, output, loader, opts...),
		output:  output,
		bus:     bus,
		store:   store,
		events:  recordEvents(bus),
	}
	return f
}

// newStartedSession returns a fixture whose session is initialized over n songs.
func newStartedSession(t *testing.T, n int, opts ...SessionOption) *sessionFixture {
	t.Helper()
	f := newSessionFixture(t, catalogSongs(n), opts...)
	if err := f.session.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return f
}
