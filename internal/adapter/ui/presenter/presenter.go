// Package presenter keeps player views in sync with the playback session.
package presenter

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

// Status is what the view shows for one session snapshot.
type Status struct {
	Title     string
	Artist    string
	Index     int
	Count     int
	Playing   bool
	State     domain.TransportState
	Position  time.Duration
	Duration  time.Duration
	Repeat    domain.RepeatMode
	Shuffling bool
	Mini      bool
	Volume    float64
	Queue     []domain.Track
}

// View renders player status.
type View interface {
	Render(status Status)
	Notify(message string)
}

// SnapshotSource provides the current session state.
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}

// Presenter keeps a View in sync with the session by re-rendering on every
// session event. It holds no playback state of its own.
//
// Thread-safety: handlers may run on any goroutine that publishes events.
type Presenter struct {
	logger  *slog.Logger
	session SnapshotSource
	bus     ports.EventBus
	view    View

	mu            sync.Mutex
	subscriptions []domain.SubscriptionID
	shutdownOnce  sync.Once
}

// New subscribes to session events and renders the initial state.
func New(logger *slog.Logger, session SnapshotSource, bus ports.EventBus, view View) *Presenter {
	p := &Presenter{
		logger:  logger.With("component", "presenter"),
		session: session,
		bus:     bus,
		view:    view,
	}
	p.subscribeToEvents()
	p.refresh(nil)
	return p
}

func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		domain.EventTrackLoaded:       p.refresh,
		domain.EventTrackStarted:      p.refresh,
		domain.EventTrackPaused:       p.refresh,
		domain.EventPlayIntent:        p.refresh,
		domain.EventTrackEnded:        p.refresh,
		domain.EventTrackProgress:     p.refresh,
		domain.EventQueueChanged:      p.refresh,
		domain.EventRepeatChanged:     p.refresh,
		domain.EventShuffleChanged:    p.refresh,
		domain.EventMiniViewChanged:   p.refresh,
		domain.EventVolumeChanged:     p.refresh,
		domain.EventCatalogLoaded:     p.onCatalogLoaded,
		domain.EventTrackError:        p.onTrackError,
		domain.EventPlayCountRecorded: p.onPlayCountRecorded,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for eventType, handler := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.bus.Subscribe(eventType, handler))
	}
}

func (p *Presenter) refresh(domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Render(StatusFromSnapshot(p.session.Snapshot()))
}

func (p *Presenter) onCatalogLoaded(event domain.Event) {
	if e, ok := event.(domain.CatalogLoadedEvent); ok && e.Count == 0 {
		p.notify("catalog is empty or unavailable")
	}
	p.refresh(event)
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}
	p.logger.Debug("track error shown", slog.String("track_id", e.Track.ID))
	p.notify(fmt.Sprintf("cannot play %q: %v", e.Track.Title, e.Error))
	p.refresh(event)
}

func (p *Presenter) onPlayCountRecorded(event domain.Event) {
	if e, ok := event.(domain.PlayCountRecordedEvent); ok {
		p.logger.Debug("play recorded", slog.String("song_id", e.SongID), slog.Int("plays", e.Plays))
	}
}

func (p *Presenter) notify(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Notify(message)
}

// Shutdown unsubscribes from the event bus. It is safe to call more than once.
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		ids := p.subscriptions
		p.subscriptions = nil
		p.mu.Unlock()

		for _, id := range ids {
			p.bus.Unsubscribe(id)
		}
	})
}

// StatusFromSnapshot maps a session snapshot onto a Status.
func StatusFromSnapshot(s domain.Snapshot) Status {
	status := Status{
		Index:     s.CurrentIndex,
		Count:     len(s.Queue),
		Playing:   s.IsPlaying,
		State:     s.State,
		Position:  s.Position,
		Duration:  s.Duration,
		Repeat:    s.RepeatMode,
		Shuffling: s.IsShuffling,
		Mini:      s.IsMini,
		Volume:    s.Volume,
		Queue:     s.Queue,
	}
	if s.CurrentTrack != nil {
		status.Title = s.CurrentTrack.Title
		status.Artist = s.CurrentTrack.Artist
	}
	return status
}
