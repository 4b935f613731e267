// Package domain defines events for the event-driven architecture.
// Events are how the session notifies UI consumers of state changes.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Transport events
	EventTrackLoaded   EventType = "track.loaded"
	EventTrackStarted  EventType = "track.started"
	EventTrackPaused   EventType = "track.paused"
	EventTrackEnded    EventType = "track.ended"
	EventTrackProgress EventType = "track.progress"
	EventTrackError    EventType = "track.error"
	EventPlayIntent    EventType = "track.intent"

	// Output events
	EventVolumeChanged EventType = "volume.changed"

	// Playback mode events
	EventRepeatChanged  EventType = "repeat.changed"
	EventShuffleChanged EventType = "shuffle.changed"

	// Queue events
	EventQueueChanged EventType = "queue.changed"

	// Presentation events
	EventMiniViewChanged EventType = "miniview.changed"

	// Catalog events
	EventCatalogLoaded     EventType = "catalog.loaded"
	EventPlayCountRecorded EventType = "playcount.recorded"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadedEvent is published when the output reports metadata for the current track.
type TrackLoadedEvent struct {
	baseEvent
	Track    Track
	Duration time.Duration
	Index    int // Queue index
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track, duration time.Duration, index int) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Duration:  duration,
		Index:     index,
	}
}

// TrackStartedEvent is published when the transport enters the playing state.
// Fresh is true for the first start after a load (or a restart from the ended state)
// and false when resuming from pause.
type TrackStartedEvent struct {
	baseEvent
	Track Track
	Fresh bool
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track, fresh bool) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Fresh:     fresh,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track    Track
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// TrackEndedEvent is published when a track plays to completion.
type TrackEndedEvent struct {
	baseEvent
	Track Track
	Index int
}

// Type returns the event type.
func (e TrackEndedEvent) Type() EventType {
	return EventTrackEnded
}

// NewTrackEndedEvent creates a new TrackEndedEvent.
func NewTrackEndedEvent(track Track, index int) TrackEndedEvent {
	return TrackEndedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
	}
}

// TrackProgressEvent is published periodically during playback.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// Percentage returns the playback progress as a percentage (0-100).
func (e TrackProgressEvent) Percentage() float64 {
	if e.Duration == 0 {
		return 0
	}
	return float64(e.Position) / float64(e.Duration) * 100
}

// TrackErrorEvent is published when loading or playing a track fails.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// VolumeChangedEvent is published when the output volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// RepeatChangedEvent is published when the repeat mode changes.
type RepeatChangedEvent struct {
	baseEvent
	Mode RepeatMode
}

// Type returns the event type.
func (e RepeatChangedEvent) Type() EventType {
	return EventRepeatChanged
}

// NewRepeatChangedEvent creates a new RepeatChangedEvent.
func NewRepeatChangedEvent(mode RepeatMode) RepeatChangedEvent {
	return RepeatChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// ShuffleChangedEvent is published when shuffle mode is toggled.
type ShuffleChangedEvent struct {
	baseEvent
	Enabled bool
}

// Type returns the event type.
func (e ShuffleChangedEvent) Type() EventType {
	return EventShuffleChanged
}

// NewShuffleChangedEvent creates a new ShuffleChangedEvent.
func NewShuffleChangedEvent(enabled bool) ShuffleChangedEvent {
	return ShuffleChangedEvent{
		baseEvent: newBaseEvent(),
		Enabled:   enabled,
	}
}

// QueueChangedEvent is published when the queue order, contents or current index change.
type QueueChangedEvent struct {
	baseEvent
	Tracks []Track
	Index  int
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
// The tracks slice is copied.
func NewQueueChangedEvent(tracks []Track, index int) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Tracks:    append([]Track(nil), tracks...),
		Index:     index,
	}
}

// PlayIntentChangedEvent is published when the play intent changes before
// the output can act on it, such as toggling play while a track is loading.
type PlayIntentChangedEvent struct {
	baseEvent
	Track   Track
	Playing bool
}

// Type returns the event type.
func (e PlayIntentChangedEvent) Type() EventType {
	return EventPlayIntent
}

// NewPlayIntentChangedEvent creates a new PlayIntentChangedEvent.
func NewPlayIntentChangedEvent(track Track, playing bool) PlayIntentChangedEvent {
	return PlayIntentChangedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Playing:   playing,
	}
}

// MiniViewChangedEvent is published when the compact player view flag changes.
type MiniViewChangedEvent struct {
	baseEvent
	Mini bool
}

// Type returns the event type.
func (e MiniViewChangedEvent) Type() EventType {
	return EventMiniViewChanged
}

// NewMiniViewChangedEvent creates a new MiniViewChangedEvent.
func NewMiniViewChangedEvent(mini bool) MiniViewChangedEvent {
	return MiniViewChangedEvent{
		baseEvent: newBaseEvent(),
		Mini:      mini,
	}
}

// CatalogLoadedEvent is published after the session loads the catalog.
type CatalogLoadedEvent struct {
	baseEvent
	Count int
}

// Type returns the event type.
func (e CatalogLoadedEvent) Type() EventType {
	return EventCatalogLoaded
}

// NewCatalogLoadedEvent creates a new CatalogLoadedEvent.
func NewCatalogLoadedEvent(count int) CatalogLoadedEvent {
	return CatalogLoadedEvent{
		baseEvent: newBaseEvent(),
		Count:     count,
	}
}

// PlayCountRecordedEvent is published after a play count increment is written.
type PlayCountRecordedEvent struct {
	baseEvent
	SongID string
	Plays  int
}

// Type returns the event type.
func (e PlayCountRecordedEvent) Type() EventType {
	return EventPlayCountRecorded
}

// NewPlayCountRecordedEvent creates a new PlayCountRecordedEvent.
func NewPlayCountRecordedEvent(songID string, plays int) PlayCountRecordedEvent {
	return PlayCountRecordedEvent{
		baseEvent: newBaseEvent(),
		SongID:    songID,
		Plays:     plays,
	}
}
