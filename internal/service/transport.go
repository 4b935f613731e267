package service

import (
	"log/slog"
	"time"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

// DefaultVolume is the output volume of a new session.
const DefaultVolume = 0.8

// ListenerFactory returns the listener bound to the load with the given generation.
type ListenerFactory func(generation uint64) ports.OutputListener

// Transport is the state machine over the single audio output.
//
//	Empty ──Load(src)──▶ Loading ──metadata──▶ Ready ──play──▶ Playing ◀──▶ Paused
//	                                                              │
//	Load("") from any state ──▶ Empty                   ended ──▶ Ended
//
// Every Load starts a new generation. Output callbacks carry the generation
// of the load they belong to and are ignored once a newer load exists.
//
// Transport is not safe for concurrent use; Session serializes access to it
// and is the only caller of the output.
type Transport struct {
	logger      *slog.Logger
	output      ports.AudioOutput
	listenerFor ListenerFactory
	emit        func(domain.Event)

	state      domain.TransportState
	track      domain.Track
	intent     bool
	position   time.Duration
	duration   time.Duration
	volume     float64
	generation uint64

	// freshStart marks that the next entry into Playing starts the track
	// from the top rather than resuming it.
	freshStart bool
}

// NewTransport creates a transport in the Empty state.
// emit receives every event the transport produces.
func NewTransport(logger *slog.Logger, output ports.AudioOutput, listenerFor ListenerFactory, emit func(domain.Event)) *Transport {
	return &Transport{
		logger:      logger.With("service", "transport"),
		output:      output,
		listenerFor: listenerFor,
		emit:        emit,
		state:       domain.StateEmpty,
		volume:      DefaultVolume,
	}
}

// State returns the current state.
func (t *Transport) State() domain.TransportState { return t.state }

// Track returns the track bound by the last Load.
func (t *Transport) Track() domain.Track { return t.track }

// IsPlaying returns the play intent: true while playing, or while a load is
// pending that should start playing once ready.
func (t *Transport) IsPlaying() bool { return t.intent }

// Position returns the last reported playback position.
func (t *Transport) Position() time.Duration { return t.position }

// Duration returns the duration reported by the output, or 0 before metadata.
func (t *Transport) Duration() time.Duration { return t.duration }

// Volume returns the output volume.
func (t *Transport) Volume() float64 { return t.volume }

// Generation returns the generation of the current load.
func (t *Transport) Generation() uint64 { return t.generation }

// SetIntent sets whether the track should be playing once it is ready.
func (t *Transport) SetIntent(playing bool) {
	t.intent = playing
}

// Load binds track to the output. A track without a source leaves the
// transport Empty and the output unloaded.
func (t *Transport) Load(track domain.Track) {
	t.generation++
	t.track = track
	t.position = 0
	t.duration = 0
	t.freshStart = true

	if !track.Playable() {
		t.logger.Debug("track has no source", slog.String("track_id", track.ID))
		t.toEmpty()
		return
	}

	t.state = domain.StateLoading
	if err := t.output.Load(track.Src, t.listenerFor(t.generation)); err != nil {
		t.logger.Error("failed to load track",
			slog.String("track_id", track.ID),
			slog.String("src", track.Src),
			slog.Any("error", err))
		t.toEmpty()
		t.emit(domain.NewTrackErrorEvent(track, err))
		return
	}

	if err := t.output.SetVolume(t.volume); err != nil {
		t.logger.Warn("failed to apply volume", slog.Any("error", err))
	}
	t.logger.Debug("loading track", slog.String("track_id", track.ID), slog.Uint64("generation", t.generation))
}

// Unload releases the output and returns to Empty.
func (t *Transport) Unload() {
	t.generation++
	t.track = domain.Track{}
	t.position = 0
	t.duration = 0
	t.toEmpty()
}

func (t *Transport) toEmpty() {
	t.state = domain.StateEmpty
	t.intent = false
	if err := t.output.Unload(); err != nil {
		t.logger.Warn("failed to unload output", slog.Any("error", err))
	}
}

// TogglePlay flips the play intent and plays or pauses accordingly.
// It does nothing while Empty.
func (t *Transport) TogglePlay() {
	switch t.state {
	case domain.StateEmpty:
		return
	case domain.StateLoading:
		t.setLoadingIntent(!t.intent)
	case domain.StatePlaying:
		t.pause()
	case domain.StateEnded:
		t.restart()
	default:
		t.play()
	}
}

// Resume plays a track that is loaded but not playing. While loading it only sets the intent.
func (t *Transport) Resume() {
	switch t.state {
	case domain.StateLoading:
		t.setLoadingIntent(true)
	case domain.StateReady, domain.StatePaused:
		t.play()
	case domain.StateEnded:
		t.restart()
	}
}

// setLoadingIntent records what to do once the pending load is ready.
func (t *Transport) setLoadingIntent(playing bool) {
	if t.intent == playing {
		return
	}
	t.intent = playing
	t.emit(domain.NewPlayIntentChangedEvent(t.track, playing))
}

func (t *Transport) restart() {
	if err := t.output.Seek(0); err != nil {
		t.logger.Warn("failed to rewind", slog.Any("error", err))
	}
	t.position = 0
	t.freshStart = true
	t.play()
}

func (t *Transport) play() {
	if err := t.output.Play(); err != nil {
		t.logger.Error("failed to start playback",
			slog.String("track_id", t.track.ID),
			slog.Any("error", err))
		t.intent = false
		t.emit(domain.NewTrackErrorEvent(t.track, err))
		return
	}

	t.intent = true
	t.state = domain.StatePlaying
	fresh := t.freshStart
	t.freshStart = false
	t.emit(domain.NewTrackStartedEvent(t.track, fresh))
}

func (t *Transport) pause() {
	if err := t.output.Pause(); err != nil {
		t.logger.Warn("failed to pause", slog.Any("error", err))
	}
	t.intent = false
	t.state = domain.StatePaused
	t.emit(domain.NewTrackPausedEvent(t.track, t.position))
}

// Seek moves to fraction of the duration, clamped to [0, 1].
// Without a known duration it does nothing. Seeking an ended track pauses it there.
func (t *Transport) Seek(fraction float64) {
	if t.duration <= 0 || t.state == domain.StateEmpty || t.state == domain.StateLoading {
		return
	}

	fraction = min(max(fraction, 0), 1)
	position := time.Duration(fraction * float64(t.duration))
	if err := t.output.Seek(position); err != nil {
		t.logger.Warn("failed to seek", slog.Duration("position", position), slog.Any("error", err))
		return
	}

	t.position = position
	if t.state == domain.StateEnded {
		t.state = domain.StatePaused
		t.freshStart = true
	}
	t.emit(domain.NewTrackProgressEvent(t.position, t.duration))
}

// SetVolume clamps volume to [0, 1] and applies it. The volume survives loads.
func (t *Transport) SetVolume(volume float64) {
	volume = min(max(volume, 0), 1)
	if volume == t.volume {
		return
	}

	t.volume = volume
	if t.state != domain.StateEmpty {
		if err := t.output.SetVolume(volume); err != nil {
			t.logger.Warn("failed to apply volume", slog.Any("error", err))
		}
	}
	t.emit(domain.NewVolumeChangedEvent(volume))
}

// HandleLoadedMetadata records the duration and moves to Ready.
// It returns false for a stale generation or when no load is pending.
func (t *Transport) HandleLoadedMetadata(generation uint64, duration time.Duration) bool {
	if generation != t.generation || t.state != domain.StateLoading {
		return false
	}
	t.duration = duration
	t.state = domain.StateReady
	return true
}

// PlayIfIntended starts playback of a Ready track when the intent says so.
func (t *Transport) PlayIfIntended() {
	if t.state == domain.StateReady && t.intent {
		t.play()
	}
}

// HandleTimeUpdate records the playback position.
func (t *Transport) HandleTimeUpdate(generation uint64, position time.Duration) bool {
	if generation != t.generation || t.state == domain.StateEmpty || t.state == domain.StateLoading {
		return false
	}
	t.position = position
	t.emit(domain.NewTrackProgressEvent(position, t.duration))
	return true
}

// HandleEnded moves to Ended with the position held at the end.
// The play intent is left for the caller to resolve.
func (t *Transport) HandleEnded(generation uint64) bool {
	if generation != t.generation || t.state == domain.StateEmpty || t.state == domain.StateLoading {
		return false
	}
	t.state = domain.StateEnded
	t.position = t.duration
	return true
}

// HandleError drops the play intent. A failed load returns to Empty;
// a failure during playback leaves the track paused.
func (t *Transport) HandleError(generation uint64, err error) bool {
	if generation != t.generation || t.state == domain.StateEmpty {
		return false
	}

	t.logger.Error("audio output error",
		slog.String("track_id", t.track.ID),
		slog.String("state", t.state.String()),
		slog.Any("error", err))

	switch t.state {
	case domain.StateLoading:
		t.toEmpty()
	case domain.StatePlaying:
		t.state = domain.StatePaused
	}
	t.intent = false
	t.emit(domain.NewTrackErrorEvent(t.track, err))
	return true
}
