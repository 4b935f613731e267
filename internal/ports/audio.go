// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"
)

// AudioOutput is the single audio output element the session drives.
// This abstracts the underlying decoder/device (beep) and allows for testing with mocks.
//
// An output holds at most one source at a time. Load replaces both the source
// and the listener; callbacks for a replaced source must not reach the new listener.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
// Callbacks must never be invoked synchronously from inside an AudioOutput method.
type AudioOutput interface {
	// Source methods

	// Load binds a new source and listener to the output and resets the position to zero.
	// Load must return immediately; fetching and decoding happen in the background
	// and are reported through OnLoadedMetadata or OnError.
	//
	// src: Resolvable audio URL (must not be empty)
	//
	// Returns an error only if the request cannot be started at all.
	Load(src string, listener OutputListener) error

	// Unload releases the current source and detaches its listener.
	// Unloading an empty output is a no-op.
	Unload() error

	// Playback control methods

	// Play starts or resumes playback of the current source.
	// If the source has ended, playback restarts from the current position.
	//
	// Returns an error if no source is ready or the device refuses to play.
	Play() error

	// Pause pauses playback. The position is preserved.
	Pause() error

	// Seek sets the playback position.
	// The position must be within the valid range [0, Duration].
	//
	// Returns an error if the position is invalid or seeking fails.
	Seek(position time.Duration) error

	// Volume control methods

	// SetVolume sets the output volume.
	// volume: Volume level from 0.0 (silent) to 1.0 (full volume)
	//
	// Returns an error if the volume is out of range.
	SetVolume(volume float64) error

	// Close releases all output resources.
	Close() error
}

// OutputListener receives notifications from an AudioOutput for one loaded source.
// All methods may be called from any goroutine.
type OutputListener interface {
	// OnLoadedMetadata is called once the duration of the source is known.
	OnLoadedMetadata(duration time.Duration)

	// OnTimeUpdate is called periodically while the source is playing.
	OnTimeUpdate(position time.Duration)

	// OnEnded is called when playback reaches the end of the source.
	OnEnded()

	// OnError is called when fetching, decoding or playing the source fails.
	OnError(err error)
}

// AudioOutputConfig contains configuration for creating an audio output.
type AudioOutputConfig struct {
	// SampleRate is the device sample rate in Hz
	SampleRate int

	// BufferSize is the device buffer length
	BufferSize time.Duration

	// TickInterval is how often OnTimeUpdate is reported while playing
	TickInterval time.Duration

	// FetchTimeout bounds the download of a single source
	FetchTimeout time.Duration
}
