// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services and adapters can return.
var (
	// ErrSongNotFound is returned when a catalog lookup finds no song.
	ErrSongNotFound = errors.New("song not found")

	// ErrCatalogUnavailable is returned when the catalog store cannot be reached.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrUnknownTrackSet is returned for an unsupported track set kind.
	ErrUnknownTrackSet = errors.New("unknown track set")

	// ErrQueueEmpty is returned when queue operations are attempted on an empty queue.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrNoSource is returned when an output is asked to load an empty source.
	ErrNoSource = errors.New("no audio source")

	// ErrNoTrackLoaded is returned when playback is attempted with no track loaded.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrPlaybackFailed is returned when playback cannot be started.
	ErrPlaybackFailed = errors.New("playback failed")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrUnsupportedFormat is returned when an audio format cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrOutputClosed is returned when an audio output is used after Close.
	ErrOutputClosed = errors.New("audio output closed")

	// ErrSessionDisposed is returned when a disposed session is initialized again.
	ErrSessionDisposed = errors.New("session disposed")
)

// AudioOutputError represents an error from the audio output.
// This wraps low-level decoder or device errors with additional context.
type AudioOutputError struct {
	Op  string // Operation that failed (e.g., "load", "play", "seek")
	Src string // Audio URL (if applicable)
	Err error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioOutputError) Error() string {
	if e.Src != "" {
		return fmt.Sprintf("audio output %s failed for '%s': %v", e.Op, e.Src, e.Err)
	}
	return fmt.Sprintf("audio output %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *AudioOutputError) Unwrap() error {
	return e.Err
}

// NewAudioOutputError creates a new AudioOutputError.
func NewAudioOutputError(op, src string, err error) *AudioOutputError {
	return &AudioOutputError{
		Op:  op,
		Src: src,
		Err: err,
	}
}

// RepositoryError represents an error from a catalog store.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "list_songs", "set_plays")
	Type    string // Store type (e.g., "sqlite", "rest")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "CatalogLoader", "PlayCountService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
