//go:build !((linux && cgo) || windows || darwin)

package beepout

import (
	"log/slog"
	"time"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

// Available reports whether this build can play audio.
// Speaker output needs cgo on this platform.
const Available = false

// Output is a placeholder that refuses every source.
type Output struct {
	logger *slog.Logger
}

// NewOutput creates an output that cannot play.
func NewOutput(logger *slog.Logger, _ ports.AudioOutputConfig, _ ...Option) *Output {
	return &Output{logger: logger.With("component", "speaker-output")}
}

// Load always fails with ErrAudioUnavailable.
func (o *Output) Load(src string, _ ports.OutputListener) error {
	if src == "" {
		return domain.ErrNoSource
	}
	o.logger.Warn("audio playback not available", slog.String("src", src))
	return domain.NewAudioOutputError("load", src, ErrAudioUnavailable)
}

// Unload is a no-op.
func (o *Output) Unload() error { return nil }

// Play fails: nothing is ever loaded.
func (o *Output) Play() error { return domain.ErrNoTrackLoaded }

// Pause fails: nothing is ever loaded.
func (o *Output) Pause() error { return domain.ErrNoTrackLoaded }

// Seek fails: nothing is ever loaded.
func (o *Output) Seek(time.Duration) error { return domain.ErrNoTrackLoaded }

// SetVolume validates volume and otherwise ignores it.
func (o *Output) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}
	return nil
}

// Close is a no-op.
func (o *Output) Close() error { return nil }

// Verify that Output implements the AudioOutput interface
var _ ports.AudioOutput = (*Output)(nil)
