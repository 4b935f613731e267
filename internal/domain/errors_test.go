package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAudioOutputError(t *testing.T) {
	err := NewAudioOutputError("load", "/audio/a.mp3", ErrUnsupportedFormat)
	assert.EqualError(t, err, "audio output load failed for '/audio/a.mp3': unsupported audio format")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = NewAudioOutputError("play", "", ErrPlaybackFailed)
	assert.EqualError(t, err, "audio output play failed: playback failed")
}

func TestRepositoryError(t *testing.T) {
	err := fmt.Errorf("loading: %w", NewRepositoryError("get_plays", "sqlite", "no such song", ErrSongNotFound))

	assert.ErrorIs(t, err, ErrSongNotFound)

	var repoErr *RepositoryError
	assert.True(t, errors.As(err, &repoErr))
	assert.Equal(t, "get_plays", repoErr.Op)
	assert.Equal(t, "repository sqlite.get_plays failed: no such song", repoErr.Error())
}

func TestServiceError(t *testing.T) {
	err := NewServiceError("app", "open_catalog", "unknown backend", ErrCatalogUnavailable)

	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Equal(t, "service app.open_catalog failed: unknown backend", err.Error())
}
