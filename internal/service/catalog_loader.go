// Package service provides the playback session and its supporting services.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

// UnknownArtist is shown for songs without an artist.
const UnknownArtist = "Unknown"

// CatalogLoader reads song records from the catalog store and maps them into tracks.
// Failures never escape: they are logged and yield an empty track list.
type CatalogLoader struct {
	logger   *slog.Logger
	store    ports.CatalogStore
	resolver ports.URLResolver
}

// NewCatalogLoader creates a catalog loader.
func NewCatalogLoader(logger *slog.Logger, store ports.CatalogStore, resolver ports.URLResolver) *CatalogLoader {
	return &CatalogLoader{
		logger:   logger.With("service", "catalog"),
		store:    store,
		resolver: resolver,
	}
}

// Load returns every catalog song as a track, newest first.
func (l *CatalogLoader) Load(ctx context.Context) []domain.Track {
	songs, err := l.store.ListSongs(ctx)
	if err != nil {
		l.logger.Error("failed to load catalog", slog.Any("error", err))
		return []domain.Track{}
	}

	tracks := l.toTracks(songs)
	l.logger.Info("catalog loaded", slog.Int("tracks", len(tracks)))
	return tracks
}

// LoadSet returns the tracks of an album, genre, artist or playlist in that set's order.
func (l *CatalogLoader) LoadSet(ctx context.Context, kind domain.TrackSetKind, id string) []domain.Track {
	var (
		songs []domain.CatalogSong
		err   error
	)
	switch kind {
	case domain.TrackSetAlbum:
		songs, err = l.store.SongsByAlbum(ctx, id)
	case domain.TrackSetGenre:
		songs, err = l.store.SongsByGenre(ctx, id)
	case domain.TrackSetArtist:
		songs, err = l.store.SongsByArtist(ctx, id)
	case domain.TrackSetPlaylist:
		songs, err = l.store.SongsByPlaylist(ctx, id)
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnknownTrackSet, kind)
	}
	if err != nil {
		l.logger.Error("failed to load track set",
			slog.String("kind", string(kind)),
			slog.String("id", id),
			slog.Any("error", err))
		return []domain.Track{}
	}
	return l.toTracks(songs)
}

func (l *CatalogLoader) toTracks(songs []domain.CatalogSong) []domain.Track {
	return lo.Map(songs, func(song domain.CatalogSong, _ int) domain.Track {
		return l.toTrack(song)
	})
}

func (l *CatalogLoader) toTrack(song domain.CatalogSong) domain.Track {
	return domain.Track{
		ID:            song.ID,
		Title:         song.Title,
		Artist:        lo.CoalesceOrEmpty(song.ArtistName, UnknownArtist),
		Image:         l.resolver.CoverURL(song.CoverURL),
		Src:           l.resolver.AudioURL(song.AudioURL),
		AudioAssetRef: song.AudioURL,
	}
}
