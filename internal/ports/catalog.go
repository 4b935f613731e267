// Package ports define the catalog store interface for song metadata.
package ports

import (
	"context"

	"github.com/tunestream/tunestream/internal/domain"
)

// CatalogStore reads song metadata and play counters from the catalog.
// Implementations can use an embedded database or a hosted REST API.
//
// Thread-safety: Implementations must be thread-safe.
type CatalogStore interface {
	// ListSongs returns every song joined with its artist and album names,
	// newest first (created_at descending).
	ListSongs(ctx context.Context) ([]domain.CatalogSong, error)

	// SongsByAlbum returns the songs of an album ordered by track number.
	SongsByAlbum(ctx context.Context, albumID string) ([]domain.CatalogSong, error)

	// SongsByGenre returns the songs of a genre ordered by track number.
	SongsByGenre(ctx context.Context, genreID string) ([]domain.CatalogSong, error)

	// SongsByArtist returns the songs of an artist, newest first.
	SongsByArtist(ctx context.Context, artistID string) ([]domain.CatalogSong, error)

	// SongsByPlaylist returns the songs of a playlist in playlist order.
	SongsByPlaylist(ctx context.Context, playlistID string) ([]domain.CatalogSong, error)

	// PlayCount returns the current play counter of a song.
	// If the song doesn't exist, returns domain.ErrSongNotFound.
	PlayCount(ctx context.Context, songID string) (int, error)

	// SetPlayCount overwrites the play counter of a song.
	// If the song doesn't exist, returns domain.ErrSongNotFound.
	SetPlayCount(ctx context.Context, songID string, plays int) error

	// Close releases the underlying connection.
	Close() error
}

// URLResolver turns storage keys from catalog records into resolvable URLs.
type URLResolver interface {
	// AudioURL resolves an audio key. Returns "" for an empty key.
	AudioURL(key string) string

	// CoverURL resolves a cover key. Returns the default cover for an empty key.
	CoverURL(key string) string
}
