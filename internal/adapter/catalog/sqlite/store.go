// Package sqlite provides an embedded catalog store backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

const repoType = "sqlite"

// songSelect joins songs with their artist and album display names.
const songSelect = `
	SELECT s.id, s.title,
		COALESCE(s.artist_id, ''), COALESCE(s.album_id, ''), COALESCE(s.genre_id, ''),
		COALESCE(ar.name, ''), COALESCE(al.name, ''),
		COALESCE(s.cover_url, ''), COALESCE(s.audio_url, ''),
		COALESCE(s.duration, 0), COALESCE(s.track_no, 0), s.plays, s.created_at
	FROM songs s
	LEFT JOIN artists ar ON ar.id = s.artist_id
	LEFT JOIN albums al ON al.id = s.album_id`

// Store is a CatalogStore over a SQLite database.
//
// Thread-safety: This implementation is thread-safe; database/sql serializes
// access to the single connection.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the catalog database at path.
// Use ":memory:" for a throwaway catalog.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, domain.NewRepositoryError("open", repoType, "cannot create data directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.NewRepositoryError("open", repoType, "cannot open database", err)
	}
	// one connection: an in-memory database only exists on the connection that created it
	db.SetMaxOpenConns(1)

	store, err := New(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an already opened database and makes sure the schema exists.
func New(db *sql.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, domain.NewRepositoryError("open", repoType, "cannot set pragma", err)
		}
	}

	if err := initSchema(db); err != nil {
		return nil, domain.NewRepositoryError("open", repoType, "cannot init schema", err)
	}

	return &Store{db: db, logger: logger.With("repository", repoType)}, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ListSongs returns every song, newest first.
func (s *Store) ListSongs(ctx context.Context) ([]domain.CatalogSong, error) {
	return s.querySongs(ctx, "list_songs", songSelect+` ORDER BY s.created_at DESC, s.id`)
}

// SongsByAlbum returns the songs of an album ordered by track number.
func (s *Store) SongsByAlbum(ctx context.Context, albumID string) ([]domain.CatalogSong, error) {
	return s.querySongs(ctx, "songs_by_album",
		songSelect+` WHERE s.album_id = ? ORDER BY s.track_no ASC, s.id`, albumID)
}

// SongsByGenre returns the songs of a genre ordered by track number.
func (s *Store) SongsByGenre(ctx context.Context, genreID string) ([]domain.CatalogSong, error) {
	return s.querySongs(ctx, "songs_by_genre",
		songSelect+` WHERE s.genre_id = ? ORDER BY s.track_no ASC, s.id`, genreID)
}

// SongsByArtist returns the songs of an artist, newest first.
func (s *Store) SongsByArtist(ctx context.Context, artistID string) ([]domain.CatalogSong, error) {
	return s.querySongs(ctx, "songs_by_artist",
		songSelect+` WHERE s.artist_id = ? ORDER BY s.created_at DESC, s.id`, artistID)
}

// SongsByPlaylist returns the songs of a playlist in playlist order.
func (s *Store) SongsByPlaylist(ctx context.Context, playlistID string) ([]domain.CatalogSong, error) {
	return s.querySongs(ctx, "songs_by_playlist",
		songSelect+` JOIN playlist_songs ps ON ps.song_id = s.id
		WHERE ps.playlist_id = ? ORDER BY ps.position ASC`, playlistID)
}

func (s *Store) querySongs(ctx context.Context, op, query string, args ...any) ([]domain.CatalogSong, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewRepositoryError(op, repoType, "query failed", err)
	}
	defer rows.Close()

	var songs []domain.CatalogSong
	for rows.Next() {
		var (
			song      domain.CatalogSong
			duration  int64
			createdAt int64
		)
		if err := rows.Scan(
			&song.ID, &song.Title,
			&song.ArtistID, &song.AlbumID, &song.GenreID,
			&song.ArtistName, &song.AlbumName,
			&song.CoverURL, &song.AudioURL,
			&duration, &song.TrackNo, &song.Plays, &createdAt,
		); err != nil {
			return nil, domain.NewRepositoryError(op, repoType, "scan failed", err)
		}
		song.Duration = time.Duration(duration) * time.Second
		song.CreatedAt = time.UnixMilli(createdAt)
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError(op, repoType, "iteration failed", err)
	}

	s.logger.Debug("songs queried", slog.String("op", op), slog.Int("count", len(songs)))
	return songs, nil
}

// PlayCount returns the play counter of a song.
func (s *Store) PlayCount(ctx context.Context, songID string) (int, error) {
	var plays int
	err := s.db.QueryRowContext(ctx, `SELECT plays FROM songs WHERE id = ?`, songID).Scan(&plays)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.NewRepositoryError("play_count", repoType, fmt.Sprintf("song %q", songID), domain.ErrSongNotFound)
	}
	if err != nil {
		return 0, domain.NewRepositoryError("play_count", repoType, "query failed", err)
	}
	return plays, nil
}

// SetPlayCount overwrites the play counter of a song.
func (s *Store) SetPlayCount(ctx context.Context, songID string, plays int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE songs SET plays = ? WHERE id = ?`, plays, songID)
	if err != nil {
		return domain.NewRepositoryError("set_play_count", repoType, "update failed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewRepositoryError("set_play_count", repoType, "update failed", err)
	}
	if n == 0 {
		return domain.NewRepositoryError("set_play_count", repoType, fmt.Sprintf("song %q", songID), domain.ErrSongNotFound)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Verify that Store implements the CatalogStore interface
var _ ports.CatalogStore = (*Store)(nil)
