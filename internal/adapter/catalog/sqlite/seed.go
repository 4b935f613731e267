package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tunestream/tunestream/internal/domain"
)

// Seed is a batch of catalog rows to insert. Rows are upserted by id.
type Seed struct {
	Artists   []Named    `koanf:"artists"`
	Albums    []Album    `koanf:"albums"`
	Genres    []Named    `koanf:"genres"`
	Songs     []Song     `koanf:"songs"`
	Playlists []Playlist `koanf:"playlists"`
}

// Named is an artist or genre row.
type Named struct {
	ID   string `koanf:"id"`
	Name string `koanf:"name"`
}

// Album is an album row.
type Album struct {
	ID       string `koanf:"id"`
	Name     string `koanf:"name"`
	ArtistID string `koanf:"artist_id"`
}

// Song is a song row. Duration is in seconds, CreatedAt is RFC 3339.
type Song struct {
	ID        string `koanf:"id"`
	Title     string `koanf:"title"`
	ArtistID  string `koanf:"artist_id"`
	AlbumID   string `koanf:"album_id"`
	GenreID   string `koanf:"genre_id"`
	CoverURL  string `koanf:"cover_url"`
	AudioURL  string `koanf:"audio_url"`
	Duration  int    `koanf:"duration"`
	TrackNo   int    `koanf:"track_no"`
	Plays     int    `koanf:"plays"`
	CreatedAt string `koanf:"created_at"`
}

// Playlist is a playlist row with its songs in order.
type Playlist struct {
	ID          string   `koanf:"id"`
	Title       string   `koanf:"title"`
	Description string   `koanf:"description"`
	SongIDs     []string `koanf:"songs"`
}

// ReadSeed parses a TOML seed file:
//
//	[[artists]]
//	id = "ar1"
//	name = "Lumen"
//
//	[[songs]]
//	id = "s1"
//	title = "Dawn"
//	artist_id = "ar1"
//	audio_url = "dawn.mp3"
//
//	[[playlists]]
//	id = "p1"
//	title = "Mix"
//	songs = ["s1"]
func ReadSeed(path string) (Seed, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return Seed{}, fmt.Errorf("read seed %s: %w", path, err)
	}

	var seed Seed
	if err := k.Unmarshal("", &seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return seed, nil
}

// Import writes seed in a single transaction.
// Songs without created_at get the import time.
func (s *Store) Import(ctx context.Context, seed Seed) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, a := range seed.Artists {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO artists (id, name) VALUES (?, ?)`, a.ID, a.Name); err != nil {
				return err
			}
		}
		for _, g := range seed.Genres {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO genres (id, name) VALUES (?, ?)`, g.ID, g.Name); err != nil {
				return err
			}
		}
		for _, a := range seed.Albums {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO albums (id, name, artist_id) VALUES (?, ?, ?)`,
				a.ID, a.Name, nullString(a.ArtistID)); err != nil {
				return err
			}
		}

		now := time.Now()
		for _, song := range seed.Songs {
			created := now
			if song.CreatedAt != "" {
				t, err := time.Parse(time.RFC3339, song.CreatedAt)
				if err != nil {
					return fmt.Errorf("song %s: created_at: %w", song.ID, err)
				}
				created = t
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO songs
					(id, title, artist_id, album_id, genre_id, cover_url, audio_url, duration, track_no, plays, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				song.ID, song.Title,
				nullString(song.ArtistID), nullString(song.AlbumID), nullString(song.GenreID),
				nullString(song.CoverURL), nullString(song.AudioURL),
				song.Duration, song.TrackNo, song.Plays, created.UnixMilli(),
			); err != nil {
				return err
			}
		}

		for _, p := range seed.Playlists {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO playlists (id, title, description) VALUES (?, ?, ?)`,
				p.ID, p.Title, nullString(p.Description)); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM playlist_songs WHERE playlist_id = ?`, p.ID); err != nil {
				return err
			}
			for pos, songID := range p.SongIDs {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES (?, ?, ?)`,
					p.ID, songID, pos); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewRepositoryError("import", repoType, "import failed", err)
	}
	return nil
}

// withTx executes fn within a transaction.
// It handles Begin, Rollback on error, and Commit on success.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
