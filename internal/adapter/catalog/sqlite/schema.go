package sqlite

import (
	"database/sql"
)

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS artists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS albums (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			artist_id TEXT REFERENCES artists(id) ON DELETE SET NULL
		);

		CREATE TABLE IF NOT EXISTS genres (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS songs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist_id TEXT REFERENCES artists(id) ON DELETE SET NULL,
			album_id TEXT REFERENCES albums(id) ON DELETE SET NULL,
			genre_id TEXT REFERENCES genres(id) ON DELETE SET NULL,
			cover_url TEXT,
			audio_url TEXT,
			duration INTEGER,
			track_no INTEGER,
			plays INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_songs_created_at ON songs(created_at);
		CREATE INDEX IF NOT EXISTS idx_songs_album ON songs(album_id, track_no);
		CREATE INDEX IF NOT EXISTS idx_songs_genre ON songs(genre_id, track_no);
		CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist_id);

		CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT
		);

		CREATE TABLE IF NOT EXISTS playlist_songs (
			playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			song_id TEXT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			PRIMARY KEY (playlist_id, song_id)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_songs_position ON playlist_songs(playlist_id, position);
	`)
	return err
}
