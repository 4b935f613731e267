package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/lo"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

// songSelect embeds the artist and album names in each song row.
const songSelect = "*,artists(name),albums(name)"

type nameRef struct {
	Name string `json:"name"`
}

// songRow is a row of the songs table as returned by the API.
type songRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ArtistID  *string   `json:"artist_id"`
	AlbumID   *string   `json:"album_id"`
	GenreID   *string   `json:"genre_id"`
	CoverURL  *string   `json:"cover_url"`
	AudioURL  *string   `json:"audio_url"`
	Duration  *float64  `json:"duration"`
	TrackNo   *int      `json:"track_no"`
	Plays     *int      `json:"plays"`
	CreatedAt time.Time `json:"created_at"`
	Artists   *nameRef  `json:"artists"`
	Albums    *nameRef  `json:"albums"`
}

func (r songRow) toDomain() domain.CatalogSong {
	song := domain.CatalogSong{
		ID:        r.ID,
		Title:     r.Title,
		ArtistID:  lo.FromPtr(r.ArtistID),
		AlbumID:   lo.FromPtr(r.AlbumID),
		GenreID:   lo.FromPtr(r.GenreID),
		CoverURL:  lo.FromPtr(r.CoverURL),
		AudioURL:  lo.FromPtr(r.AudioURL),
		Duration:  time.Duration(lo.FromPtr(r.Duration) * float64(time.Second)),
		TrackNo:   lo.FromPtr(r.TrackNo),
		Plays:     lo.FromPtr(r.Plays),
		CreatedAt: r.CreatedAt,
	}
	if r.Artists != nil {
		song.ArtistName = r.Artists.Name
	}
	if r.Albums != nil {
		song.AlbumName = r.Albums.Name
	}
	return song
}

// Store is a CatalogStore over the hosted API.
type Store struct {
	client *Client
}

// NewStore creates a catalog store using client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func (s *Store) listSongs(ctx context.Context, op string, query url.Values) ([]domain.CatalogSong, error) {
	query.Set("select", songSelect)

	var rows []songRow
	if err := s.client.doRequest(ctx, op, http.MethodGet, "songs", query, nil, &rows); err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r songRow, _ int) domain.CatalogSong { return r.toDomain() }), nil
}

// ListSongs returns every song, newest first.
func (s *Store) ListSongs(ctx context.Context) ([]domain.CatalogSong, error) {
	return s.listSongs(ctx, "list_songs", url.Values{"order": {"created_at.desc"}})
}

// SongsByAlbum returns the songs of an album ordered by track number.
func (s *Store) SongsByAlbum(ctx context.Context, albumID string) ([]domain.CatalogSong, error) {
	return s.listSongs(ctx, "songs_by_album", url.Values{
		"album_id": {"eq." + albumID},
		"order":    {"track_no.asc"},
	})
}

// SongsByGenre returns the songs of a genre ordered by track number.
func (s *Store) SongsByGenre(ctx context.Context, genreID string) ([]domain.CatalogSong, error) {
	return s.listSongs(ctx, "songs_by_genre", url.Values{
		"genre_id": {"eq." + genreID},
		"order":    {"track_no.asc"},
	})
}

// SongsByArtist returns the songs of an artist, newest first.
func (s *Store) SongsByArtist(ctx context.Context, artistID string) ([]domain.CatalogSong, error) {
	return s.listSongs(ctx, "songs_by_artist", url.Values{
		"artist_id": {"eq." + artistID},
		"order":     {"created_at.desc"},
	})
}

// SongsByPlaylist returns the songs of a playlist in playlist order.
// Join rows whose song was deleted are skipped.
func (s *Store) SongsByPlaylist(ctx context.Context, playlistID string) ([]domain.CatalogSong, error) {
	var rows []struct {
		SongID string   `json:"song_id"`
		Songs  *songRow `json:"songs"`
	}
	query := url.Values{
		"select":      {"song_id,songs(" + songSelect + ")"},
		"playlist_id": {"eq." + playlistID},
		"order":       {"position.asc"},
	}
	if err := s.client.doRequest(ctx, "songs_by_playlist", http.MethodGet, "playlist_songs", query, nil, &rows); err != nil {
		return nil, err
	}

	songs := make([]domain.CatalogSong, 0, len(rows))
	for _, row := range rows {
		if row.Songs != nil {
			songs = append(songs, row.Songs.toDomain())
		}
	}
	return songs, nil
}

// PlayCount returns the play counter of a song.
func (s *Store) PlayCount(ctx context.Context, songID string) (int, error) {
	var rows []struct {
		Plays *int `json:"plays"`
	}
	query := url.Values{"select": {"plays"}, "id": {"eq." + songID}}
	if err := s.client.doRequest(ctx, "play_count", http.MethodGet, "songs", query, nil, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, domain.NewRepositoryError("play_count", repoType, fmt.Sprintf("song %q", songID), domain.ErrSongNotFound)
	}
	return lo.FromPtr(rows[0].Plays), nil
}

// SetPlayCount overwrites the play counter of a song.
func (s *Store) SetPlayCount(ctx context.Context, songID string, plays int) error {
	var rows []struct {
		ID string `json:"id"`
	}
	query := url.Values{"select": {"id"}, "id": {"eq." + songID}}
	body := map[string]int{"plays": plays}
	if err := s.client.doRequest(ctx, "set_play_count", http.MethodPatch, "songs", query, body, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.NewRepositoryError("set_play_count", repoType, fmt.Sprintf("song %q", songID), domain.ErrSongNotFound)
	}
	return nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.httpClient.CloseIdleConnections()
	return nil
}

// Verify that Store implements the CatalogStore interface
var _ ports.CatalogStore = (*Store)(nil)
