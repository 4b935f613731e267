// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the tunestream playback session.
package domain

import (
	"strings"
	"time"
)

// Track is the immutable view of a playable unit once placed in a queue.
// Tracks are always copied by value; a queue never shares storage with the catalog.
type Track struct {
	// ID is the catalog identifier (unique within the catalog)
	ID string

	// Title is the song title
	Title string

	// Artist is the display name resolved from the artist relationship
	Artist string

	// Image is a resolvable cover URL, or the default placeholder
	Image string

	// Src is the resolvable audio URL, or "" when the song has no audio asset
	Src string

	// AudioAssetRef is the raw storage key the Src was built from
	AudioAssetRef string
}

// Playable reports whether the track has an audio source.
func (t Track) Playable() bool {
	return t.Src != ""
}

// SameAs reports whether two tracks refer to the same catalog entry.
// Identity is the catalog ID when both tracks carry one; otherwise the
// resolved audio URL, which must be non-empty to match.
func (t Track) SameAs(other Track) bool {
	if t.ID != "" && other.ID != "" {
		return t.ID == other.ID
	}
	return t.Src != "" && t.Src == other.Src
}

// CatalogSong is a raw song record as read from the catalog store,
// joined with its artist and album display names.
type CatalogSong struct {
	ID         string
	Title      string
	ArtistID   string
	AlbumID    string
	GenreID    string
	ArtistName string
	AlbumName  string

	// CoverURL and AudioURL are optional; empty means absent
	CoverURL string
	AudioURL string

	Duration  time.Duration
	TrackNo   int
	Plays     int
	CreatedAt time.Time
}

// TrackSetKind identifies a catalog grouping that can replace the queue.
type TrackSetKind string

const (
	TrackSetAlbum    TrackSetKind = "album"
	TrackSetGenre    TrackSetKind = "genre"
	TrackSetArtist   TrackSetKind = "artist"
	TrackSetPlaylist TrackSetKind = "playlist"
)

// RepeatMode defines what happens when a track ends.
type RepeatMode int

const (
	// RepeatOff stops at the end of the queue
	RepeatOff RepeatMode = iota

	// RepeatAll wraps from the last track to the first
	RepeatAll

	// RepeatOne replays the current track
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m in the off → all → one cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ParseRepeatMode converts a string to a RepeatMode. Unknown values map to RepeatOff.
func ParseRepeatMode(s string) RepeatMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return RepeatAll
	case "one":
		return RepeatOne
	default:
		return RepeatOff
	}
}

// TransportState is the state of the transport state machine.
//
//	Empty ──load(src)──▶ Loading ──metadata──▶ Ready ──play──▶ Playing ◀──▶ Paused
//	  ▲                                                          │
//	  └────────────── load("") from any state                    ▼
//	                                         any ──load──▶ Loading   Ended
type TransportState int

const (
	// StateEmpty means no playable source is bound to the output
	StateEmpty TransportState = iota

	// StateLoading means a source was handed to the output and metadata is pending
	StateLoading

	// StateReady means metadata is known and the output is idle
	StateReady

	// StatePlaying means the output is producing audio
	StatePlaying

	// StatePaused means playback was paused by the user
	StatePaused

	// StateEnded means the track played to completion
	StateEnded
)

// String returns a human-readable representation of the transport state.
func (s TransportState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the session state handed to UI consumers.
type Snapshot struct {
	IsPlaying    bool
	CurrentTrack *Track
	CurrentIndex int
	Queue        []Track
	Position     time.Duration
	Duration     time.Duration
	RepeatMode   RepeatMode
	IsShuffling  bool
	IsMini       bool
	Volume       float64
	State        TransportState
}

// Progress returns the playback position as a fraction of the duration (0 when unknown).
func (s Snapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Position) / float64(s.Duration)
}
