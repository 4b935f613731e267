package testutil

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/tunestream/tunestream/internal/domain"
)

// Tracks returns n playable tracks with ids s1..sn.
func Tracks(n int) []domain.Track {
	tracks := make([]domain.Track, n)
	for i := range tracks {
		id := fmt.Sprintf("s%d", i+1)
		tracks[i] = domain.Track{
			ID:            id,
			Title:         "Song " + id,
			Artist:        "Artist " + id,
			Image:         "/img/default-cover.jpg",
			Src:           "/audio/" + id + ".mp3",
			AudioAssetRef: id + ".mp3",
		}
	}
	return tracks
}

// IDs returns the ids of tracks in order.
func IDs(tracks []domain.Track) []string {
	return lo.Map(tracks, func(t domain.Track, _ int) string { return t.ID })
}
