package service

import (
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"

	"github.com/tunestream/tunestream/internal/domain"
)

// Queue is the ordered play queue with its current position and the
// pre-shuffle order needed to leave shuffle mode.
//
// Queue is not safe for concurrent use; Session serializes access to it.
type Queue struct {
	rng *rand.Rand

	tracks    []domain.Track
	original  []domain.Track
	index     int
	shuffling bool
}

// NewQueue creates an empty queue. A nil rng uses a randomly seeded PCG source.
func NewQueue(rng *rand.Rand) *Queue {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Queue{rng: rng}
}

// Len returns the number of tracks in the queue.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Index returns the current position. An empty queue reports 0.
func (q *Queue) Index() int {
	return q.index
}

// Current returns the track at the current position.
func (q *Queue) Current() (domain.Track, bool) {
	if len(q.tracks) == 0 {
		return domain.Track{}, false
	}
	return q.tracks[q.index], true
}

// Tracks returns a copy of the active order.
func (q *Queue) Tracks() []domain.Track {
	return slices.Clone(q.tracks)
}

// Original returns a copy of the order shuffle mode will restore.
// Outside shuffle mode it is the active order.
func (q *Queue) Original() []domain.Track {
	if !q.shuffling {
		return slices.Clone(q.tracks)
	}
	return slices.Clone(q.original)
}

// Shuffling reports whether shuffle mode is on.
func (q *Queue) Shuffling() bool {
	return q.shuffling
}

// Replace installs tracks as the new queue and moves to the first track.
// In shuffle mode everything after the first track is shuffled and tracks
// becomes the order restored when shuffle mode is turned off.
func (q *Queue) Replace(tracks []domain.Track) {
	q.tracks = slices.Clone(tracks)
	q.original = slices.Clone(tracks)
	q.index = 0

	if q.shuffling && len(q.tracks) > 2 {
		rest := q.tracks[1:]
		fisherYates(q.rng, rest)
	}
}

// SetCurrent moves to the first occurrence of track.
// A track that is not in the queue leaves the position unchanged and returns false.
func (q *Queue) SetCurrent(track domain.Track) bool {
	i := indexOf(q.tracks, track)
	if i < 0 {
		return false
	}
	q.index = i
	return true
}

// Shuffle permutes the whole queue once. The position follows the current
// track to its new slot. The restore order is left untouched.
func (q *Queue) Shuffle() {
	if len(q.tracks) < 2 {
		return
	}

	perm := make([]int, len(q.tracks))
	for i := range perm {
		perm[i] = i
	}
	fisherYates(q.rng, perm)

	shuffled := make([]domain.Track, len(q.tracks))
	newIndex := 0
	for slot, from := range perm {
		shuffled[slot] = q.tracks[from]
		if from == q.index {
			newIndex = slot
		}
	}
	q.tracks = shuffled
	q.index = newIndex
}

// ToggleShuffleMode turns shuffle mode on or off and reports whether anything changed.
//
// Turning it on remembers the current order, moves the current track to the
// front and shuffles the rest. Turning it off restores the remembered order and
// moves to the current track's place in it. Queues of one track or less are left alone.
func (q *Queue) ToggleShuffleMode() bool {
	if len(q.tracks) <= 1 {
		return false
	}

	current := q.tracks[q.index]

	if !q.shuffling {
		q.original = slices.Clone(q.tracks)
		rest := slices.Delete(slices.Clone(q.tracks), q.index, q.index+1)
		fisherYates(q.rng, rest)
		q.tracks = append([]domain.Track{current}, rest...)
		q.index = 0
		q.shuffling = true
		return true
	}

	q.tracks = slices.Clone(q.original)
	q.index = max(indexOf(q.tracks, current), 0)
	q.shuffling = false
	return true
}

// InsertAfterCurrent moves track to the slot right after the current one,
// removing any earlier occurrence. Inserting the current track does nothing.
func (q *Queue) InsertAfterCurrent(track domain.Track) {
	if len(q.tracks) == 0 {
		q.placeInEmpty(track)
		return
	}

	current := q.tracks[q.index]
	if track.SameAs(current) {
		return
	}

	q.tracks, q.index = without(q.tracks, track, q.index)
	q.tracks = slices.Insert(q.tracks, q.index+1, track)

	if q.shuffling {
		q.original, _ = without(q.original, track, 0)
		at := indexOf(q.original, current)
		if at < 0 {
			q.original = append(q.original, track)
		} else {
			q.original = slices.Insert(q.original, at+1, track)
		}
	}
}

// AppendToEnd moves track to the end of the queue, removing any earlier
// occurrence. Appending the current track does nothing.
func (q *Queue) AppendToEnd(track domain.Track) {
	if len(q.tracks) == 0 {
		q.placeInEmpty(track)
		return
	}

	if track.SameAs(q.tracks[q.index]) {
		return
	}

	q.tracks, q.index = without(q.tracks, track, q.index)
	q.tracks = append(q.tracks, track)

	if q.shuffling {
		q.original, _ = without(q.original, track, 0)
		q.original = append(q.original, track)
	}
}

func (q *Queue) placeInEmpty(track domain.Track) {
	q.tracks = []domain.Track{track}
	q.index = 0
	if q.shuffling {
		q.original = []domain.Track{track}
	}
}

// Advance moves to the next position. At the last position it wraps to the
// first one when wrap is set, otherwise it stays put and returns false.
func (q *Queue) Advance(wrap bool) bool {
	switch {
	case len(q.tracks) == 0:
		return false
	case q.index < len(q.tracks)-1:
		q.index++
		return true
	case wrap:
		q.index = 0
		return true
	default:
		return false
	}
}

// Retreat moves to the previous position. There is no wraparound.
func (q *Queue) Retreat() bool {
	if q.index <= 0 {
		return false
	}
	q.index--
	return true
}

// fisherYates shuffles s in place: for i from the last index down to 1,
// swap s[i] with s[j] for j drawn uniformly from [0, i].
func fisherYates[T any](rng *rand.Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

func indexOf(tracks []domain.Track, track domain.Track) int {
	return slices.IndexFunc(tracks, track.SameAs)
}

// without removes every occurrence of track and returns the shifted index of
// the slot that was at index.
func without(tracks []domain.Track, track domain.Track, index int) ([]domain.Track, int) {
	before := lo.CountBy(tracks[:min(max(index, 0), len(tracks))], track.SameAs)
	out := lo.Reject(tracks, func(t domain.Track, _ int) bool {
		return t.SameAs(track)
	})
	return out, max(index-before, 0)
}
