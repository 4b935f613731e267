package play

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunestream/tunestream/internal/adapter/catalog/sqlite"
	"github.com/tunestream/tunestream/internal/app"
	"github.com/tunestream/tunestream/internal/config"
	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/logger"
)

func startedApp(t *testing.T, seed sqlite.Seed) *app.Application {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default()
	cfg.Catalog.Path = ":memory:"
	cfg.Audio.Mock = true

	application, err := app.NewApplication(cfg, app.WithLogger(logger.NewTestLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Shutdown() })

	store, ok := application.Store().(*sqlite.Store)
	require.True(t, ok)
	require.NoError(t, store.Import(ctx, seed))
	require.NoError(t, application.Start(ctx))
	return application
}

func testSeed() sqlite.Seed {
	return sqlite.Seed{
		Albums: []sqlite.Album{{ID: "al1", Name: "Afterglow"}},
		Songs: []sqlite.Song{
			{ID: "s1", Title: "One", AlbumID: "al1", AudioURL: "1.mp3", TrackNo: 1},
			{ID: "s2", Title: "Two", AlbumID: "al1", AudioURL: "2.mp3", TrackNo: 2},
			{ID: "s3", Title: "Loose", AudioURL: "3.mp3"},
		},
	}
}

func TestPrepare_Catalog(t *testing.T) {
	application := startedApp(t, testSeed())

	startedSet, err := Prepare(context.Background(), application, &Params{Repeat: "one", Shuffle: true})
	require.NoError(t, err)
	assert.False(t, startedSet)

	snap := application.Session().Snapshot()
	assert.Len(t, snap.Queue, 3)
	assert.Equal(t, domain.RepeatOne, snap.RepeatMode)
	assert.True(t, snap.IsShuffling)
}

func TestPrepare_Album(t *testing.T) {
	application := startedApp(t, testSeed())

	startedSet, err := Prepare(context.Background(), application, &Params{Album: "al1"})
	require.NoError(t, err)
	assert.True(t, startedSet)

	snap := application.Session().Snapshot()
	require.Len(t, snap.Queue, 2)
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "One", snap.CurrentTrack.Title)
}

func TestPrepare_Errors(t *testing.T) {
	application := startedApp(t, testSeed())
	ctx := context.Background()

	_, err := Prepare(ctx, application, &Params{Album: "missing"})
	assert.ErrorIs(t, err, domain.ErrQueueEmpty)

	_, err = Prepare(ctx, application, &Params{Album: "al1", Playlist: "p1"})
	assert.Error(t, err)

	_, err = Prepare(ctx, application, &Params{Repeat: "twice"})
	assert.Error(t, err)

	empty := startedApp(t, sqlite.Seed{})
	_, err = Prepare(ctx, empty, &Params{})
	assert.ErrorIs(t, err, domain.ErrQueueEmpty)
}
