package app

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunestream/tunestream/internal/adapter/audio/mock"
	"github.com/tunestream/tunestream/internal/adapter/catalog/rest"
	"github.com/tunestream/tunestream/internal/adapter/catalog/sqlite"
	"github.com/tunestream/tunestream/internal/config"
	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/logger"
	"github.com/tunestream/tunestream/internal/testutil"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Catalog.Path = ":memory:"
	cfg.Audio.Mock = true
	cfg.PlayCount.RateInterval = 0
	return cfg
}

func testSeed() sqlite.Seed {
	return sqlite.Seed{
		Artists: []sqlite.Named{{ID: "ar1", Name: "Band"}},
		Songs: []sqlite.Song{
			{ID: "s1", Title: "Older", ArtistID: "ar1", AudioURL: "older.mp3", Plays: 4, CreatedAt: "2024-01-01T00:00:00Z"},
			{ID: "s2", Title: "Newer", ArtistID: "ar1", AudioURL: "newer.mp3", CreatedAt: "2024-02-01T00:00:00Z"},
		},
	}
}

func TestNewApplication(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	app, err := NewApplication(testConfig(), WithLogger(logger.NewTestLogger()))
	require.NoError(t, err)
	require.NotNil(t, app)

	// Verify all dependencies were created
	assert.NotNil(t, app.Session())
	assert.NotNil(t, app.Loader())
	assert.NotNil(t, app.EventBus())
	assert.NotNil(t, app.playCount)
	assert.IsType(t, &sqlite.Store{}, app.Store())
	assert.IsType(t, &mock.Output{}, app.output)

	require.NoError(t, app.Shutdown())
}

func TestApplication_PlaysAndCounts(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	ctx := context.Background()

	app, err := NewApplication(testConfig(),
		WithLogger(logger.NewTestLogger()),
		WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)

	store, ok := app.Store().(*sqlite.Store)
	require.True(t, ok)
	require.NoError(t, store.Import(ctx, testSeed()))
	require.NoError(t, app.Start(ctx))

	session := app.Session()
	snap := session.Snapshot()
	require.Len(t, snap.Queue, 2)
	assert.Equal(t, "Newer", snap.CurrentTrack.Title, "newest song first")
	assert.Equal(t, "/audio/newer.mp3", snap.CurrentTrack.Src)
	assert.Equal(t, "Band", snap.CurrentTrack.Artist)

	// The silent output reports metadata on its own
	require.Eventually(t, func() bool {
		return session.State() == domain.StateReady
	}, time.Second, 5*time.Millisecond)

	session.TogglePlay()
	assert.Equal(t, domain.StatePlaying, session.State())

	require.Eventually(t, func() bool {
		plays, err := store.PlayCount(ctx, "s2")
		return err == nil && plays == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, app.Shutdown())
	require.NoError(t, app.Shutdown(), "second shutdown is a no-op")
}

func TestApplication_ConfiguredSession(t *testing.T) {
	cfg := testConfig()
	volume := 0.3
	cfg.Player.Volume = &volume
	cfg.Player.Repeat = "one"
	enabled := false
	cfg.PlayCount.Enabled = &enabled

	app, err := NewApplication(cfg, WithLogger(logger.NewTestLogger()))
	require.NoError(t, err)
	defer app.Shutdown()

	assert.InDelta(t, 0.3, app.Session().Volume(), 1e-9)
	assert.Equal(t, domain.RepeatOne, app.Session().RepeatMode())
	assert.Nil(t, app.playCount)
}

func TestApplication_RESTBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Backend = config.BackendREST
	cfg.Catalog.URL = "http://127.0.0.1:1/rest/v1"

	app, err := NewApplication(cfg, WithLogger(logger.NewTestLogger()))
	require.NoError(t, err)
	defer app.Shutdown()

	assert.IsType(t, &rest.Store{}, app.Store())
}

func TestApplication_CatalogUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Backend = config.BackendREST
	cfg.Catalog.URL = "http://127.0.0.1:1/rest/v1"
	cfg.Catalog.Timeout = 200 * time.Millisecond

	app, err := NewApplication(cfg, WithLogger(logger.NewTestLogger()))
	require.NoError(t, err)
	defer app.Shutdown()

	require.NoError(t, app.Start(context.Background()))
	assert.Empty(t, app.Session().Queue(), "catalog failures leave an empty queue")
}

func TestNewApplication_InvalidBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Backend = "mongo"

	_, err := NewApplication(cfg, WithLogger(logger.NewTestLogger()))
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	var serviceErr *domain.ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "app", serviceErr.Service)
}

func TestApplication_StartAfterShutdown(t *testing.T) {
	app, err := NewApplication(testConfig(), WithLogger(logger.NewTestLogger()))
	require.NoError(t, err)
	require.NoError(t, app.Shutdown())

	err = app.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionDisposed)
}

func TestVersionInfo(t *testing.T) {
	info := VersionInfo{Version: "dev", GitCommit: "abc123", BuildTime: "today"}
	assert.Equal(t, "tunestream dev (commit: abc123, built: today)", info.FullString())

	info.GitTag = "v1.2.0"
	assert.Equal(t, "tunestream v1.2.0 (commit: abc123, built: today)", info.FullString())

	assert.NotEmpty(t, GetVersionInfo().Version)
}
