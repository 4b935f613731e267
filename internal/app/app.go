// Package app provides application-level orchestration and dependency injection.
// It wires the catalog, the audio output and the playback session together and
// manages their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/tunestream/tunestream/internal/adapter/audio/beepout"
	"github.com/tunestream/tunestream/internal/adapter/audio/mock"
	"github.com/tunestream/tunestream/internal/adapter/catalog/rest"
	"github.com/tunestream/tunestream/internal/adapter/catalog/sqlite"
	"github.com/tunestream/tunestream/internal/adapter/eventbus"
	"github.com/tunestream/tunestream/internal/adapter/storage"
	"github.com/tunestream/tunestream/internal/config"
	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/logger"
	"github.com/tunestream/tunestream/internal/ports"
	"github.com/tunestream/tunestream/internal/service"
)

// Application is the root structure that holds all dependencies.
// Dependencies are created in NewApplication and released in Shutdown.
type Application struct {
	// Core dependencies
	logger *slog.Logger
	config *config.Config

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	store    ports.CatalogStore
	output   ports.AudioOutput

	// Services
	loader    *service.CatalogLoader
	session   *service.Session
	playCount *service.PlayCountService

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option overrides a dependency, mostly for tests.
type Option func(*options)

type options struct {
	logger *slog.Logger
	store  ports.CatalogStore
	output ports.AudioOutput
	rng    *rand.Rand
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStore replaces the configured catalog backend.
func WithStore(store ports.CatalogStore) Option {
	return func(o *options) { o.store = store }
}

// WithOutput replaces the configured audio output.
func WithOutput(output ports.AudioOutput) Option {
	return func(o *options) { o.output = output }
}

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// NewApplication creates an application with all dependencies wired.
// The catalog is not read until Start.
func NewApplication(cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{config: cfg}

	// Step 1: Create logger
	app.logger = o.logger
	if app.logger == nil {
		app.logger = logger.NewLogger(cfg.LoggerConfig())
	}
	app.logger.Info("initializing application",
		slog.String("version", GetVersionInfo().Version),
		slog.Any("catalog", cfg.Catalog))

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)

	// Step 3: Open the catalog
	app.store = o.store
	if app.store == nil {
		store, err := newStore(cfg, app.logger)
		if err != nil {
			return nil, domain.NewServiceError("app", "open catalog", "cannot open catalog", err)
		}
		app.store = store
	}

	// Step 4: Create the audio output
	app.output = o.output
	if app.output == nil {
		app.output = newOutput(cfg, app.logger)
	}

	// Step 5: Create services (with dependency injection)
	resolver := storage.NewResolver(
		storage.WithAudioBase(cfg.Storage.AudioBase),
		storage.WithCoverBase(cfg.Storage.CoverBase),
		storage.WithDefaultCover(cfg.Storage.DefaultCover),
	)
	app.loader = service.NewCatalogLoader(app.logger, app.store, resolver)

	sessionOpts := []service.SessionOption{
		service.WithVolume(cfg.Volume()),
		service.WithRepeatMode(cfg.RepeatMode()),
	}
	if o.rng != nil {
		sessionOpts = append(sessionOpts, service.WithRand(o.rng))
	}
	app.session = service.NewSession(app.logger, app.eventBus, app.output, app.loader, sessionOpts...)

	if cfg.PlayCountEnabled() {
		app.playCount = service.NewPlayCountService(app.logger, app.store, app.eventBus, service.PlayCountConfig{
			QueueSize:    cfg.PlayCount.QueueSize,
			Timeout:      cfg.PlayCount.Timeout,
			RateInterval: cfg.PlayCount.RateInterval,
		})
	}

	return app, nil
}

func newStore(cfg *config.Config, log *slog.Logger) (ports.CatalogStore, error) {
	switch cfg.Catalog.Backend {
	case config.BackendREST:
		client := rest.NewClient(cfg.Catalog.URL, cfg.Catalog.APIKey,
			rest.WithHTTPClient(&http.Client{Timeout: cfg.Catalog.Timeout}),
			rest.WithRateLimit(cfg.Catalog.RateInterval, cfg.Catalog.RateBurst),
			rest.WithLogger(log),
		)
		return rest.NewStore(client), nil
	case config.BackendSQLite:
		return sqlite.Open(cfg.Catalog.Path, log)
	default:
		return nil, fmt.Errorf("%w: catalog backend %q", config.ErrInvalidConfig, cfg.Catalog.Backend)
	}
}

// newOutput picks the speaker output, or a silent one when audio is disabled
// or not compiled in.
func newOutput(cfg *config.Config, log *slog.Logger) ports.AudioOutput {
	if cfg.Audio.Mock || !beepout.Available {
		if !cfg.Audio.Mock {
			log.Warn("audio playback not available in this build, using a silent output")
		}
		return mock.NewOutput(log, mock.WithAutoLoad(mock.DefaultDuration))
	}

	return beepout.NewOutput(log, ports.AudioOutputConfig{
		SampleRate:   cfg.Audio.SampleRate,
		BufferSize:   cfg.Audio.BufferSize,
		TickInterval: cfg.Audio.TickInterval,
		FetchTimeout: cfg.Audio.FetchTimeout,
	}, beepout.WithBaseURL(cfg.Storage.Origin))
}

// Start loads the catalog into the session.
func (a *Application) Start(ctx context.Context) error {
	a.logger.Info("starting session")
	if err := a.session.Init(ctx); err != nil {
		return domain.NewServiceError("app", "start", "cannot start session", err)
	}
	return nil
}

// Shutdown releases every dependency in reverse order of creation.
// It is safe to call more than once; later calls return the first result.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		var errs []error
		if a.playCount != nil {
			a.playCount.Shutdown()
		}
		a.session.Dispose()
		if err := a.output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audio output: %w", err))
		}
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close catalog: %w", err))
		}
		if err := a.eventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}

		a.shutdownErr = errors.Join(errs...)
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// Getters for accessing dependencies

// Session returns the playback session.
func (a *Application) Session() *service.Session {
	return a.session
}

// Loader returns the catalog loader.
func (a *Application) Loader() *service.CatalogLoader {
	return a.loader
}

// Store returns the catalog store.
func (a *Application) Store() ports.CatalogStore {
	return a.store
}

// EventBus returns the event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Config returns the configuration the application was built from.
func (a *Application) Config() *config.Config {
	return a.config
}
