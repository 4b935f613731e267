// Package config loads tunestream settings from TOML files and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/logger"
)

// AppName names the config and data directories.
const AppName = "tunestream"

// EnvAPIKey overrides catalog.api_key. It may also be set in a .env file.
const EnvAPIKey = "TUNESTREAM_CATALOG_API_KEY"

// Catalog backends.
const (
	BackendSQLite = "sqlite"
	BackendREST   = "rest"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Storage   StorageConfig   `koanf:"storage"`
	Audio     AudioConfig     `koanf:"audio"`
	Player    PlayerConfig    `koanf:"player"`
	PlayCount PlayCountConfig `koanf:"playcount"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn or error
	Format string `koanf:"format"` // "text" or "json"
}

// CatalogConfig selects where song records come from.
type CatalogConfig struct {
	Backend      string        `koanf:"backend"` // "sqlite" or "rest"
	Path         string        `koanf:"path"`    // sqlite database file
	URL          string        `koanf:"url"`     // REST endpoint, e.g. "https://project.example.co"
	APIKey       string        `koanf:"api_key"`
	Timeout      time.Duration `koanf:"timeout"`
	RateInterval time.Duration `koanf:"rate_interval"` // minimum spacing between REST requests
	RateBurst    int           `koanf:"rate_burst"`
}

// StorageConfig controls how asset keys become URLs.
type StorageConfig struct {
	AudioBase    string `koanf:"audio_base"`
	CoverBase    string `koanf:"cover_base"`
	DefaultCover string `koanf:"default_cover"`
	Origin       string `koanf:"origin"` // prefix for rooted paths such as "/audio/x.mp3"
}

type AudioConfig struct {
	Mock         bool          `koanf:"mock"` // use the in-memory output
	SampleRate   int           `koanf:"sample_rate"`
	BufferSize   time.Duration `koanf:"buffer_size"`
	TickInterval time.Duration `koanf:"tick_interval"`
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
}

// PlayerConfig holds the starting state of a session.
type PlayerConfig struct {
	Volume *float64 `koanf:"volume"` // 0.0-1.0 (default: 0.8)
	Repeat string   `koanf:"repeat"` // "off", "all" or "one"
}

type PlayCountConfig struct {
	Enabled      *bool         `koanf:"enabled"` // default: true
	QueueSize    int           `koanf:"queue_size"`
	Timeout      time.Duration `koanf:"timeout"`
	RateInterval time.Duration `koanf:"rate_interval"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Catalog: CatalogConfig{
			Backend:      BackendSQLite,
			Path:         filepath.Join(xdg.DataHome, AppName, "catalog.db"),
			Timeout:      10 * time.Second,
			RateInterval: 100 * time.Millisecond,
			RateBurst:    5,
		},
		Storage: StorageConfig{
			AudioBase:    "/audio",
			DefaultCover: "/img/default-cover.jpg",
		},
		Audio: AudioConfig{
			SampleRate:   44100,
			BufferSize:   100 * time.Millisecond,
			TickInterval: 250 * time.Millisecond,
			FetchTimeout: 30 * time.Second,
		},
		Player: PlayerConfig{Repeat: "off"},
		PlayCount: PlayCountConfig{
			QueueSize:    64,
			Timeout:      5 * time.Second,
			RateInterval: 50 * time.Millisecond,
		},
	}
}

// Load reads the given TOML files in order, later files overriding earlier
// ones. Missing files are skipped. Without paths it reads ConfigPaths.
// The catalog API key is then taken from the environment or ./.env when set there.
func Load(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = ConfigPaths()
	}

	k := koanf.New(".")
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Catalog.APIKey = key
	}

	cfg.Catalog.Backend = strings.ToLower(strings.TrimSpace(cfg.Catalog.Backend))
	cfg.Catalog.Path = expandPath(cfg.Catalog.Path)
	cfg.Catalog.URL = strings.TrimSuffix(cfg.Catalog.URL, "/")
	cfg.Storage.Origin = strings.TrimSuffix(cfg.Storage.Origin, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigPaths lists the files Load reads by default, lowest priority first.
func ConfigPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, AppName, "config.toml"),
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if _, ok := logger.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	switch c.Catalog.Backend {
	case BackendSQLite:
		if c.Catalog.Path == "" {
			return fmt.Errorf("%w: catalog.path is empty", ErrInvalidConfig)
		}
	case BackendREST:
		if c.Catalog.URL == "" {
			return fmt.Errorf("%w: catalog.url is required for the rest backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: catalog.backend %q", ErrInvalidConfig, c.Catalog.Backend)
	}
	if v := c.Player.Volume; v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("%w: player.volume: %w", ErrInvalidConfig, domain.ErrInvalidVolume)
	}
	switch strings.ToLower(strings.TrimSpace(c.Player.Repeat)) {
	case "", "off", "all", "one":
	default:
		return fmt.Errorf("%w: player.repeat %q", ErrInvalidConfig, c.Player.Repeat)
	}
	return nil
}

// LoggerConfig returns the logger settings. TUNESTREAM_LOG_LEVEL still wins.
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	if os.Getenv(logger.EnvLevel) == "" {
		if level, ok := logger.ParseLevel(c.Log.Level); ok {
			cfg.Level = level
		}
	}
	if c.Log.Format != "" {
		cfg.Format = c.Log.Format
	}
	return cfg
}

// Volume returns the starting volume.
func (c *Config) Volume() float64 {
	if c.Player.Volume == nil {
		return 0.8
	}
	return *c.Player.Volume
}

// RepeatMode returns the starting repeat mode, off when unset.
func (c *Config) RepeatMode() domain.RepeatMode {
	return domain.ParseRepeatMode(c.Player.Repeat)
}

// PlayCountEnabled reports whether play counts are recorded (default: true).
func (c *Config) PlayCountEnabled() bool {
	return c.PlayCount.Enabled == nil || *c.PlayCount.Enabled
}

// LogValue keeps the API key out of logs.
func (c CatalogConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", c.Backend),
		slog.String("path", c.Path),
		slog.String("url", c.URL),
		slog.Bool("api_key_set", c.APIKey != ""),
	)
}
