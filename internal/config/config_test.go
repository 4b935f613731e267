package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunestream/tunestream/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// isolate runs the test in an empty directory with no API key in the environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvAPIKey, "")
	require.NoError(t, os.Unsetenv(EnvAPIKey))
	return dir
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "tilde expands to home", input: "~/music/catalog.db", expected: filepath.Join(home, "music", "catalog.db")},
		{name: "absolute path unchanged", input: "/var/lib/catalog.db", expected: "/var/lib/catalog.db"},
		{name: "relative path unchanged", input: "data/catalog.db", expected: "data/catalog.db"},
		{name: "empty string unchanged", input: "", expected: ""},
		{name: "tilde only", input: "~", expected: home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandPath(tt.input))
		})
	}
}

func TestConfigPaths(t *testing.T) {
	paths := ConfigPaths()

	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(AppName, "config.toml"), filepath.Join(filepath.Base(filepath.Dir(paths[0])), filepath.Base(paths[0])))
	assert.Equal(t, "config.toml", paths[len(paths)-1], "local config has the highest priority")
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, BackendSQLite, cfg.Catalog.Backend)
	assert.Equal(t, "catalog.db", filepath.Base(cfg.Catalog.Path))
	assert.InDelta(t, 0.8, cfg.Volume(), 1e-9)
	assert.Equal(t, domain.RepeatOff, cfg.RepeatMode())
	assert.True(t, cfg.PlayCountEnabled())
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "config.toml", `
[log]
level = "debug"
format = "json"

[catalog]
backend = "REST"
url = "https://catalog.example.com/"
api_key = "from-file"
timeout = "3s"
rate_interval = "20ms"
rate_burst = 2

[storage]
audio_base = "https://cdn.example.com/audio"
origin = "https://music.example.com/"

[audio]
mock = true
tick_interval = "500ms"

[player]
volume = 0.25
repeat = "one"

[playcount]
enabled = false
queue_size = 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, BackendREST, cfg.Catalog.Backend)
	assert.Equal(t, "https://catalog.example.com", cfg.Catalog.URL)
	assert.Equal(t, "from-file", cfg.Catalog.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 20*time.Millisecond, cfg.Catalog.RateInterval)
	assert.Equal(t, 2, cfg.Catalog.RateBurst)
	assert.Equal(t, "https://cdn.example.com/audio", cfg.Storage.AudioBase)
	assert.Equal(t, "https://music.example.com", cfg.Storage.Origin)
	assert.Equal(t, "/img/default-cover.jpg", cfg.Storage.DefaultCover, "unset keys keep their defaults")
	assert.True(t, cfg.Audio.Mock)
	assert.Equal(t, 500*time.Millisecond, cfg.Audio.TickInterval)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.InDelta(t, 0.25, cfg.Volume(), 1e-9)
	assert.Equal(t, domain.RepeatOne, cfg.RepeatMode())
	assert.False(t, cfg.PlayCountEnabled())
	assert.Equal(t, 8, cfg.PlayCount.QueueSize)
}

func TestLoad_LaterFileWins(t *testing.T) {
	dir := isolate(t)
	first := writeFile(t, dir, "a.toml", "[player]\nrepeat = \"all\"\nvolume = 0.5\n")
	second := writeFile(t, dir, "b.toml", "[player]\nrepeat = \"one\"\n")

	cfg, err := Load(first, second)
	require.NoError(t, err)

	assert.Equal(t, domain.RepeatOne, cfg.RepeatMode())
	assert.InDelta(t, 0.5, cfg.Volume(), 1e-9)
}

func TestLoad_ExpandsCatalogPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}
	dir := isolate(t)
	path := writeFile(t, dir, "config.toml", "[catalog]\npath = \"~/music/catalog.db\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "music", "catalog.db"), cfg.Catalog.Path)
}

func TestLoad_APIKeyFromEnvironment(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "config.toml", "[catalog]\nbackend = \"rest\"\nurl = \"https://x.example\"\napi_key = \"from-file\"\n")
	t.Setenv(EnvAPIKey, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Catalog.APIKey)
}

func TestLoad_APIKeyFromDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, ".env", EnvAPIKey+"=from-dotenv\n")
	path := writeFile(t, dir, "config.toml", "[catalog]\nbackend = \"rest\"\nurl = \"https://x.example\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Catalog.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown backend", content: "[catalog]\nbackend = \"mongo\"\n"},
		{name: "rest without url", content: "[catalog]\nbackend = \"rest\"\n"},
		{name: "sqlite without path", content: "[catalog]\npath = \"\"\n"},
		{name: "volume above one", content: "[player]\nvolume = 1.5\n"},
		{name: "unknown repeat mode", content: "[player]\nrepeat = \"twice\"\n"},
		{name: "unknown log level", content: "[log]\nlevel = \"loud\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := writeFile(t, dir, "config.toml", tt.content)

			_, err := Load(path)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "config.toml", "[player\nvolume = ")

	_, err := Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoggerConfig(t *testing.T) {
	t.Setenv("TUNESTREAM_LOG_LEVEL", "")
	cfg := Default()
	cfg.Log.Level = "error"
	cfg.Log.Format = "json"

	lc := cfg.LoggerConfig()
	assert.Equal(t, "ERROR", lc.Level.String())
	assert.Equal(t, "json", lc.Format)

	t.Setenv("TUNESTREAM_LOG_LEVEL", "debug")
	assert.Equal(t, "DEBUG", cfg.LoggerConfig().Level.String(), "environment overrides the file")
}
