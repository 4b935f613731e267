// Package common holds helpers shared by the tunestream subcommands.
package common

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/adrg/xdg"

	"github.com/tunestream/tunestream/internal/app"
	"github.com/tunestream/tunestream/internal/config"
	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/logger"
)

// ErrConflictingSets is returned when more than one track set flag is given.
var ErrConflictingSets = errors.New("only one of --album, --genre, --artist and --playlist may be set")

func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// LoadConfig reads the default config locations, then path when it is set.
// Unlike the default locations, an explicit path must exist.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return config.Load(append(config.ConfigPaths(), path)...)
}

// OpenApp loads the configuration at path and builds the application.
func OpenApp(path string, opts ...app.Option) (*app.Application, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return app.NewApplication(cfg, opts...)
}

// LogFile opens the log file used while the terminal is in raw mode, under
// the XDG state directory. The returned function closes it.
func LogFile(cfg *config.Config) (*slog.Logger, func(), error) {
	path, err := xdg.StateFile(filepath.Join(config.AppName, config.AppName+".log"))
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	lc := cfg.LoggerConfig()
	lc.Output = f
	return logger.NewLogger(lc), func() { _ = f.Close() }, nil
}

// TrackSet picks the track set named by the set flags.
// ok is false when none is set.
func TrackSet(album, genre, artist, playlist string) (kind domain.TrackSetKind, id string, ok bool, err error) {
	candidates := []struct {
		kind domain.TrackSetKind
		id   string
	}{
		{domain.TrackSetAlbum, album},
		{domain.TrackSetGenre, genre},
		{domain.TrackSetArtist, artist},
		{domain.TrackSetPlaylist, playlist},
	}
	for _, c := range candidates {
		if c.id == "" {
			continue
		}
		if ok {
			return "", "", false, ErrConflictingSets
		}
		kind, id, ok = c.kind, c.id, true
	}
	return kind, id, ok, nil
}

// Fail prints err to stderr and returns exit code 1.
func Fail(stderr io.Writer, prefix string, err error) int {
	fmt.Fprintf(stderr, "%s: %v\n", prefix, err)
	return 1
}
