// Package beepout plays catalog audio through the system speaker using beep.
//
// Sources are fetched over HTTP (or read from disk), decoded in memory and
// mixed into the speaker. All listener callbacks run on goroutines owned by
// the output, never inside an Output method.
package beepout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tunestream/tunestream/internal/domain"
	"github.com/tunestream/tunestream/internal/ports"
)

// MaxSourceSize caps the number of bytes read for one source.
const MaxSourceSize = 256 << 20

// ErrAudioUnavailable is returned by builds without speaker support.
var ErrAudioUnavailable = errors.New("audio playback not available in this build")

// DefaultConfig returns the output configuration used when fields are left zero.
func DefaultConfig() ports.AudioOutputConfig {
	return ports.AudioOutputConfig{
		SampleRate:   44100,
		BufferSize:   100 * time.Millisecond,
		TickInterval: 250 * time.Millisecond,
		FetchTimeout: 30 * time.Second,
	}
}

func withDefaults(cfg ports.AudioOutputConfig) ports.AudioOutputConfig {
	defaults := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaults.SampleRate
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}
	return cfg
}

// Option configures an Output.
type Option func(*options)

type options struct {
	baseURL string
	client  *http.Client
}

// WithBaseURL sets the origin that rooted sources such as "/audio/a.mp3" are fetched from.
// Without it rooted sources are read from the local filesystem.
func WithBaseURL(base string) Option {
	return func(o *options) { o.baseURL = base }
}

// WithHTTPClient sets the client used to fetch remote sources.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

// location is a resolved source: a remote URL or a local file path.
type location struct {
	url  string
	file string
}

func (l location) ext() string {
	if l.file != "" {
		return strings.ToLower(path.Ext(l.file))
	}
	if u, err := url.Parse(l.url); err == nil {
		return strings.ToLower(path.Ext(u.Path))
	}
	return ""
}

// resolveSource maps src onto a remote URL or a local file.
func resolveSource(baseURL, src string) (location, error) {
	u, err := url.Parse(src)
	if err != nil {
		return location{}, fmt.Errorf("parse source %q: %w", src, err)
	}

	switch u.Scheme {
	case "http", "https":
		return location{url: src}, nil
	case "file":
		return location{file: u.Path}, nil
	case "":
	default:
		return location{}, fmt.Errorf("%w: scheme %q", domain.ErrUnsupportedFormat, u.Scheme)
	}

	if baseURL == "" {
		return location{file: src}, nil
	}
	joined, err := url.JoinPath(baseURL, u.Path)
	if err != nil {
		return location{}, fmt.Errorf("join source %q: %w", src, err)
	}
	if u.RawQuery != "" {
		joined += "?" + u.RawQuery
	}
	return location{url: joined}, nil
}

// fetch reads the whole source into memory.
func fetch(ctx context.Context, client *http.Client, loc location) ([]byte, error) {
	if loc.file != "" {
		f, err := os.Open(loc.file)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return io.ReadAll(io.LimitReader(f, MaxSourceSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: %s", loc.url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxSourceSize))
}

// decode picks a decoder by file extension, falling back to MP3.
func decode(data []byte, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	rc := nopCloser{bytes.NewReader(data)}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(rc)
	case ".mp3", "":
		streamer, format, err = mp3.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %w", domain.ErrUnsupportedFormat, err)
	}
	return streamer, format, nil
}

// levelToVolume maps a 0..1 level onto beep's base-2 volume scale.
// 1.0 is unchanged, 0.5 is -1, and 0 is effectively silent.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
