// Package storage resolves object storage keys from catalog records into URLs
// the audio output can fetch.
package storage

import (
	"net/url"
	"strings"

	"github.com/tunestream/tunestream/internal/ports"
)

const (
	// DefaultAudioBase is prefixed to relative audio keys.
	DefaultAudioBase = "/audio"

	// DefaultCover is used for songs without a cover.
	DefaultCover = "/img/default-cover.jpg"
)

// Resolver builds resolvable URLs from storage keys.
type Resolver struct {
	audioBase    string
	coverBase    string
	defaultCover string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAudioBase sets the base path or URL for relative audio keys.
func WithAudioBase(base string) Option {
	return func(r *Resolver) { r.audioBase = base }
}

// WithCoverBase sets the base path or URL for relative cover keys.
// Without it relative cover keys are returned unchanged.
func WithCoverBase(base string) Option {
	return func(r *Resolver) { r.coverBase = base }
}

// WithDefaultCover sets the placeholder used when a song has no cover.
func WithDefaultCover(cover string) Option {
	return func(r *Resolver) { r.defaultCover = cover }
}

// NewResolver creates a resolver with DefaultAudioBase and DefaultCover unless overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		audioBase:    DefaultAudioBase,
		defaultCover: DefaultCover,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AudioURL resolves an audio key. An empty key yields "" (unplayable).
// Keys that are already absolute URLs or rooted paths are returned as-is.
func (r *Resolver) AudioURL(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return join(r.audioBase, key)
}

// CoverURL resolves a cover key, falling back to the default cover.
func (r *Resolver) CoverURL(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return r.defaultCover
	}
	if r.coverBase == "" {
		return key
	}
	return join(r.coverBase, key)
}

func join(base, key string) string {
	if isAbsolute(key) || base == "" {
		return key
	}
	if u, err := url.Parse(base); err == nil && u.Scheme != "" {
		joined, err := url.JoinPath(base, key)
		if err == nil {
			return joined
		}
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

func isAbsolute(key string) bool {
	if strings.HasPrefix(key, "/") {
		return true
	}
	u, err := url.Parse(key)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Verify that Resolver implements the URLResolver interface
var _ ports.URLResolver = (*Resolver)(nil)
