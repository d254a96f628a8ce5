// Package watch ties the listing, the cache, the frame-chain extractor and
// the player into the operations the CLI offers.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/browser"
	"github.com/stupside/pitchside/internal/cache"
	"github.com/stupside/pitchside/internal/catalog"
	"github.com/stupside/pitchside/internal/extract"
	"github.com/stupside/pitchside/internal/media"
	"github.com/stupside/pitchside/internal/player"
)

var (
	// ErrNoMatch means the listing had nothing for the request.
	ErrNoMatch = errors.New("no match found")
	// ErrNoStream means the player page loaded but exposed no stream.
	ErrNoStream = errors.New("no stream found")
	// ErrCacheWrite wraps a failure to persist a resolved match.
	ErrCacheWrite = errors.New("saving cache")
)

// Finder reads the listing.
type Finder interface {
	FetchCatalog(ctx context.Context) (catalog.Catalog, error)
	FetchMatch(ctx context.Context, query string) (*catalog.Match, error)
}

// Extractor turns a broadcast link into a stream URL.
type Extractor interface {
	Extract(ctx context.Context, href string) (string, bool, error)
}

// Service runs one operation at a time; it holds no browser state between
// calls.
type Service struct {
	finder    Finder
	extractor Extractor
	store     *cache.Store
	ttl       time.Duration
	player    player.Player
	headers   map[string]string
	now       func() time.Time
}

// Options carries the collaborators of a Service.
type Options struct {
	Finder    Finder
	Extractor Extractor
	Store     *cache.Store
	TTL       time.Duration
	Player    player.Player
	// Headers are attached to extracted streams.
	Headers map[string]string
}

func New(opts Options) *Service {
	return &Service{
		finder:    opts.Finder,
		extractor: opts.Extractor,
		store:     opts.Store,
		ttl:       opts.TTL,
		player:    opts.Player,
		headers:   opts.Headers,
		now:       time.Now,
	}
}

// FromConfig wires the production collaborators.
func FromConfig(cfg *app.Config) (*Service, error) {
	launcher, err := browser.New(cfg.Browser)
	if err != nil {
		return nil, err
	}

	p, err := player.New(cfg)
	if err != nil {
		return nil, err
	}

	return New(Options{
		Finder:    catalog.NewScraper(launcher, cfg.Source, cfg.Selectors),
		Extractor: extract.New(launcher, cfg.Source, cfg.Extract),
		Store:     cache.NewStore(cfg.Cache.Path),
		TTL:       cfg.Cache.TTL,
		Player:    p,
		Headers:   cfg.Player.Headers,
	}), nil
}

// Search resolves query through the cache, then the listing. A resolved
// match is cached under the query as typed. When only the cache write
// fails, the match is returned together with an error wrapping
// ErrCacheWrite.
func (s *Service) Search(ctx context.Context, query string) (*catalog.Match, error) {
	entries := s.store.Load(ctx)
	if m, ok := entries.Lookup(query, s.ttl, s.now()); ok {
		slog.DebugContext(ctx, "cache hit", "query", query)
		return &m, nil
	}

	slog.InfoContext(ctx, "searching listing", "query", query)
	m, err := s.finder.FetchMatch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w for %q", ErrNoMatch, query)
	}

	entries.Put(query, *m, s.now())
	if err := s.store.Save(ctx, entries); err != nil {
		return m, fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}
	return m, nil
}

// Catalog returns every match currently listed.
func (s *Service) Catalog(ctx context.Context) ([]catalog.Match, error) {
	c, err := s.finder.FetchCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	if len(c.Matches) == 0 {
		return nil, ErrNoMatch
	}
	return c.Matches, nil
}

// Stream follows link to its stream.
func (s *Service) Stream(ctx context.Context, link catalog.Link) (*media.Stream, error) {
	slog.InfoContext(ctx, "extracting stream", "feed", link.Name, "href", link.Href)

	raw, ok, err := s.extractor.Extract(ctx, link.Href)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", link.Href, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w behind %s", ErrNoStream, link.Href)
	}
	return media.NewStream(raw, s.headers)
}

// Play hands stream to the configured player and blocks until it finishes.
func (s *Service) Play(ctx context.Context, stream *media.Stream) error {
	return s.player.Play(ctx, stream)
}
