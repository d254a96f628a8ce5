package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/browser"
)

// Scraper reads the listing page through a fresh browser session per call.
type Scraper struct {
	launcher  browser.Launcher
	source    app.SourceConfig
	selectors app.SelectorConfig
}

func NewScraper(launcher browser.Launcher, source app.SourceConfig, selectors app.SelectorConfig) *Scraper {
	return &Scraper{
		launcher:  launcher,
		source:    source,
		selectors: selectors,
	}
}

// FetchCatalog returns every well-formed item of the listing.
func (s *Scraper) FetchCatalog(ctx context.Context) (Catalog, error) {
	doc, err := s.listing(ctx)
	if err != nil {
		return Catalog{}, err
	}

	c, err := Parse(strings.NewReader(doc), s.selectors)
	if err != nil {
		return Catalog{}, err
	}

	if c.Skipped > 0 {
		slog.WarnContext(ctx, "skipped malformed listing items", "skipped", c.Skipped)
	}
	slog.DebugContext(ctx, "catalog fetched", "matches", len(c.Matches), "skipped", c.Skipped)

	return c, nil
}

// FetchMatch returns the first item whose normalized text equals query, or
// nil when there is none. The query is compared as given.
func (s *Scraper) FetchMatch(ctx context.Context, query string) (*Match, error) {
	c, err := s.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	for i := range c.Matches {
		if Normalize(c.Matches[i].RawText) == query {
			return &c.Matches[i], nil
		}
	}

	slog.DebugContext(ctx, "no listing item matches query", "query", query, "scanned", len(c.Matches))
	return nil, nil
}

func (s *Scraper) listing(ctx context.Context) (string, error) {
	session, err := s.launcher.Launch(ctx)
	if err != nil {
		return "", err
	}
	defer browser.Release(ctx, session)

	page, err := session.Navigate(ctx, s.source.URL)
	if err != nil {
		return "", err
	}

	return page.HTML(ctx)
}
