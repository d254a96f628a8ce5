// Package browsertest provides an in-memory browser.Launcher for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/stupside/pitchside/internal/browser"
)

// Page is a canned document served by a Site.
type Page struct {
	HTML    string
	Globals map[string]string
	// Location is reported as the URL after navigation. Empty means the
	// requested URL.
	Location string
	// Err is returned as is from Navigate.
	Err error
}

// Site serves Pages keyed by URL and records how it was used.
type Site struct {
	Pages     map[string]*Page
	LaunchErr error

	mu       sync.Mutex
	visited  []string
	launches int
	closes   int
}

var _ browser.Launcher = (*Site)(nil)

func (s *Site) Launch(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.LaunchErr != nil {
		return nil, s.LaunchErr
	}
	s.mu.Lock()
	s.launches++
	s.mu.Unlock()
	return &session{site: s}, nil
}

// Visited returns every URL passed to Navigate, in order.
func (s *Site) Visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visited...)
}

// Launches reports how many sessions were started.
func (s *Site) Launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches
}

// Open reports sessions launched but not yet closed.
func (s *Site) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches - s.closes
}

type session struct {
	site *Site
	once sync.Once

	mu     sync.Mutex
	closed bool
}

func (s *session) Navigate(ctx context.Context, rawURL string) (browser.Page, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, &browser.NavigationError{URL: rawURL, Err: errors.New("session closed")}
	}

	s.site.mu.Lock()
	s.site.visited = append(s.site.visited, rawURL)
	p, ok := s.site.Pages[rawURL]
	s.site.mu.Unlock()

	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &browser.TimeoutError{URL: rawURL, Stage: "navigating to"}
		}
		return nil, &browser.NavigationError{URL: rawURL, Err: err}
	}
	if !ok {
		return nil, &browser.NavigationError{URL: rawURL, Err: errors.New("404 not found")}
	}
	if p.Err != nil {
		return nil, p.Err
	}

	loc := p.Location
	if loc == "" {
		loc = rawURL
	}
	return &page{url: loc, src: p}, nil
}

func (s *session) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.site.mu.Lock()
		s.site.closes++
		s.site.mu.Unlock()
	})
	return nil
}

type page struct {
	url string
	src *Page
}

func (p *page) URL() string { return p.url }

func (p *page) WaitFor(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.src.HTML))
	if err != nil {
		return &browser.NavigationError{URL: p.url, Err: err}
	}
	if doc.Find(selector).Length() == 0 {
		return &browser.TimeoutError{URL: p.url, Stage: fmt.Sprintf("waiting for %q on", selector)}
	}
	return nil
}

func (p *page) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.src.HTML, nil
}

func (p *page) Global(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.src.Globals[name], nil
}
