// Package extract follows the iframe chain behind a broadcast link down to
// the stream URL the final player page exposes.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/browser"
)

// FrameNotFoundError reports a hop whose page had no matching frame.
type FrameNotFoundError struct {
	Hop string
	URL string
	// Err is set when the page never produced any frame in time.
	Err error
}

func (e *FrameNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame not found at hop %q on %s: %v", e.Hop, e.URL, e.Err)
	}
	return fmt.Sprintf("frame not found at hop %q on %s", e.Hop, e.URL)
}

func (e *FrameNotFoundError) Unwrap() error { return e.Err }

// Hop is one descent: open a page and return the src of the frame matching
// Frame, resolved against the page URL.
type Hop struct {
	Name    string
	WaitFor string
	Frame   string
	Timeout time.Duration
}

// Run navigates session to rawURL and returns the next URL of the chain.
func (h Hop) Run(ctx context.Context, session browser.Session, rawURL string) (string, error) {
	ctx, cancel := withTimeout(ctx, h.Timeout)
	defer cancel()

	slog.DebugContext(ctx, "descending", "hop", h.Name, "url", rawURL)

	page, err := session.Navigate(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if h.WaitFor != "" {
		if err := page.WaitFor(ctx, h.WaitFor); err != nil {
			var te *browser.TimeoutError
			if errors.As(err, &te) {
				return "", &FrameNotFoundError{Hop: h.Name, URL: page.URL(), Err: err}
			}
			return "", err
		}
	}

	doc, err := page.HTML(ctx)
	if err != nil {
		return "", err
	}

	src, ok := frameSource(doc, h.Frame)
	if !ok {
		return "", &FrameNotFoundError{Hop: h.Name, URL: page.URL()}
	}

	next, err := resolve(page.URL(), src)
	if err != nil {
		return "", fmt.Errorf("hop %q: %w", h.Name, err)
	}
	return next, nil
}

// Extractor runs the configured hops in one browser session and reads the
// stream URL from the last page.
type Extractor struct {
	launcher browser.Launcher
	base     string
	hops     []Hop
	variable string
	timeout  time.Duration
}

func New(launcher browser.Launcher, source app.SourceConfig, cfg app.ExtractConfig) *Extractor {
	hops := make([]Hop, len(cfg.Hops))
	for i, h := range cfg.Hops {
		hops[i] = Hop{
			Name:    h.Name,
			WaitFor: cfg.WaitFor,
			Frame:   h.Frame,
			Timeout: cfg.HopTimeout,
		}
	}
	return &Extractor{
		launcher: launcher,
		base:     source.URL,
		hops:     hops,
		variable: cfg.Variable,
		timeout:  cfg.HopTimeout,
	}
}

// Extract returns the stream URL behind href. A final page that does not set
// the stream variable yields "", false and no error.
func (e *Extractor) Extract(ctx context.Context, href string) (string, bool, error) {
	target, err := resolve(e.base, href)
	if err != nil {
		return "", false, err
	}

	session, err := e.launcher.Launch(ctx)
	if err != nil {
		return "", false, err
	}
	defer browser.Release(ctx, session)

	for _, h := range e.hops {
		target, err = h.Run(ctx, session, target)
		if err != nil {
			return "", false, err
		}
	}

	stream, err := e.final(ctx, session, target)
	if err != nil {
		return "", false, err
	}
	if stream == "" {
		slog.InfoContext(ctx, "player page did not expose a stream", "url", target, "variable", e.variable)
		return "", false, nil
	}

	slog.DebugContext(ctx, "stream extracted", "url", stream)
	return stream, true, nil
}

func (e *Extractor) final(ctx context.Context, session browser.Session, rawURL string) (string, error) {
	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	slog.DebugContext(ctx, "reading stream variable", "url", rawURL, "variable", e.variable)

	page, err := session.Navigate(ctx, rawURL)
	if err != nil {
		return "", err
	}

	v, err := page.Global(ctx, e.variable)
	if err != nil {
		return "", err
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	// Relative values are taken against the final page; absolute ones are kept as written.
	return resolve(page.URL(), v)
}

func frameSource(doc, selector string) (string, bool) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return "", false
	}
	src := strings.TrimSpace(d.Find(selector).First().AttrOr("src", ""))
	return src, src != ""
}

func resolve(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", ref, err)
	}
	if r.IsAbs() {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base %q: %w", base, err)
	}
	return b.ResolveReference(r).String(), nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
