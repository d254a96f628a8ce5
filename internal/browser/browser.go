// Package browser opens isolated headless browser sessions with a consistent
// outbound identity and network-quiescence aware navigation.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stupside/pitchside/internal/app"
)

// Launcher starts a fresh browser for one operation.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is a single browser tab. Close releases the browser process and is
// safe to call more than once.
type Session interface {
	Navigate(ctx context.Context, rawURL string) (Page, error)
	Close() error
}

// Page is the document a Session has settled on after a navigation.
type Page interface {
	// URL is the document URL after redirects.
	URL() string
	// WaitFor blocks until an element matching selector exists.
	WaitFor(ctx context.Context, selector string) error
	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
	// Global reads a string global from the page's window object. Missing or
	// non-string values read as "".
	Global(ctx context.Context, name string) (string, error)
}

// Release closes s for use in a defer. Close failures are logged at debug
// level.
func Release(ctx context.Context, s Session) {
	if err := s.Close(); err != nil {
		slog.DebugContext(ctx, "closing browser session", "error", err)
	}
}

// NavigationError reports a failure to reach a page.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigating to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// TimeoutError reports a page that did not settle in time.
type TimeoutError struct {
	URL   string
	Stage string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%s %s: timed out after %s", e.Stage, e.URL, e.After)
	}
	return fmt.Sprintf("%s %s: timed out", e.Stage, e.URL)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// errTimedOut is returned by runWithin when its own timer fires.
var errTimedOut = errors.New("timed out")

// classify turns a raw engine error into a TimeoutError or NavigationError.
func classify(rawURL, stage string, after time.Duration, err error) error {
	if errors.Is(err, errTimedOut) || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: rawURL, Stage: stage, After: after}
	}
	return &NavigationError{URL: rawURL, Err: fmt.Errorf("%s: %w", stage, err)}
}

// New returns the Launcher for the configured engine.
func New(cfg app.BrowserConfig) (Launcher, error) {
	switch cfg.Engine {
	case "", "chromedp":
		return &Chrome{cfg: cfg}, nil
	case "rod":
		return &Rod{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", cfg.Engine)
	}
}

// requestHeaders merges the configured headers with the session identity.
func requestHeaders(cfg app.BrowserConfig, profile *Profile) map[string]string {
	h := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		h[http.CanonicalHeaderKey(k)] = v
	}
	h["User-Agent"] = profile.UserAgent
	return h
}

// acceptLanguage prefers the configured header over the profile's locale.
func acceptLanguage(cfg app.BrowserConfig, profile *Profile) string {
	for k, v := range cfg.Headers {
		if http.CanonicalHeaderKey(k) == "Accept-Language" {
			return v
		}
	}
	return profile.AcceptLanguage
}
