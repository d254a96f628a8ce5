package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/stupside/pitchside/internal/app"
)

// globalJS reads window[name] as a string; anything else reads as "".
const globalJS = `(function(name) { const v = window[name]; return typeof v === 'string' ? v : ''; })(%s)`

// Chrome launches sessions driven by chromedp.
type Chrome struct {
	cfg app.BrowserConfig
}

var _ Launcher = (*Chrome)(nil)

// Launch starts a new browser process with its own allocator. The process
// lives until Close or until ctx is cancelled.
func (c *Chrome) Launch(ctx context.Context) (Session, error) {
	profile := NewProfile()
	slog.DebugContext(ctx, "browser profile generated",
		"engine", "chromedp",
		"ua", profile.UserAgent,
		"platform", profile.Platform,
		"timezone", profile.TimezoneID,
		"screen", fmt.Sprintf("%dx%d", profile.ScreenWidth, profile.ScreenHeight),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOpts(c.cfg, profile)...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	idle := newIdleTracker(c.cfg.IdleConnections)
	chromedp.ListenTarget(taskCtx, idle.Listen)

	s := &chromeSession{
		cfg:         c.cfg,
		ctx:         taskCtx,
		cancel:      taskCancel,
		allocCancel: allocCancel,
		idle:        idle,
	}

	err := s.run(ctx, c.cfg.NavigateTimeout,
		runtime.Enable(),
		network.Enable(),
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorDeny),
		injectIdentity(c.cfg, profile),
	)
	if err != nil {
		s.Close()
		return nil, classify("about:blank", "starting browser", c.cfg.NavigateTimeout, err)
	}

	return s, nil
}

// chromeSession owns the chromedp lifecycle for one operation.
type chromeSession struct {
	cfg         app.BrowserConfig
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	idle        *idleTracker
	closeOnce   sync.Once
}

// run executes actions on the task context, bounded by timeout and by ctx.
// Deadlines are enforced from the outside: cancelling a child of the chromedp
// task context breaks the target in chromedp v0.14.
func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(s.ctx, actions...)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return errTimedOut
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *chromeSession) Navigate(ctx context.Context, rawURL string) (Page, error) {
	slog.DebugContext(ctx, "navigating", "url", rawURL)

	s.idle.Reset()
	if err := s.run(ctx, s.cfg.NavigateTimeout, chromedp.Navigate(rawURL)); err != nil {
		return nil, classify(rawURL, "navigating to", s.cfg.NavigateTimeout, err)
	}

	idleCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigateTimeout)
	defer cancel()
	if err := s.idle.Wait(idleCtx, s.cfg.IdleWindow); err != nil {
		return nil, classify(rawURL, "waiting for network idle on", s.cfg.NavigateTimeout, err)
	}

	var location string
	if err := s.run(ctx, s.cfg.NavigateTimeout, chromedp.Location(&location)); err != nil {
		return nil, classify(rawURL, "reading location of", s.cfg.NavigateTimeout, err)
	}

	p := &chromePage{session: s, url: location}
	if debugEnabled(ctx) {
		p.snapshot(ctx, "after_nav")
	}
	return p, nil
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.allocCancel()
	})
	return nil
}

type chromePage struct {
	session *chromeSession
	url     string
}

func (p *chromePage) URL() string { return p.url }

func (p *chromePage) WaitFor(ctx context.Context, selector string) error {
	timeout := p.session.cfg.NavigateTimeout
	if err := p.session.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return classify(p.url, fmt.Sprintf("waiting for %q on", selector), timeout, err)
	}
	return nil
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	timeout := p.session.cfg.NavigateTimeout
	if err := p.session.run(ctx, timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", classify(p.url, "reading html of", timeout, err)
	}
	return html, nil
}

func (p *chromePage) Global(ctx context.Context, name string) (string, error) {
	var v string
	timeout := p.session.cfg.NavigateTimeout
	if err := p.session.run(ctx, timeout, chromedp.Evaluate(fmt.Sprintf(globalJS, strconv.Quote(name)), &v)); err != nil {
		return "", classify(p.url, "reading window."+name+" on", timeout, err)
	}
	return v, nil
}

func (p *chromePage) snapshot(ctx context.Context, label string) {
	var (
		png  []byte
		html string
	)
	if err := p.session.run(ctx, p.session.cfg.NavigateTimeout,
		chromedp.FullScreenshot(&png, 90),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		slog.DebugContext(ctx, "snapshot: capture failed", "label", label, "error", err)
	}
	saveSnapshot(ctx, p.url, label, png, html)
}
