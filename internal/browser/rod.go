package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/stupside/pitchside/internal/app"
)

// globalFn is the rod form of globalJS.
const globalFn = `(name) => { const v = window[name]; return typeof v === 'string' ? v : ''; }`

// Rod launches sessions driven by go-rod with the stealth page preset.
// Quiescence here means zero in-flight requests for the idle window;
// browser.idle_connections only applies to the chromedp engine.
type Rod struct {
	cfg app.BrowserConfig
}

var _ Launcher = (*Rod)(nil)

func (r *Rod) Launch(ctx context.Context) (Session, error) {
	profile := NewProfile()
	slog.DebugContext(ctx, "browser profile generated",
		"engine", "rod",
		"ua", profile.UserAgent,
		"platform", profile.Platform,
		"screen", fmt.Sprintf("%dx%d", profile.ScreenWidth, profile.ScreenHeight),
	)

	l := launcher.New().
		Context(ctx).
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox).
		Set("disable-blink-features", "AutomationControlled").
		Set("mute-audio").
		Set("window-size", fmt.Sprintf("%d,%d", profile.ScreenWidth, profile.ScreenHeight)).
		Set("user-agent", profile.UserAgent)
	if r.cfg.ChromePath != "" {
		l = l.Bin(r.cfg.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, classify("about:blank", "starting browser", 0, err)
	}

	s := &rodSession{
		cfg:      r.cfg,
		launcher: l,
		browser:  rod.New().ControlURL(controlURL).Context(ctx),
	}

	if err := s.browser.Connect(); err != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
		return nil, classify("about:blank", "connecting to browser", 0, err)
	}

	page, err := stealth.Page(s.browser)
	if err != nil {
		s.Close()
		return nil, classify("about:blank", "opening page", 0, err)
	}
	s.page = page

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      profile.UserAgent,
		AcceptLanguage: acceptLanguage(r.cfg, profile),
		Platform:       profile.NavigatorPlatform,
	}); err != nil {
		s.Close()
		return nil, classify("about:blank", "setting user agent", 0, err)
	}

	headers := requestHeaders(r.cfg, profile)
	dict := make([]string, 0, 2*len(headers))
	for k, v := range headers {
		dict = append(dict, k, v)
	}
	if _, err := page.SetExtraHeaders(dict); err != nil {
		s.Close()
		return nil, classify("about:blank", "setting headers", 0, err)
	}

	return s, nil
}

type rodSession struct {
	cfg       app.BrowserConfig
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) Navigate(ctx context.Context, rawURL string) (Page, error) {
	slog.DebugContext(ctx, "navigating", "url", rawURL)

	p := s.page.Context(ctx).Timeout(s.cfg.NavigateTimeout)
	defer p.CancelTimeout()

	wait := p.WaitRequestIdle(s.cfg.IdleWindow, nil, nil, nil)
	if err := p.Navigate(rawURL); err != nil {
		return nil, classify(rawURL, "navigating to", s.cfg.NavigateTimeout, err)
	}
	wait()
	if err := p.GetContext().Err(); err != nil {
		return nil, classify(rawURL, "waiting for network idle on", s.cfg.NavigateTimeout, err)
	}

	info, err := p.Info()
	if err != nil {
		return nil, classify(rawURL, "reading location of", s.cfg.NavigateTimeout, err)
	}

	rp := &rodPage{session: s, url: info.URL}
	if debugEnabled(ctx) {
		rp.snapshot(ctx, "after_nav")
	}
	return rp, nil
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.browser != nil {
			errs = append(errs, s.browser.Close())
		}
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

type rodPage struct {
	session *rodSession
	url     string
}

func (p *rodPage) URL() string { return p.url }

// scoped returns the session page bound to ctx and the navigation timeout.
func (p *rodPage) scoped(ctx context.Context) *rod.Page {
	return p.session.page.Context(ctx).Timeout(p.session.cfg.NavigateTimeout)
}

func (p *rodPage) WaitFor(ctx context.Context, selector string) error {
	page := p.scoped(ctx)
	defer page.CancelTimeout()
	if _, err := page.Element(selector); err != nil {
		return classify(p.url, fmt.Sprintf("waiting for %q on", selector), p.session.cfg.NavigateTimeout, err)
	}
	return nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	page := p.scoped(ctx)
	defer page.CancelTimeout()
	html, err := page.HTML()
	if err != nil {
		return "", classify(p.url, "reading html of", p.session.cfg.NavigateTimeout, err)
	}
	return html, nil
}

func (p *rodPage) Global(ctx context.Context, name string) (string, error) {
	page := p.scoped(ctx)
	defer page.CancelTimeout()
	res, err := page.Eval(globalFn, name)
	if err != nil {
		return "", classify(p.url, "reading window."+name+" on", p.session.cfg.NavigateTimeout, err)
	}
	return res.Value.Str(), nil
}

func (p *rodPage) snapshot(ctx context.Context, label string) {
	page := p.scoped(ctx)
	defer page.CancelTimeout()

	png, err := page.Screenshot(true, nil)
	if err != nil {
		slog.DebugContext(ctx, "snapshot: screenshot failed", "label", label, "error", err)
	}
	html, err := page.HTML()
	if err != nil {
		slog.DebugContext(ctx, "snapshot: html failed", "label", label, "error", err)
	}
	saveSnapshot(ctx, p.url, label, png, html)
}
