package browser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/pitchside/internal/app"
)

func TestNewProfileIsCoherent(t *testing.T) {
	for range 50 {
		p := NewProfile()

		require.Len(t, p.Brands, 3)
		major := p.Brands[1][1]
		assert.Contains(t, p.UserAgent, "Chrome/"+major+".")
		assert.Equal(t, p.Brands[2][1], major)

		switch p.Platform {
		case "Windows":
			assert.Contains(t, p.UserAgent, "Windows NT")
			assert.Equal(t, "Win32", p.NavigatorPlatform)
		case "macOS":
			assert.Contains(t, p.UserAgent, "Macintosh")
			assert.Equal(t, "MacIntel", p.NavigatorPlatform)
		case "Linux":
			assert.Contains(t, p.UserAgent, "Linux")
			assert.True(t, strings.HasPrefix(p.NavigatorPlatform, "Linux"))
		default:
			t.Fatalf("unexpected platform %q", p.Platform)
		}

		assert.True(t, strings.HasPrefix(p.AcceptLanguage, p.Locale))
		assert.Positive(t, p.ScreenWidth)
		assert.Positive(t, p.HardwareConcurrency)
	}
}

func TestRequestHeaders(t *testing.T) {
	cfg := app.BrowserConfig{Headers: map[string]string{
		"accept-language": "en-US,en;q=0.5",
		"referer":         "https://www.google.com/",
		"DNT":             "1",
		"user-agent":      "overridden",
	}}
	p := &Profile{UserAgent: "UA/1.0", AcceptLanguage: "fr-FR"}

	got := requestHeaders(cfg, p)

	assert.Equal(t, map[string]string{
		"Accept-Language": "en-US,en;q=0.5",
		"Referer":         "https://www.google.com/",
		"Dnt":             "1",
		"User-Agent":      "UA/1.0",
	}, got)
	assert.Equal(t, "en-US,en;q=0.5", acceptLanguage(cfg, p))
	assert.Equal(t, "fr-FR", acceptLanguage(app.BrowserConfig{}, p))
}

func TestClassify(t *testing.T) {
	err := classify("https://a.example/", "navigating to", time.Second, errTimedOut)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "https://a.example/", te.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = classify("https://a.example/", "navigating to", time.Second, context.DeadlineExceeded)
	require.ErrorAs(t, err, &te)

	boom := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err = classify("https://a.example/", "navigating to", time.Second, boom)
	var ne *NavigationError
	require.ErrorAs(t, err, &ne)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "https://a.example/")
}

func TestNewRejectsUnknownEngine(t *testing.T) {
	_, err := New(app.BrowserConfig{Engine: "webkit"})
	require.Error(t, err)

	l, err := New(app.BrowserConfig{Engine: "rod"})
	require.NoError(t, err)
	assert.IsType(t, &Rod{}, l)

	l, err = New(app.BrowserConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Chrome{}, l)
}

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestTracker(maxInflight int) (*idleTracker, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	tr := newIdleTracker(maxInflight)
	tr.now = clk.now
	tr.Reset()
	return tr, clk
}

func TestIdleTrackerAllowsConfiguredInflight(t *testing.T) {
	tr, clk := newTestTracker(2)

	tr.Listen(&network.EventRequestWillBeSent{RequestID: "a"})
	tr.Listen(&network.EventRequestWillBeSent{RequestID: "b"})
	clk.t = clk.t.Add(600 * time.Millisecond)
	assert.True(t, tr.Idle(500*time.Millisecond), "two long-lived requests still count as idle")

	tr.Listen(&network.EventRequestWillBeSent{RequestID: "c"})
	clk.t = clk.t.Add(time.Second)
	assert.False(t, tr.Idle(500*time.Millisecond))

	tr.Listen(&network.EventLoadingFinished{RequestID: "c"})
	assert.False(t, tr.Idle(500*time.Millisecond), "window restarts when load drops")
	clk.t = clk.t.Add(500 * time.Millisecond)
	assert.True(t, tr.Idle(500*time.Millisecond))
}

func TestIdleTrackerIgnoresUnknownFinish(t *testing.T) {
	tr, clk := newTestTracker(0)

	tr.Listen(&network.EventRequestWillBeSent{RequestID: "a"})
	tr.Listen(&network.EventLoadingFailed{RequestID: "zzz"})
	clk.t = clk.t.Add(time.Second)
	assert.False(t, tr.Idle(500*time.Millisecond))

	tr.Listen(&network.EventLoadingFailed{RequestID: "a"})
	clk.t = clk.t.Add(time.Second)
	assert.True(t, tr.Idle(500*time.Millisecond))
}

func TestIdleTrackerWaitHonorsContext(t *testing.T) {
	tr, _ := newTestTracker(0)
	tr.Listen(&network.EventRequestWillBeSent{RequestID: "a"})

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	err := tr.Wait(ctx, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIdleTrackerResetForgetsRequests(t *testing.T) {
	tr, clk := newTestTracker(0)
	tr.Listen(&network.EventRequestWillBeSent{RequestID: "a"})
	tr.Reset()
	clk.t = clk.t.Add(time.Second)
	assert.True(t, tr.Idle(500*time.Millisecond))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "unknown", sanitize("not a url"))
	assert.Equal(t, "a.example_x_y", sanitize("https://a.example/x/y"))
	assert.Equal(t, "a.example_8080_p", sanitize("http://a.example:8080/p"))
	assert.Len(t, sanitize("https://a.example/"+strings.Repeat("x", 200)), 80)
}
