package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/browser/browsertest"
	"github.com/stupside/pitchside/internal/cache"
	"github.com/stupside/pitchside/internal/catalog"
	"github.com/stupside/pitchside/internal/extract"
	"github.com/stupside/pitchside/internal/media"
	"github.com/stupside/pitchside/internal/prompt"
	"github.com/stupside/pitchside/internal/watch"
)

const listingURL = "https://listing.example/"

func site() *browsertest.Site {
	return &browsertest.Site{Pages: map[string]*browsertest.Page{
		listingURL: {HTML: `<ul class="menu">
			<li class="FUT"><a href="#">Team A - Team B<span class="t">10:30pm</span></a>
				<ul><li><a href="/match1">Feed 1</a></li><li><a href="/match2">Feed 2</a></li></ul></li>
			<li class="BAL"><a href="#">NBA: Lakers vs Celtics<span class="t">11:00pm</span></a><ul></ul></li>
		</ul>`},
		listingURL + "match1":      {HTML: `<div><iframe src="/embed"></iframe></div>`},
		listingURL + "match2":      {HTML: `<div>offline</div>`},
		listingURL + "embed":       {HTML: `<body><iframe src="https://player.example/p"></iframe></body>`},
		"https://player.example/p": {Globals: map[string]string{"playbackURL": "https://cdn.example/video.m3u8"}},
	}}
}

type recorder struct{ played []*media.Stream }

func (r *recorder) Play(_ context.Context, s *media.Stream) error {
	r.played = append(r.played, s)
	return nil
}

type harness struct {
	dir    string
	config string
	player *recorder
	out    bytes.Buffer
}

func setup(t *testing.T) *harness {
	t.Helper()

	h := &harness{dir: t.TempDir(), player: &recorder{}}
	h.config = filepath.Join(h.dir, "config.yaml")
	require.NoError(t, os.WriteFile(h.config, []byte(`
source:
  url: `+listingURL+`
cache:
  path: `+filepath.Join(h.dir, "cache.json")+`
player:
  headers:
    Referer: https://player.example/
`), 0o644))

	s := site()
	prev := newService
	newService = func(cfg *app.Config) (*watch.Service, error) {
		return watch.New(watch.Options{
			Finder:    catalog.NewScraper(s, cfg.Source, cfg.Selectors),
			Extractor: extract.New(s, cfg.Source, cfg.Extract),
			Store:     cache.NewStore(cfg.Cache.Path),
			TTL:       cfg.Cache.TTL,
			Player:    h.player,
			Headers:   cfg.Player.Headers,
		}), nil
	}
	t.Cleanup(func() { newService = prev })

	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.out.Reset()
	root := Root()
	root.Writer = &h.out
	return root.Run(context.Background(), append([]string{"pitchside", "--config", h.config}, args...))
}

func TestSearchAndCache(t *testing.T) {
	h := setup(t)

	require.NoError(t, h.run(t, "search", "Team A - Team B"))
	assert.Contains(t, h.out.String(), "Team A - Team B - 10:30pm")
	assert.Contains(t, h.out.String(), "1. Feed 1")
	assert.Contains(t, h.out.String(), "2. Feed 2")

	require.NoError(t, h.run(t, "cache", "list"))
	assert.Contains(t, h.out.String(), `"Team A - Team B" -> Team A - Team B - 10:30pm`)
	assert.Contains(t, h.out.String(), "fresh")

	require.NoError(t, h.run(t, "cache", "clear"))
	assert.NoFileExists(t, filepath.Join(h.dir, "cache.json"))

	require.NoError(t, h.run(t, "cache", "list"))
	assert.Contains(t, h.out.String(), "cache is empty")
}

func TestSearchNoMatch(t *testing.T) {
	h := setup(t)
	err := h.run(t, "search", "Nobody vs Noone")
	assert.ErrorIs(t, err, watch.ErrNoMatch)
}

func TestList(t *testing.T) {
	h := setup(t)

	require.NoError(t, h.run(t, "list"))
	assert.Contains(t, h.out.String(), "Team A - Team B - 10:30pm")
	assert.Contains(t, h.out.String(), "NBA: Lakers vs Celtics - 11:00pm")
	assert.Contains(t, h.out.String(), "(2 links)")

	require.NoError(t, h.run(t, "list", "--json"))
	assert.Contains(t, h.out.String(), `"teams": "Team A - Team B - 10:30pm"`)
	assert.Contains(t, h.out.String(), `"link": "/match1"`)
}

func TestStream(t *testing.T) {
	h := setup(t)

	require.NoError(t, h.run(t, "stream", "--play", "Team A - Team B"))
	assert.Equal(t, "https://cdn.example/video.m3u8\n", h.out.String())
	require.Len(t, h.player.played, 1)
	assert.Equal(t, "https://player.example/", h.player.played[0].Headers["Referer"])
}

func TestStreamMissingFrame(t *testing.T) {
	h := setup(t)

	err := h.run(t, "stream", "--link", "2", "Team A - Team B")
	var fe *extract.FrameNotFoundError
	require.ErrorAs(t, err, &fe)
	assert.Empty(t, h.player.played)
}

func TestPlay(t *testing.T) {
	h := setup(t)

	require.NoError(t, h.run(t, "play", "https://cdn.example/direct.mp4"))
	require.Len(t, h.player.played, 1)
	assert.Equal(t, media.MP4, h.player.played[0].ContentType)
	assert.Contains(t, h.out.String(), "Streaming: https://cdn.example/direct.mp4")
}

func scripted(t *testing.T, choices []int, input string) {
	t.Helper()
	prevSelect, prevInput := selectPrompt, inputPrompt
	t.Cleanup(func() { selectPrompt, inputPrompt = prevSelect, prevInput })

	selectPrompt = func(_ context.Context, _ string, options []string) (int, error) {
		if len(choices) == 0 {
			return -1, prompt.ErrAborted
		}
		c := choices[0]
		choices = choices[1:]
		require.Less(t, c, len(options))
		return c, nil
	}
	inputPrompt = func(context.Context, string, string) (string, error) {
		return input, nil
	}
}

func TestWatchSelectMatch(t *testing.T) {
	h := setup(t)
	scripted(t, []int{1, 0, 0}, "")

	require.NoError(t, h.run(t, "watch"))
	require.Len(t, h.player.played, 1)
	assert.Equal(t, "https://cdn.example/video.m3u8", h.player.played[0].URL.String())
	assert.Contains(t, h.out.String(), "Streaming: https://cdn.example/video.m3u8")
}

func TestWatchEnterMatch(t *testing.T) {
	h := setup(t)
	scripted(t, []int{0, 0}, "Team A - Team B")

	require.NoError(t, h.run(t))
	require.Len(t, h.player.played, 1)
	assert.FileExists(t, filepath.Join(h.dir, "cache.json"))
}

func TestWatchNoMatch(t *testing.T) {
	h := setup(t)
	scripted(t, []int{0}, "Nobody vs Noone")

	require.NoError(t, h.run(t, "watch"))
	assert.Contains(t, h.out.String(), "No match found.")
	assert.Empty(t, h.player.played)
}

func TestWatchAborted(t *testing.T) {
	h := setup(t)
	scripted(t, []int{1}, "")

	require.NoError(t, h.run(t, "watch"))
	assert.Contains(t, h.out.String(), "until next time!")
	assert.Empty(t, h.player.played)
}

func TestWatchExit(t *testing.T) {
	h := setup(t)
	scripted(t, []int{2}, "")

	require.NoError(t, h.run(t, "watch"))
	assert.Empty(t, h.out.String())
}

func TestMissingConfigFile(t *testing.T) {
	root := Root()
	root.Writer = &bytes.Buffer{}
	err := root.Run(context.Background(), []string{"pitchside", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list"})
	assert.ErrorContains(t, err, "missing.yaml")
}
