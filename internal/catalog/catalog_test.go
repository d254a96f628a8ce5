package catalog

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/browser"
	"github.com/stupside/pitchside/internal/browser/browsertest"
)

const baseURL = "https://listing.example/"

var selectors = app.SelectorConfig{
	Item:  ".menu > li",
	Title: "a",
	Time:  "a > .t",
	Links: "li a",
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(b)
}

func TestParseListing(t *testing.T) {
	c, err := Parse(strings.NewReader(readFixture(t, "listing.html")), selectors)
	require.NoError(t, err)

	want := Catalog{
		Skipped: 2,
		Matches: []Match{
			{
				Category:    "FUT",
				DisplayName: "Premier League: Arsenal vs Chelsea - 8:00pm",
				Time:        "8:00pm",
				RawText:     "Premier League: Arsenal vs Chelsea\n8:00pm",
				Links: []Link{
					{Name: "Sky Sports HD", Href: "/en-vivo/arsenal-chelsea-1.php"},
					{Name: "ESPN", Href: "https://mirror.example/embed/2"},
				},
			},
			{
				Category:    "BAL",
				DisplayName: "NBA: Lakers vs Celtics - 10:30 PM",
				Time:        "10:30 PM",
				RawText:     "NBA: Lakers vs Celtics\n10:30 PM",
				Links:       []Link{},
			},
			{
				Category:    "FUT",
				DisplayName: "La Liga: Betis vs Sevilla - 9:15pm",
				Time:        "9:15pm",
				RawText:     "La Liga: Betis vs Sevilla\n9:15pm",
				Links: []Link{
					{Name: "Feed", Href: "/a"},
					{Name: "Feed", Href: "/a"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}

	for _, m := range c.Matches {
		assert.NotEmpty(t, m.DisplayName)
		assert.NotNil(t, m.Links)
	}
}

func TestParseEmptyListing(t *testing.T) {
	c, err := Parse(strings.NewReader(`<html><body><ul class="menu"></ul></body></html>`), selectors)
	require.NoError(t, err)
	assert.Empty(t, c.Matches)
	assert.Zero(t, c.Skipped)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Premier League: Arsenal vs Chelsea\n8:00pm", "Arsenal vs Chelsea"},
		{"Team A - Team B\n10:30pm", "Team A - Team B"},
		{"NBA: Lakers vs Celtics\n10:30 PM", "Lakers vs Celtics"},
		{"  Sinner vs Alcaraz  ", "Sinner vs Alcaraz"},
		{"Copa: Final: River vs Boca 21:00", "River vs Boca"},
		{"Kickoff 1:00 2:00am", "Kickoff"},
		{"Ratio 3:1", "Ratio 3:1"},
		{"league:\n", "league:"},
		{"UEFA: Real vs City: Leg 2\n9:00pm", "Leg 2"},
		{"NBA:Lakers vs Celtics\n10:30pm", "Lakers vs Celtics"},
		{"Arsenal vs Chelsea 1-0 2024:30", "Arsenal vs Chelsea 1-0 2024:30"},
		{"Derby 12:30pm", "Derby"},
		{"Cup:Semi 20:45", "Semi"},
		{"Score 2:10", "Score"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize is idempotent")
		})
	}
}

func TestNormalizeIdempotentOnFixture(t *testing.T) {
	c, err := Parse(strings.NewReader(readFixture(t, "listing.html")), selectors)
	require.NoError(t, err)
	for _, m := range c.Matches {
		once := Normalize(m.RawText)
		assert.Equal(t, once, Normalize(once))
		assert.Equal(t, Normalize(m.DisplayName), Normalize(Normalize(m.DisplayName)))
	}
}

func newScraper(site *browsertest.Site) *Scraper {
	return NewScraper(site, app.SourceConfig{URL: baseURL}, selectors)
}

func TestFetchMatchEndToEnd(t *testing.T) {
	site := &browsertest.Site{Pages: map[string]*browsertest.Page{
		baseURL: {HTML: `<ul class="menu">
			<li class="FUT"><a href="#">Team A - Team B<span class="t">10:30pm</span></a>
				<ul><li><a href="/match1">Feed 1</a></li></ul>
			</li>
		</ul>`},
	}}

	m, err := newScraper(site).FetchMatch(context.Background(), "Team A - Team B")
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "10:30pm", m.Time)
	assert.Equal(t, []Link{{Name: "Feed 1", Href: "/match1"}}, m.Links)
	assert.Equal(t, "Team A - Team B", Normalize(m.RawText))
	assert.Equal(t, []string{baseURL}, site.Visited())
	assert.Zero(t, site.Open(), "session closed")
}

func TestFetchMatchComparesQueryVerbatim(t *testing.T) {
	site := &browsertest.Site{Pages: map[string]*browsertest.Page{
		baseURL: {HTML: readFixture(t, "listing.html")},
	}}
	s := newScraper(site)

	m, err := s.FetchMatch(context.Background(), "Lakers vs Celtics")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "BAL", m.Category)

	m, err = s.FetchMatch(context.Background(), " lakers vs celtics")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = s.FetchMatch(context.Background(), "Sinner vs Alcaraz")
	require.NoError(t, err)
	assert.Nil(t, m, "skipped items never match")

	assert.Equal(t, 3, site.Launches())
	assert.Zero(t, site.Open())
}

func TestFetchCatalogNavigationError(t *testing.T) {
	site := &browsertest.Site{Pages: map[string]*browsertest.Page{}}

	_, err := newScraper(site).FetchCatalog(context.Background())

	var ne *browser.NavigationError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, baseURL, ne.URL)
	assert.Zero(t, site.Open(), "session closed on failure")
}

func TestFetchCatalogTimeout(t *testing.T) {
	site := &browsertest.Site{Pages: map[string]*browsertest.Page{
		baseURL: {Err: &browser.TimeoutError{URL: baseURL, Stage: "navigating to"}},
	}}

	_, err := newScraper(site).FetchCatalog(context.Background())

	var te *browser.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, site.Open())
}

func TestFetchCatalogSkipsMalformed(t *testing.T) {
	site := &browsertest.Site{Pages: map[string]*browsertest.Page{
		baseURL: {HTML: readFixture(t, "listing.html")},
	}}

	c, err := newScraper(site).FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Skipped)

	names := make([]string, len(c.Matches))
	for i, m := range c.Matches {
		names[i] = Normalize(m.RawText)
	}
	assert.Empty(t, cmp.Diff(
		[]string{"Arsenal vs Chelsea", "Lakers vs Celtics", "Betis vs Sevilla"},
		names,
		cmpopts.EquateEmpty(),
	))
}
