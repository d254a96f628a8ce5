package catalog

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/stupside/pitchside/internal/app"
)

// blockTags start a new line in rendered text.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true,
}

// Parse reads a listing document. Items without the primary link or the time
// label are skipped and counted; an empty listing is not an error.
func Parse(r io.Reader, sel app.SelectorConfig) (Catalog, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Catalog{}, fmt.Errorf("parsing listing: %w", err)
	}

	var c Catalog
	doc.Find(sel.Item).Each(func(_ int, item *goquery.Selection) {
		m, ok := parseItem(item, sel)
		if !ok {
			c.Skipped++
			return
		}
		c.Matches = append(c.Matches, m)
	})
	return c, nil
}

func parseItem(item *goquery.Selection, sel app.SelectorConfig) (Match, bool) {
	title := item.Find(sel.Title).First()
	if title.Length() == 0 {
		return Match{}, false
	}
	label := item.Find(sel.Time).First()
	if label.Length() == 0 {
		return Match{}, false
	}

	raw := renderText(title, label)
	if raw == "" {
		return Match{}, false
	}

	m := Match{
		Category:    strings.TrimSpace(item.AttrOr("class", "")),
		DisplayName: displayName(raw),
		Time:        renderText(label, nil),
		Links:       []Link{},
		RawText:     raw,
	}

	primary := title.Get(0)
	item.Find(sel.Links).Each(func(_ int, a *goquery.Selection) {
		if a.Get(0) == primary {
			return
		}
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		m.Links = append(m.Links, Link{Name: renderText(a, nil), Href: href})
	})

	return m, true
}

// renderText approximates the visible text of s: runs of whitespace collapse
// to one space, <br> and block elements break lines, and so does brk when it
// is a descendant. Lines are trimmed and empty lines dropped.
func renderText(s *goquery.Selection, brk *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch {
			case name == "#text":
				b.WriteString(strings.Map(collapse, c.Text()))
			case name == "br":
				b.WriteByte('\n')
			case name == "script" || name == "style" || name == "#comment":
			case blockTags[name] || (brk != nil && c.IsSelection(brk)):
				b.WriteByte('\n')
				walk(c)
				b.WriteByte('\n')
			default:
				walk(c)
			}
		})
	}
	walk(s)

	var lines []string
	for _, l := range strings.Split(b.String(), "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func collapse(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}
