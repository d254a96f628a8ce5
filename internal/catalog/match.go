// Package catalog scrapes the match listing and resolves queries against it.
package catalog

// Link is one broadcast feed of a match.
type Link struct {
	Name string `json:"name"`
	Href string `json:"link"`
}

// Match is one entry of the listing. DisplayName is never empty.
type Match struct {
	Category    string `json:"type"`
	DisplayName string `json:"teams"`
	Time        string `json:"time"`
	Links       []Link `json:"links"`

	// RawText is the visible text of the primary link, one line per block.
	RawText string `json:"-"`
}

// Catalog is the parsed listing. Skipped counts items that were missing the
// primary link or the time label.
type Catalog struct {
	Matches []Match
	Skipped int
}
