package catalog

import (
	"regexp"
	"strings"
)

var (
	timeSuffix = regexp.MustCompile(`(?i)(?:^|\s)\d{1,2}:\d{2}\s?(?:am|pm)?$`)
	// A label colon is followed by whitespace or a non-digit, so "3:1" or
	// "20:45" are never taken for one. The last such colon wins.
	labelPrefix = regexp.MustCompile(`(?s)^.*:(?:\s+|([^\d\s:]))`)
)

// Normalize reduces the visible text of a listing item to the form users type:
// trailing times and a leading "Competition:" label are removed. With several
// labels, everything up to the last one goes, which keeps Normalize
// idempotent.
func Normalize(text string) string {
	s := strings.TrimSpace(text)
	for {
		next := timeSuffix.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	s = strings.TrimSpace(s)
	s = labelPrefix.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// displayName collapses the first line break of raw into " - ".
func displayName(raw string) string {
	return strings.Replace(raw, "\n", " - ", 1)
}
