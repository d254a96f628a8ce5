// Package media describes streams handed to players and the container
// formats pitchside knows how to name.
package media

import (
	"fmt"
	"maps"
	"net/url"
	"path"
	"slices"
	"strings"
)

const (
	MP4    = "video/mp4"
	MKV    = "video/x-matroska"
	WebM   = "video/webm"
	MPEGTS = "video/mp2t"
	HLS    = "application/x-mpegURL"
)

// Stream is a playable URL and the request headers its origin expects.
// ContentType is empty until detected or probed.
type Stream struct {
	URL         *url.URL
	Headers     map[string]string
	ContentType string
}

// NewStream parses rawURL and guesses the content type from its extension.
func NewStream(rawURL string, headers map[string]string) (*Stream, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing stream URL %q: %w", rawURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("stream URL %q is not absolute", rawURL)
	}
	return &Stream{
		URL:         u,
		Headers:     maps.Clone(headers),
		ContentType: DetectFromExtension(u),
	}, nil
}

// With returns a copy of s pointing at u with content type ct.
func (s *Stream) With(u *url.URL, ct string) *Stream {
	return &Stream{URL: u, Headers: s.Headers, ContentType: ct}
}

// Format is an ffmpeg output container.
type Format struct {
	Name        string
	ContentType string
	Extension   string
}

var formats = []Format{
	{Name: "mpegts", ContentType: MPEGTS, Extension: ".ts"},
	{Name: "mp4", ContentType: MP4, Extension: ".mp4"},
	{Name: "matroska", ContentType: MKV, Extension: ".mkv"},
	{Name: "webm", ContentType: WebM, Extension: ".webm"},
}

// LookupFormat returns the container named by an ffmpeg -f value.
func LookupFormat(name string) (Format, bool) {
	for _, f := range formats {
		if f.Name == name {
			return f, true
		}
	}
	return Format{}, false
}

// DetectFromExtension guesses a content type from the URL path, or "".
func DetectFromExtension(u *url.URL) string {
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".m3u8", ".m3u":
		return HLS
	case ".ts":
		return MPEGTS
	case ".mp4", ".m4v":
		return MP4
	case ".mkv":
		return MKV
	case ".webm":
		return WebM
	}
	return ""
}

// DetectFromMIME maps a response Content-Type to a known content type, or "".
func DetectFromMIME(mime string) string {
	mime, _, _ = strings.Cut(mime, ";")
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "application/vnd.apple.mpegurl", "application/x-mpegurl", "audio/mpegurl", "audio/x-mpegurl":
		return HLS
	case "video/mp2t":
		return MPEGTS
	case "video/mp4":
		return MP4
	case "video/x-matroska":
		return MKV
	case "video/webm":
		return WebM
	}
	return ""
}

// FromProbeFormat maps an ffprobe format_name list to a content type.
func FromProbeFormat(format string) (string, error) {
	for f := range strings.SplitSeq(format, ",") {
		switch strings.TrimSpace(f) {
		case "hls", "applehttp":
			return HLS, nil
		case "mpegts":
			return MPEGTS, nil
		case "mp4", "mov":
			return MP4, nil
		case "matroska":
			return MKV, nil
		case "webm":
			return WebM, nil
		}
	}
	return "", fmt.Errorf("unknown format: %s", format)
}

// HeaderBlock renders headers as the CRLF-terminated block ffmpeg and
// ffprobe take in -headers.
func HeaderBlock(headers map[string]string) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(headers)) {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	return b.String()
}

// HeaderFields renders headers as "Key: Value" strings.
func HeaderFields(headers map[string]string) []string {
	fields := make([]string, 0, len(headers))
	for _, k := range slices.Sorted(maps.Keys(headers)) {
		fields = append(fields, k+": "+headers[k])
	}
	return fields
}
