package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/grafov/m3u8"

	"github.com/stupside/pitchside/internal/media"
)

// Variant is one rendition of an HLS master playlist.
type Variant struct {
	URL        *url.URL
	Bandwidth  int64
	Resolution string
	Codecs     string
}

// Variants fetches the playlist behind stream. A media playlist yields a
// single variant pointing at the stream itself.
func (r *Resolver) Variants(ctx context.Context, stream *media.Stream) ([]Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.HLSTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, stream.URL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range stream.Headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching playlist: HTTP %d", resp.StatusCode)
	}

	playlist, kind, err := m3u8.DecodeFrom(resp.Body, false)
	if err != nil {
		return nil, fmt.Errorf("decoding playlist: %w", err)
	}

	if kind != m3u8.MASTER {
		return []Variant{{URL: stream.URL}}, nil
	}

	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok {
		return nil, fmt.Errorf("decoding playlist: unexpected type %T", playlist)
	}

	var variants []Variant
	for _, v := range master.Variants {
		if v == nil || v.URI == "" {
			continue
		}
		u, err := stream.URL.Parse(v.URI)
		if err != nil {
			continue
		}
		variants = append(variants, Variant{
			URL:        u,
			Bandwidth:  int64(v.Bandwidth),
			Resolution: v.Resolution,
			Codecs:     v.Codecs,
		})
	}

	if len(variants) == 0 {
		return []Variant{{URL: stream.URL}}, nil
	}
	return variants, nil
}
