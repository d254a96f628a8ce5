// Package resolve settles a stream's content type and, for HLS, picks the
// highest bandwidth rendition before it is handed to a cast device.
package resolve

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/media"
)

type Resolver struct {
	cfg    app.ResolverConfig
	client *http.Client
}

func New(cfg app.ResolverConfig) *Resolver {
	return &Resolver{cfg: cfg, client: http.DefaultClient}
}

// Resolve probes the stream when its type is unknown and narrows HLS master
// playlists to their best variant. Variant lookup failures keep the
// original URL.
func (r *Resolver) Resolve(ctx context.Context, stream *media.Stream) (*media.Stream, error) {
	ct := stream.ContentType
	if ct == "" {
		p, err := r.Probe(ctx, stream)
		if err != nil {
			return nil, fmt.Errorf("probing stream: %w", err)
		}
		ct = p.ContentType
	}

	if ct != media.HLS {
		return stream.With(stream.URL, ct), nil
	}

	variants, err := r.Variants(ctx, stream)
	if err != nil {
		slog.WarnContext(ctx, "hls variant lookup failed, using playlist as is", "error", err)
		return stream.With(stream.URL, ct), nil
	}

	best := slices.MaxFunc(variants, func(a, b Variant) int {
		return cmp.Compare(a.Bandwidth, b.Bandwidth)
	})
	slog.DebugContext(ctx, "hls variant selected", "url", best.URL.String(), "bandwidth", best.Bandwidth, "variants", len(variants))

	return stream.With(best.URL, ct), nil
}
