// Package player hands resolved streams to something that can show them.
package player

import (
	"context"
	"fmt"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/media"
)

// Player plays a stream and returns when playback ends. Cancelling ctx
// stops playback and is not an error.
type Player interface {
	Play(ctx context.Context, stream *media.Stream) error
}

// New returns the player selected by cfg.Player.Kind.
func New(cfg *app.Config) (Player, error) {
	switch cfg.Player.Kind {
	case "", "mpv":
		return NewMPV(cfg.Player), nil
	case "cast":
		return NewCast(cfg), nil
	default:
		return nil, fmt.Errorf("unknown player kind %q", cfg.Player.Kind)
	}
}
