package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"time"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/media"
)

// interruptGrace is how long mpv gets to exit after SIGINT before it is killed.
const interruptGrace = 5 * time.Second

// MPV runs an external mpv process with the stream URL as its last argument.
type MPV struct {
	Path   string
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
}

var _ Player = (*MPV)(nil)

func NewMPV(cfg app.PlayerConfig) *MPV {
	path := cfg.Path
	if path == "" {
		path = "mpv"
	}
	return &MPV{
		Path:   path,
		Args:   cfg.Args,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Play blocks until mpv exits. Cancelling ctx sends SIGINT.
func (m *MPV) Play(ctx context.Context, stream *media.Stream) error {
	args := slices.Clone(m.Args)
	for _, h := range media.HeaderFields(stream.Headers) {
		args = append(args, "--http-header-fields-append="+h)
	}
	args = append(args, stream.URL.String())

	cmd := exec.CommandContext(ctx, m.Path, args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = interruptGrace
	cmd.Stdout = m.Stdout
	cmd.Stderr = m.Stderr

	slog.InfoContext(ctx, "starting player", "player", m.Path, "url", stream.URL.String())

	err := cmd.Run()
	if ctx.Err() != nil {
		slog.DebugContext(ctx, "player interrupted", "error", err)
		return nil
	}
	if err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return fmt.Errorf("%s exited with status %d", m.Path, exit.ExitCode())
		}
		return fmt.Errorf("running %s: %w", m.Path, err)
	}
	return nil
}
