// Package transcode remuxes a stream with ffmpeg into a container a cast
// device accepts and serves the result over HTTP.
package transcode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/media"
	"github.com/stupside/pitchside/internal/resolve"
)

// Args builds the ffmpeg command line reading stream and writing cfg's
// container to stdout.
func Args(cfg app.TranscodeConfig, stream *media.Stream) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-readrate", strconv.Itoa(cfg.ReadRate),
		"-readrate_initial_burst", strconv.Itoa(cfg.ReadRateBurst),
		"-fflags", "+genpts+discardcorrupt",
	}
	args = append(args, resolve.InputArgs(stream)...)
	return append(args,
		"-i", stream.URL.String(),
		"-c:v", cfg.VideoCodec,
		"-c:a", cfg.AudioCodec,
		"-ar", strconv.Itoa(cfg.AudioSampleRate),
		"-b:a", cfg.AudioBitrate,
		"-f", cfg.OutputFormat,
		"pipe:1",
	)
}

// Process is a running ffmpeg whose output is Stdout.
type Process struct {
	Stdout io.ReadCloser
	cmd    *exec.Cmd
}

// Start launches ffmpeg for stream. The process dies with ctx.
func Start(ctx context.Context, cfg app.TranscodeConfig, stream *media.Stream) (*Process, error) {
	cmd := exec.CommandContext(ctx, cfg.FFmpegPath, Args(cfg, stream)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}

	slog.InfoContext(ctx, "ffmpeg started",
		"source", stream.URL.String(),
		"video_codec", cfg.VideoCodec,
		"audio_codec", cfg.AudioCodec,
		"format", cfg.OutputFormat,
	)

	go drain(ctx, stderr)

	return &Process{Stdout: stdout, cmd: cmd}, nil
}

// Wait reaps the process.
func (p *Process) Wait() error {
	return p.cmd.Wait()
}

func drain(ctx context.Context, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		slog.DebugContext(ctx, "ffmpeg", "line", scanner.Text())
	}
}
