package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/stupside/pitchside/internal/media"
)

// relaxedInput relaxes ffprobe and ffmpeg extension checks, which live streams
// often fail by serving segments under arbitrary names.
var relaxedInput = []string{
	"-allowed_extensions", "ALL",
	"-allowed_segment_extensions", "ALL",
	"-extension_picky", "0",
}

// InputArgs returns the ffmpeg input flags for stream: header forwarding and
// relaxed HLS extension checks.
func InputArgs(stream *media.Stream) []string {
	var args []string
	if h := media.HeaderBlock(stream.Headers); h != "" {
		args = append(args, "-headers", h)
	}
	if stream.ContentType == media.HLS || stream.ContentType == "" {
		args = append(args, relaxedInput...)
	}
	return args
}

// ProbeResult is what ffprobe reports about a stream.
type ProbeResult struct {
	ContentType string
	BitRate     int64
}

// Probe runs ffprobe against stream.
func (r *Resolver) Probe(ctx context.Context, stream *media.Stream) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_entries", "format=format_name,bit_rate",
	}
	args = append(args, InputArgs(stream)...)
	args = append(args, stream.URL.String())

	slog.DebugContext(ctx, "ffprobe starting", "url", stream.URL.String(), "headers", len(stream.Headers))

	out, err := exec.CommandContext(ctx, r.cfg.FFprobePath, args...).Output()
	if err != nil {
		var e *exec.ExitError
		if errors.As(err, &e) && len(e.Stderr) > 0 {
			return nil, fmt.Errorf("ffprobe: %w\n%s", err, e.Stderr)
		}
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	return parseProbe(out)
}

func parseProbe(out []byte) (*ProbeResult, error) {
	var result struct {
		Format struct {
			BitRate    string `json:"bit_rate"`
			FormatName string `json:"format_name"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if result.Format.FormatName == "" {
		return nil, errors.New("ffprobe returned no format name")
	}

	ct, err := media.FromProbeFormat(result.Format.FormatName)
	if err != nil {
		return nil, err
	}

	p := &ProbeResult{ContentType: ct}
	if result.Format.BitRate != "" && result.Format.BitRate != "N/A" {
		if p.BitRate, err = strconv.ParseInt(result.Format.BitRate, 10, 64); err != nil {
			slog.Debug("ffprobe returned non-numeric bit_rate", "bit_rate", result.Format.BitRate)
			p.BitRate = 0
		}
	}
	return p, nil
}
