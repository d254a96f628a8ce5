package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// snapshotRoot holds debug captures, one directory per visited URL.
const snapshotRoot = ".debug"

// debugEnabled reports whether snapshots should be taken at all.
func debugEnabled(ctx context.Context) bool {
	return slog.Default().Enabled(ctx, slog.LevelDebug)
}

// saveSnapshot writes a screenshot and the page HTML for rawURL. Errors are
// logged and swallowed so snapshots never break navigation.
func saveSnapshot(ctx context.Context, rawURL, label string, png []byte, html string) {
	dir := filepath.Join(snapshotRoot, sanitize(rawURL))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.DebugContext(ctx, "snapshot: mkdir failed", "error", err)
		return
	}

	prefix := filepath.Join(dir, fmt.Sprintf("%s_%d", label, time.Now().UnixMilli()))

	if len(png) > 0 {
		if err := os.WriteFile(prefix+".png", png, 0o644); err != nil {
			slog.DebugContext(ctx, "snapshot: write png failed", "error", err)
		}
	}

	if html != "" {
		if err := os.WriteFile(prefix+".html", []byte(html), 0o644); err != nil {
			slog.DebugContext(ctx, "snapshot: write html failed", "error", err)
		}
	}

	slog.DebugContext(ctx, "snapshot: saved", "label", label, "path", prefix)
}

// sanitize turns a URL into a safe directory name.
func sanitize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	s := u.Host + u.Path
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
