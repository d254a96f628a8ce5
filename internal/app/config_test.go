package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", false)
	require.NoError(t, err)

	assert.Equal(t, "https://www.rojadirectaenvivo.pl/", cfg.Source.URL)
	assert.Equal(t, ".menu > li", cfg.Selectors.Item)
	assert.Equal(t, "chromedp", cfg.Browser.Engine)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigateTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Browser.IdleWindow)
	assert.Equal(t, []HopConfig{
		{Name: "outer", Frame: "div > iframe"},
		{Name: "inner", Frame: "body > iframe"},
	}, cfg.Extract.Hops)
	assert.Equal(t, "playbackURL", cfg.Extract.Variable)
	assert.Equal(t, "cache.json", cfg.Cache.Path)
	assert.Equal(t, 12*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "mpv", cfg.Player.Kind)
	assert.Equal(t, 8<<20, cfg.Transcode.BufferSize)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
browser:
  engine: rod
  navigate_timeout: 10s
cache:
  ttl: 0s
player:
  args: ["--fs"]
  headers:
    Referer: https://player.example/
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "rod", cfg.Browser.Engine)
	assert.Equal(t, 10*time.Second, cfg.Browser.NavigateTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Browser.IdleWindow, "unset keys keep their default")
	assert.Zero(t, cfg.Cache.TTL)
	assert.Equal(t, []string{"--fs"}, cfg.Player.Args)
	assert.Equal(t, "https://player.example/", cfg.Player.Headers["Referer"])
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(missing, false)
	assert.NoError(t, err)

	_, err = Load(missing, true)
	assert.ErrorContains(t, err, "nope.yaml")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "source:\n  url: https://file.example/\n")
	t.Setenv("PITCHSIDE_SOURCE__URL", "https://env.example/")
	t.Setenv("PITCHSIDE_CACHE__TTL", "1h")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example/", cfg.Source.URL)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown engine", "browser:\n  engine: firefox\n"},
		{"unknown player", "player:\n  kind: vlc\n"},
		{"bad source url", "source:\n  url: not a url\n"},
		{"cast without device", "player:\n  kind: cast\n"},
		{"no hops", "extract:\n  hops: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), true)
			assert.ErrorContains(t, err, "validating config")
		})
	}
}

func TestLoadCastWithDevice(t *testing.T) {
	cfg, err := Load(writeConfig(t, "player:\n  kind: cast\ndevice:\n  name: Living Room\n  type: chromecast\n"), true)
	require.NoError(t, err)
	assert.Equal(t, "Living Room", cfg.Device.Name)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "browser.navigate_timeout", envKey("PITCHSIDE_BROWSER__NAVIGATE_TIMEOUT"))
	assert.Equal(t, "source.url", envKey("PITCHSIDE_SOURCE__URL"))
}

func TestConfigFrom(t *testing.T) {
	cmd := &cli.Command{Metadata: map[string]any{}}
	_, err := ConfigFrom(cmd)
	assert.Error(t, err)

	want := &Config{}
	cmd.Metadata["config"] = want
	got, err := ConfigFrom(cmd)
	require.NoError(t, err)
	assert.Same(t, want, got)
}
