package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: PITCHSIDE_SOURCE__URL sets source.url.
const EnvPrefix = "PITCHSIDE_"

// Config holds all application configuration.
type Config struct {
	Source    SourceConfig    `koanf:"source" validate:"required"`
	Selectors SelectorConfig  `koanf:"selectors" validate:"required"`
	Browser   BrowserConfig   `koanf:"browser" validate:"required"`
	Extract   ExtractConfig   `koanf:"extract" validate:"required"`
	Cache     CacheConfig     `koanf:"cache" validate:"required"`
	Player    PlayerConfig    `koanf:"player" validate:"required"`
	Device    DeviceConfig    `koanf:"device"`
	Network   NetworkConfig   `koanf:"network" validate:"required"`
	Resolver  ResolverConfig  `koanf:"resolver" validate:"required"`
	Transcode TranscodeConfig `koanf:"transcode" validate:"required"`
}

// SourceConfig points at the listing page.
type SourceConfig struct {
	URL string `koanf:"url" validate:"required,url"`
}

// SelectorConfig holds the CSS selectors used to read the listing page.
type SelectorConfig struct {
	Item  string `koanf:"item" validate:"required"`
	Title string `koanf:"title" validate:"required"`
	Time  string `koanf:"time" validate:"required"`
	Links string `koanf:"links" validate:"required"`
}

// BrowserConfig holds settings for the headless browser.
type BrowserConfig struct {
	Engine          string            `koanf:"engine" validate:"required,oneof=chromedp rod"`
	ChromePath      string            `koanf:"chrome_path"`
	Headless        bool              `koanf:"headless"`
	NoSandbox       bool              `koanf:"no_sandbox"`
	NavigateTimeout time.Duration     `koanf:"navigate_timeout" validate:"required"`
	IdleWindow      time.Duration     `koanf:"idle_window" validate:"required"`
	IdleConnections int               `koanf:"idle_connections" validate:"gte=0"`
	Headers         map[string]string `koanf:"headers"`
}

// ExtractConfig describes the iframe chain behind a broadcast link.
type ExtractConfig struct {
	WaitFor    string        `koanf:"wait_for" validate:"required"`
	Hops       []HopConfig   `koanf:"hops" validate:"required,min=1,dive"`
	Variable   string        `koanf:"variable" validate:"required"`
	HopTimeout time.Duration `koanf:"hop_timeout" validate:"required"`
}

// HopConfig names one iframe descent and the selector locating its frame.
type HopConfig struct {
	Name  string `koanf:"name" validate:"required"`
	Frame string `koanf:"frame" validate:"required"`
}

// CacheConfig holds the query cache settings. A zero TTL keeps entries forever.
type CacheConfig struct {
	Path string        `koanf:"path" validate:"required"`
	TTL  time.Duration `koanf:"ttl" validate:"gte=0"`
}

// PlayerConfig selects where resolved streams are sent. Headers go out with
// every stream request.
type PlayerConfig struct {
	Kind    string            `koanf:"kind" validate:"required,oneof=mpv cast"`
	Path    string            `koanf:"path"`
	Args    []string          `koanf:"args"`
	Headers map[string]string `koanf:"headers"`
}

// DeviceConfig holds cast device selection settings.
type DeviceConfig struct {
	Name string `koanf:"name"`
	Type string `koanf:"type" validate:"omitempty,oneof=dlna chromecast"`
}

// NetworkConfig holds device discovery settings. An empty interface lets
// discovery pick one.
type NetworkConfig struct {
	Timeout   time.Duration `koanf:"timeout" validate:"required"`
	Interface string        `koanf:"interface"`
}

// ResolverConfig holds stream resolution settings for casting.
type ResolverConfig struct {
	FFprobePath  string        `koanf:"ffprobe_path" validate:"required"`
	ProbeTimeout time.Duration `koanf:"probe_timeout" validate:"required"`
	HLSTimeout   time.Duration `koanf:"hls_timeout" validate:"required"`
}

// TranscodeConfig holds ffmpeg settings used when a device cannot play a stream as is.
type TranscodeConfig struct {
	FFmpegPath      string `koanf:"ffmpeg_path" validate:"required"`
	VideoCodec      string `koanf:"video_codec" validate:"required"`
	AudioCodec      string `koanf:"audio_codec" validate:"required"`
	AudioSampleRate int    `koanf:"audio_sample_rate" validate:"required"`
	AudioBitrate    string `koanf:"audio_bitrate" validate:"required"`
	OutputFormat    string `koanf:"output_format" validate:"required"`
	ReadRate        int    `koanf:"read_rate" validate:"required"`
	ReadRateBurst   int    `koanf:"read_rate_burst" validate:"gte=0"`
	BufferSize      int    `koanf:"buffer_size" validate:"required"`
	InitialData     int    `koanf:"initial_data" validate:"gte=0"`
}

// Defaults returns the built-in configuration, keyed the same way as the YAML file.
func Defaults() map[string]any {
	return map[string]any{
		"source.url": "https://www.rojadirectaenvivo.pl/",

		"selectors.item":  ".menu > li",
		"selectors.title": "a",
		"selectors.time":  "a > .t",
		"selectors.links": "li a",

		"browser.engine":           "chromedp",
		"browser.headless":         true,
		"browser.no_sandbox":       false,
		"browser.navigate_timeout": "30s",
		"browser.idle_window":      "500ms",
		"browser.idle_connections": 2,
		"browser.headers": map[string]any{
			"Accept-Language": "en-US,en;q=0.5",
			"Referer":         "https://www.google.com/",
			"DNT":             "1",
		},

		"extract.wait_for": "iframe",
		"extract.hops": []any{
			map[string]any{"name": "outer", "frame": "div > iframe"},
			map[string]any{"name": "inner", "frame": "body > iframe"},
		},
		"extract.variable":    "playbackURL",
		"extract.hop_timeout": "30s",

		"cache.path": "cache.json",
		"cache.ttl":  "12h",

		"player.kind": "mpv",
		"player.path": "mpv",

		"network.timeout": "5s",

		"resolver.ffprobe_path":  "ffprobe",
		"resolver.probe_timeout": "15s",
		"resolver.hls_timeout":   "10s",

		"transcode.ffmpeg_path":       "ffmpeg",
		"transcode.video_codec":       "copy",
		"transcode.audio_codec":       "aac",
		"transcode.audio_sample_rate": 48000,
		"transcode.audio_bitrate":     "192k",
		"transcode.output_format":     "mpegts",
		"transcode.read_rate":         1,
		"transcode.read_rate_burst":   10,
		"transcode.buffer_size":       8 << 20,
		"transcode.initial_data":      256 << 10,
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// PITCHSIDE_ environment variables, in that order. A missing file is only an
// error when required is set.
func Load(path string, required bool) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("loading config from %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if cfg.Player.Kind == "cast" && (cfg.Device.Name == "" || cfg.Device.Type == "") {
		return nil, fmt.Errorf("validating config: player.kind cast requires device.name and device.type")
	}

	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// ConfigFrom extracts the Config from the CLI command metadata.
func ConfigFrom(cmd *cli.Command) (*Config, error) {
	v, ok := cmd.Root().Metadata["config"]
	if !ok {
		return nil, fmt.Errorf("config not found in command metadata")
	}
	cfg, ok := v.(*Config)
	if !ok {
		return nil, fmt.Errorf("config has unexpected type %T", v)
	}
	return cfg, nil
}
