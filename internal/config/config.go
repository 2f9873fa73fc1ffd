package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir     string `yaml:"work_dir" toml:"work_dir"`
	TempDir     string `yaml:"temp_dir" toml:"temp_dir"`
	OutputDir   string `yaml:"output_dir" toml:"output_dir"`
	Concurrency int    `yaml:"concurrency" toml:"concurrency"`

	FFmpeg    FFmpegConfig    `yaml:"ffmpeg" toml:"ffmpeg"`
	Stitch    StitchConfig    `yaml:"stitch" toml:"stitch"`
	LightLeak LightLeakConfig `yaml:"light_leak" toml:"light_leak"`
	Captions  CaptionConfig   `yaml:"captions" toml:"captions"`

	// Overlay colour presets, name -> hex colour
	Overlays OverlayConfig `yaml:"overlays" toml:"overlays"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path" toml:"binary_path"`
	Threads    int    `yaml:"threads" toml:"threads"`
	Preset     string `yaml:"preset" toml:"preset"`
	CRF        int    `yaml:"crf" toml:"crf"`
	// FPS of the composited output; 0 uses the probed source rate.
	FPS float64 `yaml:"fps" toml:"fps"`
}

type StitchConfig struct {
	// SafetyMargin keeps segment ends this far from the end of the source.
	SafetyMargin float64 `yaml:"safety_margin" toml:"safety_margin"`
	// RemapOffset is added to every source timestamp before remapping.
	RemapOffset float64 `yaml:"remap_offset" toml:"remap_offset"`
}

type LightLeakConfig struct {
	Style    string  `yaml:"style" toml:"style"`
	Color    string  `yaml:"color" toml:"color"`
	MaxAlpha float64 `yaml:"max_alpha" toml:"max_alpha"`
}

type CaptionConfig struct {
	Enabled       bool    `yaml:"enabled" toml:"enabled"`
	WordsPerChunk int     `yaml:"words_per_chunk" toml:"words_per_chunk"`
	Offset        float64 `yaml:"offset" toml:"offset"`
	Fade          float64 `yaml:"fade" toml:"fade"`
	MinDuration   float64 `yaml:"min_duration" toml:"min_duration"`
	FontName      string  `yaml:"font_name" toml:"font_name"`
	FontSize      int     `yaml:"font_size" toml:"font_size"`
	FontColor     string  `yaml:"font_color" toml:"font_color"`
	OutlineWidth  int     `yaml:"outline_width" toml:"outline_width"`
	// Position is the vertical anchor as a fraction of frame height.
	Position float64 `yaml:"position" toml:"position"`
}

type OverlayConfig struct {
	Presets map[string]string `yaml:"presets" toml:"presets"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the engine cannot work with
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return fmt.Errorf("ffmpeg.crf must be between 0 and 51")
	}
	if c.FFmpeg.FPS < 0 {
		return fmt.Errorf("ffmpeg.fps cannot be negative")
	}
	if c.Stitch.SafetyMargin < 0 {
		return fmt.Errorf("stitch.safety_margin cannot be negative")
	}
	if c.LightLeak.MaxAlpha <= 0 || c.LightLeak.MaxAlpha > 1 {
		return fmt.Errorf("light_leak.max_alpha must be in (0, 1]")
	}
	if c.Captions.WordsPerChunk < 1 {
		return fmt.Errorf("captions.words_per_chunk must be at least 1")
	}
	if c.Captions.Fade < 0 || c.Captions.MinDuration < 0 {
		return fmt.Errorf("captions.fade and captions.min_duration cannot be negative")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		WorkDir:     "./work",
		TempDir:     os.TempDir(),
		OutputDir:   "./output",
		Concurrency: 2,
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			Threads:    0,
			Preset:     "medium",
			CRF:        23,
		},
		Stitch: StitchConfig{
			SafetyMargin: 0.1,
		},
		LightLeak: LightLeakConfig{
			Style:    "warm",
			MaxAlpha: 0.7,
		},
		Captions: CaptionConfig{
			Enabled:       true,
			WordsPerChunk: 2,
			Fade:          0.1,
			MinDuration:   0.1,
			FontName:      "DejaVu Sans",
			FontSize:      0,
			FontColor:     "#FFFFFF",
			OutlineWidth:  2,
			Position:      0.6,
		},
		Overlays: OverlayConfig{
			Presets: make(map[string]string),
		},
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return defaultConfig()
}

func findConfigFile() string {
	candidates := []string{
		"./zipclip.yaml",
		"./zipclip.yml",
		"./zipclip.toml",
		filepath.Join(os.Getenv("HOME"), ".zipclip", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
