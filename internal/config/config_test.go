package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Captions.WordsPerChunk != 2 {
		t.Errorf("expected default words_per_chunk 2, got %d", cfg.Captions.WordsPerChunk)
	}
	if cfg.LightLeak.MaxAlpha != 0.7 {
		t.Errorf("expected default max_alpha 0.7, got %v", cfg.LightLeak.MaxAlpha)
	}
	if cfg.Stitch.SafetyMargin != 0.1 {
		t.Errorf("expected default safety_margin 0.1, got %v", cfg.Stitch.SafetyMargin)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zipclip.yaml")
	data := []byte(`
concurrency: 4
stitch:
  remap_offset: 0.25
light_leak:
  style: rose
captions:
  words_per_chunk: 3
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("concurrency = %d", cfg.Concurrency)
	}
	if cfg.Stitch.RemapOffset != 0.25 {
		t.Errorf("remap_offset = %v", cfg.Stitch.RemapOffset)
	}
	if cfg.LightLeak.Style != "rose" {
		t.Errorf("style = %q", cfg.LightLeak.Style)
	}
	if cfg.Captions.WordsPerChunk != 3 {
		t.Errorf("words_per_chunk = %d", cfg.Captions.WordsPerChunk)
	}
	// untouched keys keep their defaults
	if cfg.FFmpeg.CRF != 23 {
		t.Errorf("crf = %d", cfg.FFmpeg.CRF)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zipclip.toml")
	data := []byte(`
concurrency = 3

[ffmpeg]
preset = "fast"

[light_leak]
max_alpha = 0.5
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Concurrency != 3 || cfg.FFmpeg.Preset != "fast" || cfg.LightLeak.MaxAlpha != 0.5 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("light_leak:\n  max_alpha: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.yaml", "out.toml"} {
		path := filepath.Join(dir, name)
		cfg := Default()
		cfg.Captions.Offset = 0.5
		if err := cfg.Save(path); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
		loaded, err := Load(path)
		if err != nil {
			t.Fatalf("Load %s: %v", name, err)
		}
		if loaded.Captions.Offset != 0.5 {
			t.Errorf("%s: offset = %v", name, loaded.Captions.Offset)
		}
	}
}

func TestContext(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 7
	ctx := WithConfig(context.Background(), cfg)
	if got := FromContext(ctx); got.Concurrency != 7 {
		t.Errorf("expected config from context, got %+v", got)
	}
	if got := FromContext(context.Background()); got.Concurrency != 2 {
		t.Errorf("expected default config, got %+v", got)
	}
}
