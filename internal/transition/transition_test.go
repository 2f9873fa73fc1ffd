package transition

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/j3sv1n/zipclip-backend/internal/clips"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name         string
		durA, durB   float64
		diff         float64
		suitable     bool
		wantKind     Kind
		wantDuration float64
	}{
		{"short first clip", 1.49, 5, 0, true, Cut, 0},
		{"short second clip", 5, 1.2, 0.5, true, Cut, 0},
		{"exactly min duration", 1.5, 1.5, 0.01, true, Crossfade, 0.5},
		{"similar frames", 6, 9, 0.02, true, Crossfade, 1.0},
		{"crossfade short clips", 2, 2.4, 0.0, true, Crossfade, 2.0 / 3.0},
		{"diff at crossfade boundary", 6, 6, 0.06, true, Fade, 1.0},
		{"moderate diff", 3, 6, 0.1, true, Fade, 1.0},
		{"diff at fade boundary", 6, 6, 0.18, true, LightLeak, 0.8},
		{"light leak limited by clip", 2, 6, 0.5, true, LightLeak, 0.5},
		{"downgraded", 6, 6, 0.5, false, Crossfade, 0.4},
		{"downgraded short", 3, 3, 0.9, false, Crossfade, 0.375},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.durA, tt.durB, tt.diff, tt.suitable)
			if d.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", d.Kind, tt.wantKind)
			}
			if !approx(d.Duration, tt.wantDuration) {
				t.Errorf("duration = %v, want %v", d.Duration, tt.wantDuration)
			}
			if (d.Kind == Cut) != (d.Duration == 0) {
				t.Errorf("duration %v inconsistent with kind %v", d.Duration, d.Kind)
			}
		})
	}
}

func TestKindText(t *testing.T) {
	for _, k := range []Kind{Cut, Fade, Crossfade, LightLeak} {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Kind
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if back != k {
			t.Errorf("got %v, want %v", back, k)
		}
	}

	if _, err := ParseKind("wipe"); err == nil {
		t.Error("expected error for unknown kind")
	}

	out, err := yaml.Marshal(Decision{Kind: LightLeak, Duration: 0.75})
	if err != nil {
		t.Fatal(err)
	}
	var d Decision
	if err := yaml.Unmarshal(out, &d); err != nil {
		t.Fatal(err)
	}
	if d.Kind != LightLeak {
		t.Errorf("yaml kind = %v in %s", d.Kind, out)
	}
}

type fakeSampler struct {
	frames map[int]color.RGBA
	fail   map[float64]bool
	calls  []float64
}

func (f *fakeSampler) SampleFrame(ctx context.Context, clip *clips.Clip, at float64) (image.Image, error) {
	f.calls = append(f.calls, at)
	if f.fail[at] {
		return nil, errors.New("decode failed")
	}
	c, ok := f.frames[clip.Index]
	if !ok {
		return nil, errors.New("no frame")
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, 255
	}
	return img, nil
}

func TestClassifySamplesBoundaries(t *testing.T) {
	s := &fakeSampler{frames: map[int]color.RGBA{
		0: {100, 100, 100, 255},
		1: {105, 105, 105, 255},
	}}
	c := NewClassifier(zerolog.Nop(), s)

	a := &clips.Clip{Index: 0, Duration: 3}
	b := &clips.Clip{Index: 1, Duration: 3}
	d := c.Classify(context.Background(), a, b)

	if d.Kind != Crossfade || !approx(d.Duration, 1.0) {
		t.Errorf("got %v", d)
	}
	if len(s.calls) != 2 || !approx(s.calls[0], 2.95) || !approx(s.calls[1], 0.05) {
		t.Errorf("unexpected sample times %v", s.calls)
	}
}

func TestClassifyFallsBackToMidpoint(t *testing.T) {
	s := &fakeSampler{
		frames: map[int]color.RGBA{0: {10, 10, 10, 255}, 1: {10, 10, 10, 255}},
		fail:   map[float64]bool{0.05: true},
	}
	c := NewClassifier(zerolog.Nop(), s)

	d := c.Classify(context.Background(), &clips.Clip{Index: 0, Duration: 4}, &clips.Clip{Index: 1, Duration: 4})
	if d.Kind != Crossfade {
		t.Errorf("expected crossfade after midpoint retry, got %v", d)
	}
	if len(s.calls) != 3 || !approx(s.calls[2], 2) {
		t.Errorf("unexpected sample times %v", s.calls)
	}
}

func TestClassifyMissingFrameIsMaximalDifference(t *testing.T) {
	s := &fakeSampler{frames: map[int]color.RGBA{0: {10, 10, 10, 255}}}
	c := NewClassifier(zerolog.Nop(), s)

	d := c.Classify(context.Background(), &clips.Clip{Index: 0, Duration: 4}, &clips.Clip{Index: 1, Duration: 4})
	// missing frame: diff 1.0 and a permissive gate
	if d.Kind != LightLeak || !approx(d.Duration, 0.8) || d.Diff != 1.0 {
		t.Errorf("got %+v", d)
	}
}

func TestClassifyShortClipsSkipSampling(t *testing.T) {
	s := &fakeSampler{}
	c := NewClassifier(zerolog.Nop(), s)
	d := c.Classify(context.Background(), &clips.Clip{Duration: 1}, &clips.Clip{Index: 1, Duration: 8})
	if d.Kind != Cut || d.Duration != 0 {
		t.Errorf("got %v", d)
	}
	if len(s.calls) != 0 {
		t.Errorf("expected no sampling, got %v", s.calls)
	}
}

func TestClassifyAll(t *testing.T) {
	s := &fakeSampler{frames: map[int]color.RGBA{
		0: {255, 0, 0, 255},
		1: {0, 0, 255, 255},
		2: {0, 0, 255, 255},
	}}
	c := NewClassifier(zerolog.Nop(), s)
	cl := []*clips.Clip{
		{Index: 0, Duration: 4},
		{Index: 1, Duration: 4},
		{Index: 2, Duration: 1},
	}

	ds, err := c.ClassifyAll(context.Background(), cl)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(ds))
	}
	if ds[0].Kind != LightLeak || ds[1].Kind != Cut {
		t.Errorf("got %v", ds)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ClassifyAll(ctx, cl); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
