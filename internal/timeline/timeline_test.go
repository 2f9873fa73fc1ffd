package timeline

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/j3sv1n/zipclip-backend/internal/clips"
	"github.com/j3sv1n/zipclip-backend/internal/overlays"
	"github.com/j3sv1n/zipclip-backend/internal/transition"
	"github.com/rs/zerolog"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeClips(segs ...clips.Segment) []*clips.Clip {
	out := make([]*clips.Clip, len(segs))
	for i, s := range segs {
		out[i] = &clips.Clip{
			Index:    i,
			Segment:  s,
			Duration: s.Duration(),
			Width:    320,
			Height:   180,
			FPS:      25,
		}
	}
	return out
}

func newBuilder() *Builder {
	return NewBuilder(zerolog.Nop(), LeakStyle{}, 0)
}

func TestBuildSingleClip(t *testing.T) {
	tl, err := newBuilder().Build(makeClips(clips.Segment{Start: 10, End: 14}), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Clips) != 1 || tl.Clips[0].Start != 0 {
		t.Fatalf("unexpected clips %+v", tl.Clips)
	}
	if tl.Duration != 4 || tl.FPS != 25 {
		t.Errorf("duration %v fps %v", tl.Duration, tl.FPS)
	}
	if !tl.IsPlainConcat() {
		t.Error("single clip should be a plain concat")
	}
}

func TestBuildTransitions(t *testing.T) {
	cl := makeClips(
		clips.Segment{Start: 0, End: 4},
		clips.Segment{Start: 10, End: 14},
		clips.Segment{Start: 20, End: 24},
		clips.Segment{Start: 30, End: 34},
		clips.Segment{Start: 40, End: 44},
	)
	decisions := []transition.Decision{
		{Kind: transition.Cut},
		{Kind: transition.Fade, Duration: 1},
		{Kind: transition.Crossfade, Duration: 1},
		{Kind: transition.LightLeak, Duration: 0.8},
	}

	tl, err := newBuilder().Build(cl, decisions)
	if err != nil {
		t.Fatal(err)
	}

	wantStarts := []float64{0, 4, 8, 11, 14.6}
	for i, want := range wantStarts {
		if !approx(tl.Clips[i].Start, want) {
			t.Errorf("clip %d start = %v, want %v", i, tl.Clips[i].Start, want)
		}
	}

	if tl.Clips[1].FadeOut != 1 || tl.Clips[2].FadeIn != 1 {
		t.Errorf("fade not applied: %+v %+v", tl.Clips[1], tl.Clips[2])
	}
	if tl.Clips[3].CrossfadeIn != 1 {
		t.Errorf("crossfade_in = %v", tl.Clips[3].CrossfadeIn)
	}
	if !approx(tl.Clips[4].CrossfadeIn, 0.2) {
		t.Errorf("light leak crossfade_in = %v", tl.Clips[4].CrossfadeIn)
	}

	if len(tl.Overlays) != 1 {
		t.Fatalf("expected 1 overlay, got %d", len(tl.Overlays))
	}
	o := tl.Overlays[0]
	if !approx(o.Start, 14.6) || o.Duration != 0.8 || o.Junction != 4 {
		t.Errorf("overlay %+v", o)
	}
	if !approx(o.FadeIn, 0.2) || !approx(o.FadeOut, 0.48) {
		t.Errorf("overlay fades %v %v", o.FadeIn, o.FadeOut)
	}
	if o.Color != overlays.Hex(overlays.DefaultColor) || o.MaxAlpha != overlays.DefaultMaxAlpha {
		t.Errorf("overlay style %s %v", o.Color, o.MaxAlpha)
	}
	if o.Width != 320 || o.Height != 180 {
		t.Errorf("overlay size %dx%d", o.Width, o.Height)
	}

	if !approx(tl.Duration, 18.6) {
		t.Errorf("duration = %v", tl.Duration)
	}
	if tl.IsPlainConcat() {
		t.Error("timeline with transitions is not a plain concat")
	}

	// every start is non-negative and never before the previous start
	for i := 1; i < len(tl.Clips); i++ {
		if tl.Clips[i].Start < tl.Clips[i-1].Start || tl.Clips[i].Start < 0 {
			t.Errorf("clip %d out of order", i)
		}
	}
}

func TestBuildClampsNegativeStart(t *testing.T) {
	cl := []*clips.Clip{
		{Index: 0, Segment: clips.Segment{Start: 0, End: 0.5}, Duration: 0.5},
		{Index: 1, Segment: clips.Segment{Start: 5, End: 8}, Duration: 3},
	}
	tl, err := newBuilder().Build(cl, []transition.Decision{{Kind: transition.Crossfade, Duration: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if tl.Clips[1].Start != 0 {
		t.Errorf("expected start clamped to 0, got %v", tl.Clips[1].Start)
	}
}

func TestBuildUnknownKindIsCut(t *testing.T) {
	cl := makeClips(clips.Segment{Start: 0, End: 3}, clips.Segment{Start: 5, End: 8})
	tl, err := newBuilder().Build(cl, []transition.Decision{{Kind: transition.Kind(42), Duration: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if tl.Clips[1].Start != 3 || tl.Decisions[0].Kind != transition.Cut {
		t.Errorf("expected cut placement, got %+v %+v", tl.Clips[1], tl.Decisions[0])
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := newBuilder().Build(nil, nil); !errors.Is(err, ErrNoClips) {
		t.Errorf("expected ErrNoClips, got %v", err)
	}
	cl := makeClips(clips.Segment{Start: 0, End: 3}, clips.Segment{Start: 5, End: 8})
	if _, err := newBuilder().Build(cl, nil); err == nil {
		t.Error("expected error for missing decisions")
	}
}

func TestRemapper(t *testing.T) {
	// three 2s clips joined by 2/3s crossfades
	cl := makeClips(
		clips.Segment{Start: 0, End: 2},
		clips.Segment{Start: 2, End: 4},
		clips.Segment{Start: 4, End: 6},
	)
	d := transition.Decide(2, 2, 0.02, true)
	tl, err := newBuilder().Build(cl, []transition.Decision{d, d})
	if err != nil {
		t.Fatal(err)
	}

	r := NewRemapper(tl.Mapping(), 0)
	tests := []struct {
		in     float64
		want   float64
		wantOK bool
	}{
		{0, 0, true},
		{1, 1, true},
		{2, 2, true}, // shared boundary, first span wins
		{3, 3 - 2.0/3.0, true},
		{5, 5 - 4.0/3.0, true},
		{6, 6 - 4.0/3.0, true},
		{6.01, 0, false},
		{-0.5, 0, false},
	}
	for _, tt := range tests {
		got, ok := r.MapToStitched(tt.in)
		if ok != tt.wantOK || (ok && !approx(got, tt.want)) {
			t.Errorf("MapToStitched(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRemapperOffsetAndGaps(t *testing.T) {
	m := Mapping{
		{SourceStart: 10, SourceEnd: 12, StitchedStart: 0},
		{SourceStart: 30, SourceEnd: 33, StitchedStart: 2},
	}
	r := NewRemapper(m, 0.5)

	if got, ok := r.MapToStitched(10.5); !ok || got != 1 {
		t.Errorf("got %v %v", got, ok)
	}
	if _, ok := r.MapToStitched(20); ok {
		t.Error("expected gap to be not present")
	}
	if got, ok := r.MapToStitched(32); !ok || got != 4.5 {
		t.Errorf("got %v %v", got, ok)
	}

	m[0].StitchedStart = 99
	if got, _ := r.MapToStitched(10); got != 0.5 {
		t.Errorf("remapper should own its mapping, got %v", got)
	}
}

func TestRemapperOverlapFirstWins(t *testing.T) {
	r := NewRemapper(Mapping{
		{SourceStart: 0, SourceEnd: 10, StitchedStart: 0},
		{SourceStart: 5, SourceEnd: 15, StitchedStart: 10},
	}, 0)
	if got, ok := r.MapToStitched(7); !ok || got != 7 {
		t.Errorf("got %v %v", got, ok)
	}
	if got, ok := r.MapToStitched(12); !ok || got != 17 {
		t.Errorf("got %v %v", got, ok)
	}
}

func TestFileRoundTrip(t *testing.T) {
	cl := makeClips(clips.Segment{Start: 0, End: 4}, clips.Segment{Start: 10, End: 14})
	tl, err := newBuilder().Build(cl, []transition.Decision{{Kind: transition.LightLeak, Duration: 0.8}})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "timeline.yaml")
	if err := WriteFile(path, tl); err != nil {
		t.Fatal(err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(back.Clips) != 2 || len(back.Overlays) != 1 {
		t.Fatalf("lost data: %+v", back)
	}
	if back.Decisions[0].Kind != transition.LightLeak {
		t.Errorf("decision kind = %v", back.Decisions[0].Kind)
	}
	want := NewRemapper(tl.Mapping(), 0)
	got := NewRemapper(back.Mapping(), 0)
	for _, ts := range []float64{1, 11, 13.9} {
		a, okA := want.MapToStitched(ts)
		b, okB := got.MapToStitched(ts)
		if a != b || okA != okB {
			t.Errorf("mapping differs at %v: %v/%v vs %v/%v", ts, a, okA, b, okB)
		}
	}

	if g := back.Overlays[0].Generator(); g.Duration != 0.8 || g.Color != overlays.DefaultColor {
		t.Errorf("generator %+v", g)
	}
}
