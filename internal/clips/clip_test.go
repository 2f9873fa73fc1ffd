package clips

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestNormalizeSegments(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 2},
		{Start: 5, End: 3},           // reversed
		{Start: -1, End: 2},          // negative start
		{Start: 8, End: 20},          // end capped
		{Start: math.NaN(), End: 4},  // non-finite
		{Start: 9.95, End: 12},       // empty after capping
		{Start: 3, End: math.Inf(1)}, // non-finite
	}

	valid, dropped := NormalizeSegments(zerolog.Nop(), segs, 10, 0.1)

	if len(valid) != 2 {
		t.Fatalf("expected 2 valid segments, got %d: %v", len(valid), valid)
	}
	if valid[0] != (Segment{Start: 0, End: 2}) {
		t.Errorf("first segment changed: %v", valid[0])
	}
	if valid[1].Start != 8 || math.Abs(valid[1].End-9.9) > 1e-9 {
		t.Errorf("expected capped segment 8-9.9, got %v", valid[1])
	}

	if len(dropped) != 5 {
		t.Fatalf("expected 5 dropped, got %d", len(dropped))
	}
	wantIdx := []int{1, 2, 4, 5, 6}
	for i, d := range dropped {
		if d.Index != wantIdx[i] {
			t.Errorf("dropped[%d].Index = %d, want %d", i, d.Index, wantIdx[i])
		}
		if !errors.Is(d, ErrInvalidSegment) {
			t.Errorf("dropped[%d] does not wrap ErrInvalidSegment", i)
		}
	}
}

func TestNormalizeSegmentsNoDuration(t *testing.T) {
	valid, dropped := NormalizeSegments(zerolog.Nop(), []Segment{{Start: 100, End: 200}}, 0, 0.1)
	if len(valid) != 1 || len(dropped) != 0 {
		t.Fatalf("expected segment kept without a known duration, got %v %v", valid, dropped)
	}
}

func TestSegmentContains(t *testing.T) {
	s := Segment{Start: 1, End: 2}
	for _, tt := range []struct {
		t    float64
		want bool
	}{
		{0.99, false},
		{1, true},
		{1.5, true},
		{2, true},
		{2.01, false},
	} {
		if got := s.Contains(tt.t); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestSetLifecycle(t *testing.T) {
	set, err := NewSet(t.TempDir())
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}

	p1 := set.Path("clip", ".mp4")
	p2 := set.Path("clip", ".mp4")
	if p1 == p2 {
		t.Fatalf("expected distinct paths, got %s twice", p1)
	}
	if filepath.Dir(p1) != set.Dir() {
		t.Errorf("path %s not inside %s", p1, set.Dir())
	}
	if err := os.WriteFile(p1, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	set.Add(&Clip{ID: "a", Index: 7})
	set.Add(&Clip{ID: "b", Index: 9})
	if set.Len() != 2 {
		t.Fatalf("Len = %d", set.Len())
	}
	if all := set.All(); all[1].ID != "b" || all[1].Index != 1 {
		t.Errorf("expected clip b renumbered to 1, got %+v", all[1])
	}

	dir := set.Dir()
	if err := set.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected %s removed, stat err = %v", dir, err)
	}
	if err := set.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
