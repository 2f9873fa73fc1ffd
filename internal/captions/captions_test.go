package captions

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSplitWords(t *testing.T) {
	tr := Transcript{
		{Text: "one two three four five", Start: 10, End: 15},
		{Text: "   ", Start: 15, End: 16},
		{Text: "solo", Start: 20, End: 20.5},
	}

	chunks := SplitWords(tr, 2)
	want := []Chunk{
		{"one two", 10, 12},
		{"three four", 12, 14},
		{"five", 14, 15},
		{"solo", 20, 20.5},
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks: %+v", len(chunks), chunks)
	}
	for i := range want {
		if chunks[i].Text != want[i].Text || !approx(chunks[i].Start, want[i].Start) || !approx(chunks[i].End, want[i].End) {
			t.Errorf("chunk %d = %+v, want %+v", i, chunks[i], want[i])
		}
	}

	if got := SplitWords(tr, 0); len(got) != 6 {
		t.Errorf("wordsPerChunk 0 should mean one word per chunk, got %d", len(got))
	}
}

type shiftMapper struct {
	from, to, shift float64
}

func (m shiftMapper) MapToStitched(t float64) (float64, bool) {
	if t < m.from || t > m.to {
		return 0, false
	}
	return t - m.shift, true
}

func TestPlace(t *testing.T) {
	chunks := []Chunk{
		{"hello there", 10, 11},
		{"outside", 30, 31},
		{"tiny", 12, 12.05},
		{"at the end", 14, 16},
		{"short", 13, 13.15},
	}
	m := shiftMapper{from: 10, to: 15, shift: 10}

	got := Place(zerolog.Nop(), chunks, m, PlaceOptions{Fade: 0.1, MinDuration: 0.1, VideoDuration: 5})

	if len(got) != 3 {
		t.Fatalf("expected 3 windows, got %+v", got)
	}
	if got[0].Text != "HELLO THERE" || got[0].Start != 0 || got[0].End != 1 || got[0].Fade != 0.1 {
		t.Errorf("window 0 = %+v", got[0])
	}
	// end clipped to the video duration
	if !approx(got[1].Start, 4) || got[1].End != 5 {
		t.Errorf("window 1 = %+v", got[1])
	}
	// too short for a fade
	if got[2].Text != "SHORT" || got[2].Fade != 0 {
		t.Errorf("window 2 = %+v", got[2])
	}
}

func TestPlaceShift(t *testing.T) {
	m := shiftMapper{from: 0, to: 100, shift: 0}
	got := Place(zerolog.Nop(), []Chunk{{"a", 0.05, 1}}, m, PlaceOptions{Shift: -0.5, MinDuration: 0.1})
	if len(got) != 1 || got[0].Start != 0 || !approx(got[0].End, 0.5) {
		t.Errorf("got %+v", got)
	}
}

func TestLoadTranscript(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"objects.json": `[{"text": "hi there", "start": 1, "end": 2}]`,
		"triples.json": `[["hi there", 1, 2]]`,
		"wrapped.json": `{"segments": [{"text": "hi there", "start": 1, "end": 2}]}`,
		"lines.yaml":   "- text: hi there\n  start: 1\n  end: 2\n",
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			tr, err := LoadTranscript(path)
			if err != nil {
				t.Fatalf("LoadTranscript: %v", err)
			}
			if len(tr) != 1 || tr[0] != (Line{Text: "hi there", Start: 1, End: 2}) {
				t.Errorf("got %+v", tr)
			}
		})
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[["only two", 1]]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTranscript(bad); err == nil {
		t.Error("expected error for short triple")
	}
}

func TestWriteASS(t *testing.T) {
	var buf bytes.Buffer
	windows := []Window{
		{Text: "HELLO {WORLD}", Start: 0, End: 1.5, Fade: 0.1},
		{Text: "AGAIN", Start: 61.25, End: 62},
	}
	style := Style{FontName: "DejaVu Sans", FontColor: "#FFCC00", OutlineWidth: 2, Position: 0.6, Width: 1080, Height: 1920}
	if err := WriteASS(&buf, windows, style); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"PlayResX: 1080",
		"Style: Caption,DejaVu Sans,96,&H0000CCFF,",
		",2,0,2,40,40,768,1",
		"Dialogue: 0,0:00:00.00,0:00:01.50,Caption,,0,0,0,,{\\fad(100,100)}HELLO (WORLD)",
		"Dialogue: 0,0:01:01.25,0:01:02.00,Caption,,0,0,0,,AGAIN",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAssTime(t *testing.T) {
	tests := map[float64]string{
		0:      "0:00:00.00",
		1.234:  "0:00:01.23",
		59.999: "0:01:00.00",
		3723.5: "1:02:03.50",
		-2:     "0:00:00.00",
	}
	for in, want := range tests {
		if got := assTime(in); got != want {
			t.Errorf("assTime(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeASS(t *testing.T) {
	tests := map[string]string{
		`C:\NEW\hello`: "C:NEWhello",
		"{\\b1}BOLD":   "(b1)BOLD",
		"two\nlines  ": "two lines",
		"plain":         "plain",
	}
	for in, want := range tests {
		if got := sanitizeASS(in); got != want {
			t.Errorf("sanitizeASS(%q) = %q, want %q", in, got, want)
		}
	}
}
