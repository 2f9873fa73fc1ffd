package captions

import (
	"strings"

	"github.com/rs/zerolog"
)

// Mapper projects source timestamps onto the stitched timeline
type Mapper interface {
	MapToStitched(t float64) (float64, bool)
}

// Window is a caption to draw on the stitched video
type Window struct {
	Text  string
	Start float64
	End   float64
	Fade  float64
}

// PlaceOptions tunes caption placement
type PlaceOptions struct {
	// Shift is added to every stitched window
	Shift         float64
	Fade          float64
	MinDuration   float64
	VideoDuration float64
}

// Place maps chunk starts onto the stitched timeline. Chunks whose start is not
// part of the output are skipped. Each window keeps its chunk's length and is
// clipped to the video.
func Place(logger zerolog.Logger, chunks []Chunk, m Mapper, opts PlaceOptions) []Window {
	windows := make([]Window, 0, len(chunks))
	skipped := 0

	for _, c := range chunks {
		start, ok := m.MapToStitched(c.Start)
		if !ok {
			skipped++
			continue
		}
		end := start + (c.End - c.Start)

		start += opts.Shift
		end += opts.Shift
		if start < 0 {
			start = 0
		}
		if opts.VideoDuration > 0 && end > opts.VideoDuration {
			end = opts.VideoDuration
		}
		if end-start < opts.MinDuration || end <= start {
			skipped++
			continue
		}

		w := Window{
			Text:  strings.ToUpper(strings.TrimSpace(c.Text)),
			Start: start,
			End:   end,
		}
		if end-start > opts.Fade*2 {
			w.Fade = opts.Fade
		}
		windows = append(windows, w)
	}

	logger.Debug().
		Int("chunks", len(chunks)).
		Int("placed", len(windows)).
		Int("skipped", skipped).
		Msg("captions placed")

	return windows
}
