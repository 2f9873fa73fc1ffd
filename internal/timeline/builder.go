package timeline

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/j3sv1n/zipclip-backend/internal/clips"
	"github.com/j3sv1n/zipclip-backend/internal/overlays"
	"github.com/j3sv1n/zipclip-backend/internal/transition"
	"github.com/rs/zerolog"
)

// ErrNoClips is returned when there is nothing to place
var ErrNoClips = errors.New("no clips to place")

// LeakStyle is the look of generated light-leak overlays
type LeakStyle struct {
	Color    color.RGBA
	MaxAlpha float64
}

// Builder lays clips out on the stitched timeline according to the
// transition chosen for each junction
type Builder struct {
	logger zerolog.Logger
	style  LeakStyle
	fps    float64
}

// NewBuilder creates a builder
func NewBuilder(logger zerolog.Logger, style LeakStyle, fps float64) *Builder {
	if style.MaxAlpha <= 0 {
		style.MaxAlpha = overlays.DefaultMaxAlpha
	}
	if style.Color == (color.RGBA{}) {
		style.Color = overlays.DefaultColor
	}
	return &Builder{
		logger: logger.With().Str("component", "timeline").Logger(),
		style:  style,
		fps:    fps,
	}
}

// Build places cl in order. decisions[i] joins cl[i] and cl[i+1].
func (b *Builder) Build(cl []*clips.Clip, decisions []transition.Decision) (*Timeline, error) {
	if len(cl) == 0 {
		return nil, ErrNoClips
	}
	if len(decisions) != len(cl)-1 {
		return nil, fmt.Errorf("have %d decisions for %d clips, want %d", len(decisions), len(cl), len(cl)-1)
	}

	first := cl[0]
	tl := &Timeline{
		Width:     first.Width,
		Height:    first.Height,
		FPS:       b.fps,
		Clips:     make([]PlacedClip, 0, len(cl)),
		Decisions: make([]transition.Decision, 0, len(decisions)),
		Overlays:  make([]Overlay, 0),
	}
	if tl.FPS <= 0 {
		tl.FPS = first.FPS
	}

	tl.Clips = append(tl.Clips, place(first, 0))
	cursor := first.Duration

	for i, d := range decisions {
		next := cl[i+1]
		prev := &tl.Clips[len(tl.Clips)-1]

		if d.Kind != transition.Cut && d.Duration <= 0 {
			b.logger.Warn().Int("junction", i+1).Str("kind", d.Kind.String()).Msg("transition without duration, using cut")
			d = transition.Decision{Kind: transition.Cut, Diff: d.Diff}
		}

		var pc PlacedClip
		switch d.Kind {
		case transition.Cut:
			pc = place(next, cursor)

		case transition.Fade:
			prev.FadeOut = d.Duration
			pc = place(next, cursor)
			pc.FadeIn = d.Duration

		case transition.Crossfade:
			pc = place(next, math.Max(0, cursor-d.Duration))
			pc.CrossfadeIn = d.Duration

		case transition.LightLeak:
			pc = place(next, math.Max(0, cursor-d.Duration/2))
			pc.CrossfadeIn = d.Duration / 4
			tl.Overlays = append(tl.Overlays, Overlay{
				Junction: i + 1,
				Start:    pc.Start,
				Duration: d.Duration,
				Width:    tl.Width,
				Height:   tl.Height,
				Color:    overlays.Hex(b.style.Color),
				MaxAlpha: b.style.MaxAlpha,
				FadeIn:   d.Duration * overlays.FadeInFraction,
				FadeOut:  d.Duration * overlays.FadeOutFraction,
			})

		default:
			b.logger.Warn().Int("junction", i+1).Str("kind", d.Kind.String()).Msg("unknown transition, using cut")
			d = transition.Decision{Kind: transition.Cut, Diff: d.Diff}
			pc = place(next, cursor)
		}

		tl.Clips = append(tl.Clips, pc)
		tl.Decisions = append(tl.Decisions, d)
		cursor = pc.End()

		b.logger.Debug().
			Int("clip", pc.Index).
			Str("transition", d.String()).
			Float64("start", pc.Start).
			Float64("cursor", cursor).
			Msg("clip placed")
	}

	tl.updateDuration()
	return tl, nil
}

func place(c *clips.Clip, start float64) PlacedClip {
	return PlacedClip{
		Index:    c.Index,
		Segment:  c.Segment,
		Path:     c.Path,
		Duration: c.Duration,
		Start:    start,
		HasAudio: c.HasAudio,
	}
}
