package timeline

import (
	"math"

	"github.com/j3sv1n/zipclip-backend/internal/clips"
	"github.com/j3sv1n/zipclip-backend/internal/overlays"
	"github.com/j3sv1n/zipclip-backend/internal/transition"
)

// PlacedClip is a clip positioned on the stitched timeline. Zero fade fields
// mean no fade.
type PlacedClip struct {
	Index       int           `yaml:"index"`
	Segment     clips.Segment `yaml:"segment"`
	Path        string        `yaml:"path,omitempty"`
	Duration    float64       `yaml:"duration"`
	Start       float64       `yaml:"start"`
	FadeIn      float64       `yaml:"fade_in,omitempty"`
	FadeOut     float64       `yaml:"fade_out,omitempty"`
	CrossfadeIn float64       `yaml:"crossfade_in,omitempty"`
	HasAudio    bool          `yaml:"has_audio,omitempty"`
}

// End returns the stitched time the clip stops playing
func (p PlacedClip) End() float64 {
	return p.Start + p.Duration
}

// Overlay is a light leak laid above every clip
type Overlay struct {
	Junction int     `yaml:"junction"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"`
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Color    string  `yaml:"color"`
	MaxAlpha float64 `yaml:"max_alpha"`
	FadeIn   float64 `yaml:"fade_in"`
	FadeOut  float64 `yaml:"fade_out"`
}

// End returns the stitched time the overlay disappears
func (o Overlay) End() float64 {
	return o.Start + o.Duration
}

// Generator returns the mask generator that draws this overlay
func (o Overlay) Generator() *overlays.LightLeak {
	c, err := overlays.ParseColor(o.Color)
	if err != nil {
		c = overlays.DefaultColor
	}
	return overlays.NewLightLeak(o.Width, o.Height, o.Duration, c, o.MaxAlpha)
}

// Timeline is the composited result of a stitch
type Timeline struct {
	Width     int                   `yaml:"width"`
	Height    int                   `yaml:"height"`
	FPS       float64               `yaml:"fps"`
	Duration  float64               `yaml:"duration"`
	Clips     []PlacedClip          `yaml:"clips"`
	Decisions []transition.Decision `yaml:"decisions"`
	Overlays  []Overlay             `yaml:"overlays"`
}

// Mapping returns the source-to-stitched triples in placement order
func (t *Timeline) Mapping() Mapping {
	m := make(Mapping, 0, len(t.Clips))
	for _, c := range t.Clips {
		m = append(m, Span{
			SourceStart:   c.Segment.Start,
			SourceEnd:     c.Segment.End,
			StitchedStart: c.Start,
		})
	}
	return m
}

// HasAudio reports whether any clip carries audio
func (t *Timeline) HasAudio() bool {
	for _, c := range t.Clips {
		if c.HasAudio {
			return true
		}
	}
	return false
}

// IsPlainConcat reports whether every junction is a cut and there are no
// overlays, so the clips can be joined end to end
func (t *Timeline) IsPlainConcat() bool {
	if len(t.Overlays) > 0 {
		return false
	}
	for _, d := range t.Decisions {
		if d.Kind != transition.Cut {
			return false
		}
	}
	return true
}

func (t *Timeline) updateDuration() {
	var end float64
	for _, c := range t.Clips {
		end = math.Max(end, c.End())
	}
	for _, o := range t.Overlays {
		end = math.Max(end, o.End())
	}
	t.Duration = end
}
