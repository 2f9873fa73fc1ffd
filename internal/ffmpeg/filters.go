package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterBuilder helps construct complex ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// Fit scales into width x height keeping the aspect ratio and pads the rest
func (fb *FilterBuilder) Fit(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters,
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", width, height),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", width, height),
		"setsar=1",
	)
	return fb
}

// FPS adds an fps filter
func (fb *FilterBuilder) FPS(fps float64) *FilterBuilder {
	if fps <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fps=%f", fps))
	return fb
}

// Format adds a pixel format conversion
func (fb *FilterBuilder) Format(pixFmt string) *FilterBuilder {
	if pixFmt == "" {
		return fb
	}
	fb.filters = append(fb.filters, "format="+pixFmt)
	return fb
}

// FadeIn fades from black over d seconds starting at st
func (fb *FilterBuilder) FadeIn(st, d float64) *FilterBuilder {
	if d <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fade=t=in:st=%s:d=%s", secs(st), secs(d)))
	return fb
}

// FadeOut fades to black over d seconds starting at st
func (fb *FilterBuilder) FadeOut(st, d float64) *FilterBuilder {
	if d <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fade=t=out:st=%s:d=%s", secs(st), secs(d)))
	return fb
}

// AlphaFadeIn ramps the alpha channel from transparent over d seconds
func (fb *FilterBuilder) AlphaFadeIn(st, d float64) *FilterBuilder {
	if d <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fade=t=in:st=%s:d=%s:alpha=1", secs(st), secs(d)))
	return fb
}

// SetPTS shifts the stream so it starts at offset seconds
func (fb *FilterBuilder) SetPTS(offset float64) *FilterBuilder {
	if offset <= 0 {
		fb.filters = append(fb.filters, "setpts=PTS-STARTPTS")
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("setpts=PTS-STARTPTS+%s/TB", secs(offset)))
	return fb
}

// AudioFadeIn adds an afade in
func (fb *FilterBuilder) AudioFadeIn(st, d float64) *FilterBuilder {
	if d <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("afade=t=in:st=%s:d=%s", secs(st), secs(d)))
	return fb
}

// AudioFadeOut adds an afade out
func (fb *FilterBuilder) AudioFadeOut(st, d float64) *FilterBuilder {
	if d <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("afade=t=out:st=%s:d=%s", secs(st), secs(d)))
	return fb
}

// AudioDelay delays every channel by offset seconds
func (fb *FilterBuilder) AudioDelay(offset float64) *FilterBuilder {
	ms := int64(offset*1000 + 0.5)
	if ms <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("adelay=delays=%d:all=1", ms))
	return fb
}

// Custom adds a custom filter string
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

// Graph assembles a filter_complex out of labelled chains
type Graph struct {
	chains []string
}

// Chain adds "[in0][in1]filters[out]". An empty filter becomes a passthrough.
func (g *Graph) Chain(inputs []string, filters string, output string) {
	var b strings.Builder
	for _, in := range inputs {
		b.WriteString("[" + in + "]")
	}
	if filters == "" {
		filters = "null"
	}
	b.WriteString(filters)
	if output != "" {
		b.WriteString("[" + output + "]")
	}
	g.chains = append(g.chains, b.String())
}

// Len returns the number of chains
func (g *Graph) Len() int {
	return len(g.chains)
}

// String joins the chains with semicolons
func (g *Graph) String() string {
	return strings.Join(g.chains, ";")
}

// secs formats seconds for filter arguments with millisecond precision
func secs(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
