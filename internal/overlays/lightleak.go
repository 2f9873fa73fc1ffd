package overlays

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
)

// DefaultMaxAlpha is the peak opacity of a light leak
const DefaultMaxAlpha = 0.7

// Fractions of the overlay lifetime spent fading in and out
const (
	FadeInFraction  = 0.25
	FadeOutFraction = 0.60
)

const (
	driftFrom     = 0.15 // blob centre x at t=0, fraction of width
	driftTo       = 0.85
	bobBase       = 0.40 // blob centre y, fraction of height
	bobAmplitude  = 0.05
	sigmaBase     = 0.40 // fraction of the larger frame side
	sigmaNarrow   = 0.40 // sigma shrinks by this share at the midpoint
	temporalSigma = 0.25 // in units of overlay lifetime
)

// LightLeak generates the animated warm blob laid over a transition
type LightLeak struct {
	Width    int
	Height   int
	Duration float64
	Color    color.RGBA
	MaxAlpha float64

	// Downscale renders frames at 1/Downscale resolution and resamples up
	Downscale int
}

// NewLightLeak creates a generator for a w x h overlay lasting duration seconds
func NewLightLeak(w, h int, duration float64, c color.RGBA, maxAlpha float64) *LightLeak {
	if maxAlpha <= 0 {
		maxAlpha = DefaultMaxAlpha
	}
	return &LightLeak{
		Width:     w,
		Height:    h,
		Duration:  duration,
		Color:     c,
		MaxAlpha:  maxAlpha,
		Downscale: 4,
	}
}

// progress maps t to [0,1] over the overlay lifetime
func (l *LightLeak) progress(t float64) float64 {
	if l.Duration <= 0 {
		return 0.5
	}
	return math.Max(0, math.Min(1, t/l.Duration))
}

// Centre returns the blob centre in pixels at t
func (l *LightLeak) Centre(t float64) (float64, float64) {
	p := l.progress(t)
	cx := float64(l.Width) * (driftFrom + (driftTo-driftFrom)*p)
	cy := float64(l.Height) * (bobBase + bobAmplitude*math.Sin(2*math.Pi*p))
	return cx, cy
}

// Sigma returns the blob spread in pixels at t, smallest at the midpoint
func (l *LightLeak) Sigma(t float64) float64 {
	p := l.progress(t)
	closeness := 1 - math.Abs(2*p-1)
	side := float64(max(l.Width, l.Height))
	return side * sigmaBase * (1 - sigmaNarrow*closeness)
}

// Intensity is the temporal Gaussian, 1 at the midpoint
func (l *LightLeak) Intensity(t float64) float64 {
	d := l.progress(t) - 0.5
	return math.Exp(-(d * d) / (2 * temporalSigma * temporalSigma))
}

// Envelope is the overlay opacity ramp: up over the first 25% of the
// lifetime, down over the last 60%.
func (l *LightLeak) Envelope(t float64) float64 {
	if l.Duration <= 0 {
		return 0
	}
	in := l.Duration * FadeInFraction
	out := l.Duration * FadeOutFraction
	switch {
	case t <= 0 || t >= l.Duration:
		return 0
	case t < in:
		return t / in
	case t > l.Duration-out:
		return (l.Duration - t) / out
	default:
		return 1
	}
}

// Alpha returns the mask value at pixel (x, y) and time t, peaking at MaxAlpha
func (l *LightLeak) Alpha(t float64, x, y float64) float64 {
	cx, cy := l.Centre(t)
	sigma := l.Sigma(t)
	dx, dy := x-cx, y-cy
	spatial := math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
	return l.MaxAlpha * spatial * l.Intensity(t)
}

// Mask renders the full-resolution alpha mask at t
func (l *LightLeak) Mask(t float64) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, l.Width, l.Height))
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			a := l.Alpha(t, float64(x)+0.5, float64(y)+0.5)
			mask.Pix[y*mask.Stride+x] = toByte(a)
		}
	}
	return mask
}

// Frame renders the coloured overlay at t with the opacity envelope applied.
// Pixels are non-premultiplied, ready for an rgba rawvideo stream.
func (l *LightLeak) Frame(t float64) *image.NRGBA {
	scale := max(l.Downscale, 1)
	w := max(l.Width/scale, 1)
	h := max(l.Height/scale, 1)
	fx := float64(l.Width) / float64(w)
	fy := float64(l.Height) / float64(h)
	env := l.Envelope(t)

	small := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := l.Alpha(t, (float64(x)+0.5)*fx, (float64(y)+0.5)*fy) * env
			i := y*small.Stride + x*4
			small.Pix[i] = l.Color.R
			small.Pix[i+1] = l.Color.G
			small.Pix[i+2] = l.Color.B
			small.Pix[i+3] = toByte(a)
		}
	}

	if w == l.Width && h == l.Height {
		return small
	}

	scaled := resize.Resize(uint(l.Width), uint(l.Height), small, resize.Bilinear)
	if out, ok := scaled.(*image.NRGBA); ok {
		return out
	}
	out := image.NewNRGBA(image.Rect(0, 0, l.Width, l.Height))
	draw.Draw(out, out.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	return out
}

func toByte(a float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, a)) * 255))
}
