package similarity

import (
	"errors"
	"image"
	"math"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
)

// Light-leak suitability gate
const (
	BrightnessThreshold = 0.55
	WarmThreshold       = 0.06
	SaturationThreshold = 0.25
)

var errEmptyFrame = errors.New("empty frame")

// Stats summarises the colour of a frame, every field in [0,1]
type Stats struct {
	Brightness float64 // mean HSV value
	Saturation float64 // mean HSV saturation
	Warm       float64 // share of pixels with red above green and blue
}

// FrameDifference returns the mean absolute per-channel difference of a and b,
// normalised to [0,1]. A missing frame counts as completely different. When
// sizes differ, both frames are resampled to the smaller width and height so
// the result does not depend on argument order.
func FrameDifference(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 1.0
	}
	if a.Bounds().Empty() || b.Bounds().Empty() {
		return 1.0
	}

	w := min(a.Bounds().Dx(), b.Bounds().Dx())
	h := min(a.Bounds().Dy(), b.Bounds().Dy())
	a = fitTo(a, w, h)
	b = fitTo(b, w, h)
	ab, bb := a.Bounds(), b.Bounds()

	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r1, g1, b1, _ := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			r2, g2, b2, _ := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			sum += absDiff(r1>>8, r2>>8) + absDiff(g1>>8, g2>>8) + absDiff(b1>>8, b2>>8)
		}
	}

	samples := float64(w*h) * 3
	return math.Max(0, math.Min(1, sum/samples/255.0))
}

func fitTo(img image.Image, w, h int) image.Image {
	if img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		return img
	}
	return resize.Resize(uint(w), uint(h), img, resize.Bilinear)
}

// FrameStats computes brightness, saturation and warmth for one frame
func FrameStats(img image.Image) (Stats, error) {
	if img == nil || img.Bounds().Empty() {
		return Stats{}, errEmptyFrame
	}
	bounds := img.Bounds()
	pixels := float64(bounds.Dx() * bounds.Dy())

	var valSum, satSum, warm float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			r, g, b = r>>8, g>>8, b>>8

			hi := max(r, g, b)
			lo := min(r, g, b)
			valSum += float64(hi) / 255.0
			if hi > 0 {
				satSum += float64(hi-lo) / float64(hi)
			}
			if r > g && r > b {
				warm++
			}
		}
	}

	return Stats{
		Brightness: valSum / pixels,
		Saturation: satSum / pixels,
		Warm:       warm / pixels,
	}, nil
}

// SuitableForLightLeak reports whether a warm overlay suits the pair of frames.
// Analysis failures answer true.
func SuitableForLightLeak(a, b image.Image) bool {
	s, err := PairStats(a, b)
	if err != nil {
		return true
	}
	return s.Suitable()
}

// PairStats averages the stats of two frames
func PairStats(a, b image.Image) (Stats, error) {
	sa, err := FrameStats(a)
	if err != nil {
		return Stats{}, err
	}
	sb, err := FrameStats(b)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Brightness: (sa.Brightness + sb.Brightness) / 2,
		Saturation: (sa.Saturation + sb.Saturation) / 2,
		Warm:       (sa.Warm + sb.Warm) / 2,
	}, nil
}

// Suitable applies the light-leak gate to averaged stats
func (s Stats) Suitable() bool {
	return (s.Brightness > BrightnessThreshold && s.Warm > WarmThreshold) || s.Saturation > SaturationThreshold
}

// Scorer wraps the frame metrics with debug logging
type Scorer struct {
	logger zerolog.Logger
}

// NewScorer creates a scorer
func NewScorer(logger zerolog.Logger) *Scorer {
	return &Scorer{
		logger: logger.With().Str("component", "similarity").Logger(),
	}
}

// Difference is FrameDifference with logging
func (s *Scorer) Difference(a, b image.Image) float64 {
	if a == nil || b == nil {
		s.logger.Debug().Bool("a_missing", a == nil).Bool("b_missing", b == nil).Msg("frame missing, treating as different")
	}
	d := FrameDifference(a, b)
	s.logger.Debug().Float64("diff", d).Msg("frame difference")
	return d
}

// Suitable is SuitableForLightLeak with logging
func (s *Scorer) Suitable(a, b image.Image) bool {
	stats, err := PairStats(a, b)
	if err != nil {
		s.logger.Warn().Err(err).Msg("colour analysis failed, allowing light leak")
		return true
	}
	ok := stats.Suitable()
	s.logger.Debug().
		Float64("brightness", stats.Brightness).
		Float64("saturation", stats.Saturation).
		Float64("warm", stats.Warm).
		Bool("suitable", ok).
		Msg("light leak suitability")
	return ok
}

func absDiff(a, b uint32) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
