package transition

import (
	"context"
	"image"
	"math"

	"github.com/j3sv1n/zipclip-backend/internal/clips"
	"github.com/j3sv1n/zipclip-backend/internal/similarity"
	"github.com/rs/zerolog"
)

// Sampler decodes a single frame of a clip at t seconds into the clip
type Sampler interface {
	SampleFrame(ctx context.Context, clip *clips.Clip, t float64) (image.Image, error)
}

// Classifier chooses a transition for every junction between adjacent clips
type Classifier struct {
	logger  zerolog.Logger
	sampler Sampler
	scorer  *similarity.Scorer
}

// NewClassifier creates a classifier reading frames through sampler
func NewClassifier(logger zerolog.Logger, sampler Sampler) *Classifier {
	return &Classifier{
		logger:  logger.With().Str("component", "classifier").Logger(),
		sampler: sampler,
		scorer:  similarity.NewScorer(logger),
	}
}

// Classify decides how prev hands over to next. Frame and analysis failures
// fall back to maximal difference and a permissive suitability gate.
func (c *Classifier) Classify(ctx context.Context, prev, next *clips.Clip) Decision {
	if !NeedsFrames(prev.Duration, next.Duration) {
		return Decide(prev.Duration, next.Duration, 1.0, true)
	}

	tail := c.sample(ctx, prev, math.Max(0, prev.Duration-BoundaryInset))
	head := c.sample(ctx, next, BoundaryInset)

	diff := c.scorer.Difference(tail, head)
	suitable := true
	if diff >= FadeMaxDiff {
		suitable = c.scorer.Suitable(tail, head)
	}

	d := Decide(prev.Duration, next.Duration, diff, suitable)
	if d.Downgraded {
		c.logger.Warn().
			Int("from", prev.Index).
			Int("to", next.Index).
			Float64("duration", d.Duration).
			Msg("light leak not suitable, downgrading to crossfade")
	}
	return d
}

// ClassifyAll returns one decision per junction, in order
func (c *Classifier) ClassifyAll(ctx context.Context, cl []*clips.Clip) ([]Decision, error) {
	if len(cl) < 2 {
		return nil, nil
	}

	decisions := make([]Decision, 0, len(cl)-1)
	for i := 1; i < len(cl); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := c.Classify(ctx, cl[i-1], cl[i])
		c.logger.Info().
			Int("junction", i).
			Str("kind", d.Kind.String()).
			Float64("duration", d.Duration).
			Float64("diff", d.Diff).
			Msg("transition decided")
		decisions = append(decisions, d)
	}
	return decisions, nil
}

// sample reads a frame at t, retrying at the clip midpoint. nil means no frame.
func (c *Classifier) sample(ctx context.Context, clip *clips.Clip, t float64) image.Image {
	img, err := c.sampler.SampleFrame(ctx, clip, t)
	if err == nil && img != nil {
		return img
	}

	mid := clip.Duration / 2
	c.logger.Warn().
		Err(err).
		Int("clip", clip.Index).
		Float64("at", t).
		Float64("retry_at", mid).
		Msg("frame unavailable, retrying at midpoint")

	img, err = c.sampler.SampleFrame(ctx, clip, mid)
	if err != nil || img == nil {
		c.logger.Warn().Err(err).Int("clip", clip.Index).Msg("frame unavailable")
		return nil
	}
	return img
}
