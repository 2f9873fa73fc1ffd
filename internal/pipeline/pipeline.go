package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/j3sv1n/zipclip-backend/internal/captions"
	"github.com/j3sv1n/zipclip-backend/internal/clips"
	"github.com/j3sv1n/zipclip-backend/internal/config"
	"github.com/j3sv1n/zipclip-backend/internal/ffmpeg"
	"github.com/j3sv1n/zipclip-backend/internal/logging"
	"github.com/j3sv1n/zipclip-backend/internal/overlays"
	"github.com/j3sv1n/zipclip-backend/internal/timeline"
	"github.com/j3sv1n/zipclip-backend/internal/transition"
	"github.com/j3sv1n/zipclip-backend/pkg/util"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Pipeline orchestrates a stitch job: extract, classify, place, composite
// and caption
type Pipeline struct {
	logger   zerolog.Logger
	config   *config.Config
	media    MediaIO
	registry *overlays.Registry
}

// New creates a pipeline backed by the ffmpeg executor
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	ffmpegExec, err := ffmpeg.New(logger, ffmpeg.Options{
		BinaryPath: cfg.FFmpeg.BinaryPath,
		Threads:    cfg.FFmpeg.Threads,
		Preset:     cfg.FFmpeg.Preset,
		CRF:        cfg.FFmpeg.CRF,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	return NewWithMedia(logger, cfg, ffmpegExec)
}

// NewWithMedia creates a pipeline over any MediaIO
func NewWithMedia(logger zerolog.Logger, cfg *config.Config, media MediaIO) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if media == nil {
		return nil, fmt.Errorf("media backend cannot be nil")
	}

	registry := overlays.NewRegistry()
	for name, hex := range cfg.Overlays.Presets {
		if err := registry.RegisterHex(name, hex); err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		logger:   logger.With().Str("component", "pipeline").Logger(),
		config:   cfg,
		media:    media,
		registry: registry,
	}, nil
}

// Registry exposes the light-leak colour presets
func (p *Pipeline) Registry() *overlays.Registry {
	return p.registry
}

// Plan extracts the job's segments, classifies every junction and builds the
// timeline without writing any video. The caller must Close the plan.
func (p *Pipeline) Plan(ctx context.Context, job Job) (*Plan, error) {
	return p.plan(ctx, uuid.NewString(), job)
}

func (p *Pipeline) plan(ctx context.Context, jobID string, job Job) (*Plan, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	logger := logging.WithJob(p.logger, jobID)

	leakColor, err := p.registry.Resolve(p.config.LightLeak.Style, p.config.LightLeak.Color)
	if err != nil {
		return nil, err
	}

	src, err := p.media.OpenClip(ctx, job.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}

	logger.Info().
		Str("input", src.Path).
		Float64("duration", src.Duration).
		Int("width", src.Width).
		Int("height", src.Height).
		Float64("fps", src.FPS).
		Msg("source opened")

	segs, dropped := clips.NormalizeSegments(logger, job.Segments, src.Duration, p.config.Stitch.SafetyMargin)

	set, err := clips.NewSet(p.workDir())
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		JobID:   jobID,
		Source:  src,
		Dropped: dropped,
		set:     set,
	}

	for _, seg := range segs {
		if err := ctx.Err(); err != nil {
			plan.Close()
			return nil, err
		}

		clip, err := p.media.ExtractSubclip(ctx, src, seg, set.Path("clip", ".mp4"))
		if err != nil {
			if ctx.Err() != nil {
				plan.Close()
				return nil, ctx.Err()
			}
			logger.Warn().Err(err).Str("segment", seg.String()).Msg("failed to extract segment, skipping")
			plan.Failed++
			continue
		}
		clip.ID = uuid.NewString()
		set.Add(clip)
	}

	if set.Len() == 0 {
		plan.Close()
		return nil, fmt.Errorf("%s: %w", job.Input, ErrNoValidSegments)
	}

	logger.Info().
		Int("requested", len(job.Segments)).
		Int("extracted", set.Len()).
		Int("dropped", len(dropped)+plan.Failed).
		Msg("segments extracted")

	cl := set.All()
	decisions, err := transition.NewClassifier(logger, p.media).ClassifyAll(ctx, cl)
	if err != nil {
		plan.Close()
		return nil, fmt.Errorf("failed to classify transitions: %w", err)
	}

	builder := timeline.NewBuilder(logger, timeline.LeakStyle{
		Color:    leakColor,
		MaxAlpha: p.config.LightLeak.MaxAlpha,
	}, p.config.FFmpeg.FPS)

	tl, err := builder.Build(cl, decisions)
	if err != nil {
		plan.Close()
		return nil, fmt.Errorf("failed to build timeline: %w", err)
	}
	plan.Timeline = tl

	logger.Info().
		Int("clips", len(tl.Clips)).
		Int("overlays", len(tl.Overlays)).
		Float64("duration", tl.Duration).
		Msg("timeline built")

	return plan, nil
}

// Stitch runs a job end to end and writes the stitched (and, with a
// transcript, captioned) video
func (p *Pipeline) Stitch(ctx context.Context, job Job, progress ffmpeg.ProgressFunc) (*Result, error) {
	jobID := uuid.NewString()
	logger := logging.WithJob(p.logger, jobID)

	plan, err := p.plan(ctx, jobID, job)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := plan.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to clean up clips")
		}
	}()

	output := job.Output
	if output == "" {
		output = p.defaultOutput(job, jobID)
	}
	if err := util.EnsureDir(filepath.Dir(output)); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	result := &Result{
		JobID:    jobID,
		Input:    job.Input,
		Output:   output,
		Timeline: plan.Timeline,
		Dropped:  len(plan.Dropped) + plan.Failed,
	}

	var windows []captions.Window
	if job.Transcript != "" && p.config.Captions.Enabled {
		windows, err = p.placeCaptions(logger, job.Transcript, plan)
		if err != nil {
			return nil, err
		}
	}

	composite := output
	if len(windows) > 0 {
		composite = plan.set.Path("stitched", ".mp4")
	}

	err = p.media.WriteComposite(ctx, plan.Timeline, composite, ffmpeg.CompositeOptions{
		WorkDir:      plan.set.Dir(),
		ProgressFunc: progress,
	})
	if err != nil {
		return nil, err
	}

	if len(windows) > 0 {
		subs := plan.set.Path("captions", ".ass")
		style := captions.Style{
			FontName:     p.config.Captions.FontName,
			FontSize:     p.config.Captions.FontSize,
			FontColor:    p.config.Captions.FontColor,
			OutlineWidth: p.config.Captions.OutlineWidth,
			Position:     p.config.Captions.Position,
			Width:        plan.Timeline.Width,
			Height:       plan.Timeline.Height,
		}
		if err := captions.WriteASSFile(subs, windows, style); err != nil {
			return nil, err
		}
		if err := p.media.ApplySubtitles(ctx, composite, subs, output, progress); err != nil {
			return nil, fmt.Errorf("failed to burn captions: %w", err)
		}
		result.Captions = len(windows)
	}

	logger.Info().
		Str("output", output).
		Float64("duration", plan.Timeline.Duration).
		Int("captions", result.Captions).
		Msg("stitch complete")

	return result, nil
}

func (p *Pipeline) placeCaptions(logger zerolog.Logger, path string, plan *Plan) ([]captions.Window, error) {
	tr, err := captions.LoadTranscript(path)
	if err != nil {
		return nil, err
	}

	chunks := captions.SplitWords(tr, p.config.Captions.WordsPerChunk)
	windows := captions.Place(logger, chunks, plan.Remapper(p.config.Stitch.RemapOffset), captions.PlaceOptions{
		Shift:         p.config.Captions.Offset,
		Fade:          p.config.Captions.Fade,
		MinDuration:   p.config.Captions.MinDuration,
		VideoDuration: plan.Timeline.Duration,
	})

	if len(windows) == 0 {
		logger.Warn().Str("transcript", path).Msg("no caption falls inside the stitched video")
	}
	return windows, nil
}

// Batch stitches independent jobs concurrently, at most config.Concurrency at
// a time. A failed job does not stop the others; its error is on its Result.
func (p *Pipeline) Batch(ctx context.Context, jobs []Job, progress func(index int, pr *ffmpeg.Progress)) []*Result {
	results := make([]*Result, len(jobs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.config.Concurrency, 1))

	for i, job := range jobs {
		g.Go(func() error {
			var fn ffmpeg.ProgressFunc
			if progress != nil {
				fn = func(pr *ffmpeg.Progress) { progress(i, pr) }
			}

			res, err := p.Stitch(ctx, job, fn)
			if err != nil {
				p.logger.Error().Err(err).Str("input", job.Input).Msg("job failed")
				res = &Result{Input: job.Input, Err: err}
			}

			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Failed returns the results that carry an error, joined
func Failed(results []*Result) error {
	var errs []error
	for _, r := range results {
		if r != nil && r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Input, r.Err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) workDir() string {
	if p.config.WorkDir != "" {
		return p.config.WorkDir
	}
	return p.config.TempDir
}

// defaultOutput is <output_dir>/<slug>_<job>_zipped.mp4
func (p *Pipeline) defaultOutput(job Job, jobID string) string {
	title := job.Title
	if title == "" {
		base := filepath.Base(job.Input)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	slug := util.Slug(title)
	if slug == "" {
		slug = "video"
	}

	dir := p.config.OutputDir
	if dir == "" {
		dir = "output"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s_zipped.mp4", slug, jobID[:8]))
}
