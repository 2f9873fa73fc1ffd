package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/j3sv1n/zipclip-backend/internal/timeline"
)

// CompositePlan is the ffmpeg invocation that renders a timeline
type CompositePlan struct {
	Inputs   []string
	Graph    string
	HasAudio bool
	Duration float64
}

// PlanComposite lays out inputs and the filter graph for tl. overlayPaths
// holds one rendered file per timeline overlay, in order.
func PlanComposite(tl *timeline.Timeline, overlayPaths []string) (*CompositePlan, error) {
	if len(tl.Clips) == 0 {
		return nil, timeline.ErrNoClips
	}
	if len(overlayPaths) != len(tl.Overlays) {
		return nil, fmt.Errorf("have %d overlay renders for %d overlays", len(overlayPaths), len(tl.Overlays))
	}

	fps := tl.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	w, h := evenDims(tl.Width, tl.Height)

	plan := &CompositePlan{
		Inputs:   make([]string, 0, len(tl.Clips)+len(overlayPaths)),
		Duration: tl.Duration,
	}

	var g Graph
	g.Chain(nil, fmt.Sprintf("color=c=black:s=%dx%d:r=%s:d=%s", w, h, strconv.FormatFloat(fps, 'f', -1, 64), secs(tl.Duration)), "base")

	prev := "base"
	var audio []string

	for i, c := range tl.Clips {
		plan.Inputs = append(plan.Inputs, c.Path)

		fb := NewFilterBuilder().
			Fit(w, h).
			FPS(fps).
			Format("yuva420p").
			FadeIn(0, c.FadeIn).
			FadeOut(c.Duration-c.FadeOut, c.FadeOut).
			AlphaFadeIn(0, c.CrossfadeIn).
			SetPTS(c.Start)
		label := fmt.Sprintf("v%d", i)
		g.Chain([]string{fmt.Sprintf("%d:v", i)}, fb.Build(), label)

		out := fmt.Sprintf("b%d", i)
		g.Chain([]string{prev, label}, "overlay=eof_action=pass:format=auto", out)
		prev = out

		if c.HasAudio {
			ab := NewFilterBuilder().
				Custom("aresample=async=1").
				AudioFadeIn(0, math.Max(c.FadeIn, c.CrossfadeIn)).
				AudioFadeOut(c.Duration-c.FadeOut, c.FadeOut).
				AudioDelay(c.Start)
			alabel := fmt.Sprintf("a%d", i)
			g.Chain([]string{fmt.Sprintf("%d:a", i)}, ab.Build(), alabel)
			audio = append(audio, alabel)
		}
	}

	for j, o := range tl.Overlays {
		idx := len(tl.Clips) + j
		plan.Inputs = append(plan.Inputs, overlayPaths[j])

		label := fmt.Sprintf("o%d", j)
		fb := NewFilterBuilder().Format("rgba").SetPTS(o.Start)
		g.Chain([]string{fmt.Sprintf("%d:v", idx)}, fb.Build(), label)

		out := fmt.Sprintf("l%d", j)
		g.Chain([]string{prev, label},
			fmt.Sprintf("overlay=eof_action=pass:enable='between(t,%s,%s)'", secs(o.Start), secs(o.End())), out)
		prev = out
	}

	g.Chain([]string{prev}, "format=yuv420p", "vout")

	if len(audio) > 0 {
		g.Chain(audio, fmt.Sprintf("amix=inputs=%d:duration=longest:normalize=0", len(audio)), "aout")
		plan.HasAudio = true
	}

	plan.Graph = g.String()
	return plan, nil
}

// Args returns the ffmpeg arguments writing the plan to output
func (p *CompositePlan) Args(output, preset string, crf int) []string {
	args := make([]string, 0, len(p.Inputs)*2+20)
	for _, in := range p.Inputs {
		args = append(args, "-i", in)
	}
	args = append(args,
		"-filter_complex", p.Graph,
		"-map", "[vout]",
	)
	if p.HasAudio {
		args = append(args, "-map", "[aout]", "-c:a", DefaultAudioCodec)
	}
	args = append(args,
		"-c:v", DefaultVideoCodec,
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		"-pix_fmt", "yuv420p",
		"-t", secs(p.Duration),
		"-movflags", "+faststart",
		output,
	)
	return args
}

// WriteComposite renders tl to output. Single clips and cut-only timelines
// skip the filter graph. The output is locked while it is written.
func (e *Executor) WriteComposite(ctx context.Context, tl *timeline.Timeline, output string, opts CompositeOptions) (err error) {
	if tl == nil || len(tl.Clips) == 0 {
		return &CompositeWriteError{Path: output, Err: timeline.ErrNoClips}
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &CompositeWriteError{Path: output, Err: err}
		}
	}

	lock := flock.New(output + ".lock")
	locked, err := lock.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return &CompositeWriteError{Path: output, Err: fmt.Errorf("lock output: %w", err)}
	}
	if !locked {
		return &CompositeWriteError{Path: output, Err: fmt.Errorf("output is locked by another writer")}
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	e.logger.Info().
		Str("output", output).
		Int("clips", len(tl.Clips)).
		Int("overlays", len(tl.Overlays)).
		Float64("duration", tl.Duration).
		Msg("writing composite")

	switch {
	case len(tl.Clips) == 1 && len(tl.Overlays) == 0:
		err = e.ExtractClip(ctx, tl.Clips[0].Path, ClipOptions{
			Start:        0,
			End:          tl.Clips[0].Duration,
			Output:       output,
			Copy:         true,
			ProgressFunc: opts.ProgressFunc,
		})

	case tl.IsPlainConcat():
		inputs := make([]string, len(tl.Clips))
		for i, c := range tl.Clips {
			inputs[i] = c.Path
		}
		err = e.concatCopy(ctx, inputs, output, opts)

	default:
		err = e.writeGraph(ctx, tl, output, opts)
	}

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &CompositeWriteError{Path: output, Err: err}
	}

	e.logger.Info().Str("output", output).Msg("composite written")
	return nil
}

func (e *Executor) writeGraph(ctx context.Context, tl *timeline.Timeline, output string, opts CompositeOptions) error {
	workDir := opts.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "zipclip-overlays-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	fps := tl.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}

	overlayPaths := make([]string, len(tl.Overlays))
	for i, o := range tl.Overlays {
		path := filepath.Join(workDir, fmt.Sprintf("leak_%03d.mov", i))
		if err := e.RenderOverlay(ctx, o, fps, path); err != nil {
			return err
		}
		overlayPaths[i] = path
	}

	plan, err := PlanComposite(tl, overlayPaths)
	if err != nil {
		return err
	}

	return e.Run(ctx, RunOptions{
		Args:            plan.Args(output, e.preset, e.crf),
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("composite")
		},
	})
}

// evenDims rounds dimensions down to even numbers for yuv420p
func evenDims(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return 1280, 720
	}
	return w &^ 1, h &^ 1
}
