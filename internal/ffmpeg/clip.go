package ffmpeg

import (
	"context"
	"fmt"
	"strconv"

	"github.com/j3sv1n/zipclip-backend/internal/clips"
	"github.com/j3sv1n/zipclip-backend/pkg/util"
)

// ClipOptions selects a time range of an input, in seconds
type ClipOptions struct {
	Start  float64
	End    float64
	Output string
	// Copy remuxes without re-encoding; cuts then snap to keyframes
	Copy         bool
	ProgressFunc ProgressFunc
}

// encodeArgs are the output codec settings shared by every re-encoding step
func (e *Executor) encodeArgs(withAudio bool) []string {
	args := []string{
		"-c:v", DefaultVideoCodec,
		"-preset", e.preset,
		"-crf", strconv.Itoa(e.crf),
		"-pix_fmt", "yuv420p",
	}
	if withAudio {
		args = append(args, "-c:a", DefaultAudioCodec)
	}
	return args
}

// ExtractClip writes [Start, End) of input to opts.Output. Seeking happens
// after the input so cuts are frame accurate when re-encoding.
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	length := opts.End - opts.Start
	if length <= 0 {
		return fmt.Errorf("invalid clip range %.3f-%.3f", opts.Start, opts.End)
	}

	e.logger.Debug().
		Str("input", input).
		Str("output", opts.Output).
		Float64("start", opts.Start).
		Float64("length", length).
		Bool("copy", opts.Copy).
		Msg("extracting clip")

	args := []string{"-i", input, "-ss", util.FormatSeconds(opts.Start), "-t", util.FormatSeconds(length)}
	if opts.Copy {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, e.encodeArgs(true)...)
	}
	args = append(args, "-avoid_negative_ts", "make_zero", opts.Output)

	err := e.Run(ctx, RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("clip extraction")
		},
	})
	if err != nil {
		return fmt.Errorf("extract %s: %w", util.FormatSeconds(opts.Start), err)
	}
	return nil
}

// ExtractSubclip re-encodes seg of src into out and probes the result. The
// segment length stands in when the probe cannot report a duration.
func (e *Executor) ExtractSubclip(ctx context.Context, src *clips.Source, seg clips.Segment, out string) (*clips.Clip, error) {
	err := e.ExtractClip(ctx, src.Path, ClipOptions{
		Start:  seg.Start,
		End:    seg.End,
		Output: out,
	})
	if err != nil {
		return nil, err
	}

	clip := &clips.Clip{
		Segment:  seg,
		Path:     out,
		Duration: seg.Duration(),
		Width:    src.Width,
		Height:   src.Height,
		FPS:      src.FPS,
		HasAudio: src.HasAudio,
	}

	info, err := e.ProbeVideo(ctx, out)
	if err != nil {
		e.logger.Warn().Err(err).Str("clip", out).Msg("probe of extracted clip failed, using segment length")
		return clip, nil
	}
	if d := info.Duration.Seconds(); d > 0 {
		clip.Duration = d
	}
	clip.Width, clip.Height = info.Width, info.Height
	clip.HasAudio = info.HasAudio
	if info.FPS > 0 {
		clip.FPS = info.FPS
	}
	return clip, nil
}
