package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/j3sv1n/zipclip-backend/internal/clips"
	"github.com/j3sv1n/zipclip-backend/pkg/util"
	"golang.org/x/image/bmp"
)

// SampleFrame decodes the frame at t seconds into clip as 8-bit RGB
func (e *Executor) SampleFrame(ctx context.Context, clip *clips.Clip, t float64) (image.Image, error) {
	if clip == nil || clip.Path == "" {
		return nil, fmt.Errorf("sample frame: %w: no clip", ErrFrameUnavailable)
	}
	if t < 0 || math.IsNaN(t) {
		t = 0
	}

	var buf bytes.Buffer
	err := e.Run(ctx, RunOptions{
		Args: []string{
			"-ss", util.FormatSeconds(t),
			"-i", clip.Path,
			"-frames:v", "1",
			"-an",
			"-f", "image2pipe",
			"-pix_fmt", "bgr24",
			"-vcodec", "bmp",
			"-",
		},
		Stdout: &buf,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("frame sample")
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("sample %s at %.3fs: %w: %v", clip.Path, t, ErrFrameUnavailable, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("sample %s at %.3fs: %w: empty output", clip.Path, t, ErrFrameUnavailable)
	}

	img, err := bmp.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("sample %s at %.3fs: %w: %v", clip.Path, t, ErrFrameUnavailable, err)
	}
	return img, nil
}
