package ffmpeg

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"strconv"

	"github.com/j3sv1n/zipclip-backend/internal/timeline"
)

// RenderOverlay draws a light-leak overlay frame by frame and encodes it with
// its alpha channel to output (a .mov)
func (e *Executor) RenderOverlay(ctx context.Context, o timeline.Overlay, fps float64, output string) error {
	if o.Duration <= 0 {
		return fmt.Errorf("overlay has no duration")
	}
	if fps <= 0 {
		fps = DefaultFPS
	}

	gen := o.Generator()
	gen.Width, gen.Height = evenDims(gen.Width, gen.Height)
	frames := int(math.Ceil(o.Duration * fps))

	e.logger.Debug().
		Int("junction", o.Junction).
		Int("frames", frames).
		Str("output", output).
		Msg("rendering light leak")

	pr, pw := io.Pipe()
	go func() {
		for i := 0; i < frames; i++ {
			if ctx.Err() != nil {
				pw.CloseWithError(ctx.Err())
				return
			}
			if err := writeRawRGBA(pw, gen.Frame(float64(i)/fps)); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.Close()
	}()

	err := e.Run(ctx, RunOptions{
		Args: []string{
			"-f", "rawvideo",
			"-pixel_format", "rgba",
			"-video_size", fmt.Sprintf("%dx%d", gen.Width, gen.Height),
			"-framerate", strconv.FormatFloat(fps, 'f', -1, 64),
			"-i", "-",
			"-c:v", "qtrle",
			"-pix_fmt", "argb",
			output,
		},
		Stdin: pr,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("light leak render")
		},
	})
	// unblock the writer if ffmpeg stopped reading early
	pr.CloseWithError(io.ErrClosedPipe)

	if err != nil {
		return fmt.Errorf("render light leak: %w", err)
	}
	return nil
}

// writeRawRGBA writes tightly packed 8-bit RGBA pixels
func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == bounds.Dx()*4 && bounds.Min == (image.Point{}) {
		_, err := w.Write(nrgba.Pix)
		return err
	}
	packed := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(packed, packed.Bounds(), img, bounds.Min, draw.Src)
	_, err := w.Write(packed.Pix)
	return err
}
