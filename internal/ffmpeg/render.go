package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// ApplySubtitles burns an ASS/SRT file into input, copying the audio
func (e *Executor) ApplySubtitles(ctx context.Context, input, subtitles, output string, progressFunc ProgressFunc) error {
	switch {
	case input == "":
		return fmt.Errorf("input path is required")
	case subtitles == "":
		return fmt.Errorf("subtitles path is required")
	case output == "":
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("input", input).
		Str("subtitles", subtitles).
		Str("output", output).
		Msg("burning captions")

	args := []string{"-i", input, "-vf", NewFilterBuilder().Custom(SubtitlesFilter(subtitles)).Build()}
	args = append(args, e.encodeArgs(false)...)
	args = append(args, "-c:a", "copy", "-movflags", "+faststart", output)

	err := e.Run(ctx, RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("captions")
		},
	})
	if err != nil {
		return fmt.Errorf("burn captions: %w", err)
	}
	return nil
}

// SubtitlesFilter returns the subtitles= filter for path
func SubtitlesFilter(path string) string {
	return "subtitles=" + escapeFilterPath(path)
}

// escapeFilterPath makes path safe as a filter option value. Windows drive
// colons need escaping like any other colon.
func escapeFilterPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if runtime.GOOS == "windows" {
		path = filepath.ToSlash(path)
	}
	return strings.NewReplacer(`\`, `\\`, ":", `\:`, "'", `\'`).Replace(path)
}
