package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// concatCopy joins clips end to end with the concat demuxer. The clips come
// from the same extraction settings, so streams are copied untouched.
func (e *Executor) concatCopy(ctx context.Context, inputs []string, output string, opts CompositeOptions) error {
	if len(inputs) == 0 {
		return fmt.Errorf("nothing to concatenate")
	}

	list, err := writeConcatList(opts.WorkDir, inputs)
	if err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(list)

	e.logger.Debug().
		Int("inputs", len(inputs)).
		Str("list", list).
		Msg("cut-only timeline, concatenating")

	return e.Run(ctx, RunOptions{
		Args: []string{
			"-f", "concat",
			"-safe", "0",
			"-i", list,
			"-c", "copy",
			"-movflags", "+faststart",
			output,
		},
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("concat")
		},
	})
}

// writeConcatList writes a demuxer playlist into dir (the system temp dir
// when empty) and returns its path
func writeConcatList(dir string, inputs []string) (string, error) {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(abs))
	}

	f, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// escapeConcatPath quotes single quotes for the concat demuxer
func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}
