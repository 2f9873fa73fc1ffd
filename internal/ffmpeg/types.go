package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrFrameUnavailable is returned when no frame could be decoded at the
// requested time
var ErrFrameUnavailable = errors.New("frame unavailable")

// CompositeWriteError reports a failure to produce the stitched output
type CompositeWriteError struct {
	Path string
	Err  error
}

func (e *CompositeWriteError) Error() string {
	return fmt.Sprintf("write composite %s: %v", e.Path, e.Err)
}

func (e *CompositeWriteError) Unwrap() error {
	return e.Err
}

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath     string
	Duration     time.Duration
	Width        int
	Height       int
	FPS          float64
	Bitrate      int64
	VideoCodec   string
	HasAudio     bool
	AudioCodec   string
	AudioBitrate int64
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
	// OutTime is the output position in seconds
	OutTime float64
	Done    bool
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
	// Stdin feeds the process, e.g. a rawvideo stream read from "-i -"
	Stdin io.Reader
	// Stdout receives raw output instead of the log handler
	Stdout io.Writer
}

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
	DefaultFPS        = 30.0
)

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)

// CompositeOptions configures WriteComposite
type CompositeOptions struct {
	// WorkDir holds intermediate overlay renders
	WorkDir      string
	ProgressFunc ProgressFunc
}
