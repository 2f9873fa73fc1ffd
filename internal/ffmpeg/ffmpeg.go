package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Options configures the executor
type Options struct {
	BinaryPath string
	Threads    int
	Preset     string
	CRF        int
}

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
	preset      string
	crf         int
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	bin := opts.BinaryPath
	if bin == "" {
		bin = "ffmpeg"
	}
	ffmpegPath, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	// ffprobe ships next to a configured ffmpeg binary
	probe := "ffprobe"
	if dir := filepath.Dir(bin); dir != "." {
		probe = filepath.Join(dir, "ffprobe")
	}
	ffprobePath, err := exec.LookPath(probe)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     opts.Threads,
		preset:      preset,
		crf:         crf,
	}, nil
}

// Run executes ffmpeg with the given arguments and streams progress
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	// Build args with threads BEFORE other arguments
	baseArgs := []string{"-y", "-hide_banner", "-nostdin", "-loglevel", "error"}
	if opts.Stdin != nil {
		baseArgs = []string{"-y", "-hide_banner", "-loglevel", "error"}
	}

	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", strconv.Itoa(e.threads))
	}

	baseArgs = append(baseArgs, "-progress", "pipe:2")
	args := append(baseArgs, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := newLineTail(8)
	var copyErr error

	var wg sync.WaitGroup
	wg.Add(2)

	// Stream stderr (progress + logs)
	go func() {
		defer wg.Done()
		e.streamOutput(stderr, opts.ProgressHandler, func(line string) {
			tail.add(line)
			if opts.LogHandler != nil {
				opts.LogHandler(line)
			}
		})
	}()

	// Stream stdout, raw when the caller wants the bytes
	go func() {
		defer wg.Done()
		if opts.Stdout != nil {
			_, copyErr = io.Copy(opts.Stdout, stdout)
			return
		}
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if msg := tail.String(); msg != "" {
			return fmt.Errorf("ffmpeg execution failed: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	if copyErr != nil && !errors.Is(copyErr, io.EOF) {
		return fmt.Errorf("read ffmpeg output: %w", copyErr)
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

// streamOutput parses ffmpeg output and calls handlers
func (e *Executor) streamOutput(r io.Reader, progressHandler func(*Progress), logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	progressData := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		key, value, isKV := strings.Cut(line, "=")
		if !isKV || strings.ContainsAny(key, " \t") {
			if logHandler != nil {
				logHandler(line)
			}
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "frame":
			progressData.Frame, _ = strconv.Atoi(value)
		case "fps":
			progressData.FPS, _ = strconv.ParseFloat(value, 64)
		case "bitrate":
			progressData.Bitrate = value
		case "out_time":
			progressData.Time = value
		case "out_time_us", "out_time_ms":
			// both keys carry microseconds
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us > 0 {
				progressData.OutTime = float64(us) / 1e6
			}
		case "speed":
			progressData.Speed = value
		case "progress":
			// End of progress block
			progressData.Done = value == "end"
			if progressHandler != nil && (progressData.Frame > 0 || progressData.OutTime > 0 || progressData.Done) {
				progressHandler(progressData)
			}
			progressData = &Progress{}
		default:
			if logHandler != nil {
				logHandler(line)
			}
		}
	}
}

// lineTail keeps the last few log lines for error messages
type lineTail struct {
	mu    sync.Mutex
	lines []string
	size  int
}

func newLineTail(size int) *lineTail {
	return &lineTail{size: size}
}

func (t *lineTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.size {
		t.lines = t.lines[len(t.lines)-t.size:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "; ")
}
