package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/j3sv1n/zipclip-backend/internal/clips"
	"github.com/j3sv1n/zipclip-backend/internal/ffmpeg"
	"github.com/j3sv1n/zipclip-backend/internal/timeline"
	"gopkg.in/yaml.v3"
)

// ErrNoValidSegments is returned when every requested segment was dropped
// or failed to extract
var ErrNoValidSegments = errors.New("no valid segments")

// MediaIO is everything the pipeline needs from the media toolchain.
// *ffmpeg.Executor implements it.
type MediaIO interface {
	OpenClip(ctx context.Context, path string) (*clips.Source, error)
	ExtractSubclip(ctx context.Context, src *clips.Source, seg clips.Segment, out string) (*clips.Clip, error)
	SampleFrame(ctx context.Context, clip *clips.Clip, t float64) (image.Image, error)
	WriteComposite(ctx context.Context, tl *timeline.Timeline, output string, opts ffmpeg.CompositeOptions) error
	ApplySubtitles(ctx context.Context, input, subtitles, output string, progressFunc ffmpeg.ProgressFunc) error
}

// Job is one stitch request: a source video and the ranges to keep
type Job struct {
	Input      string          `yaml:"input"`
	Segments   []clips.Segment `yaml:"segments"`
	Transcript string          `yaml:"transcript,omitempty"`
	Output     string          `yaml:"output,omitempty"`
	// Title names the default output file; the input name is used when empty
	Title string `yaml:"title,omitempty"`
}

// Validate checks the fields a job cannot run without
func (j Job) Validate() error {
	if j.Input == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if len(j.Segments) == 0 {
		return fmt.Errorf("job %s has no segments", j.Input)
	}
	return nil
}

// Plan is a built timeline together with the clips backing it. Close
// releases the clip files.
type Plan struct {
	JobID    string
	Source   *clips.Source
	Timeline *timeline.Timeline
	// Dropped lists segments rejected during normalisation
	Dropped []*clips.SegmentError
	// Failed counts segments that normalised but could not be extracted
	Failed int

	set *clips.Set
}

// Remapper returns a source-to-stitched mapper for the plan's timeline
func (p *Plan) Remapper(offset float64) *timeline.Remapper {
	return timeline.NewRemapper(p.Timeline.Mapping(), offset)
}

// Close removes the plan's temporary clips
func (p *Plan) Close() error {
	if p.set == nil {
		return nil
	}
	return p.set.Close()
}

// Result describes a finished stitch job
type Result struct {
	JobID    string
	Input    string
	Output   string
	Timeline *timeline.Timeline
	Dropped  int
	Captions int
	Err      error
}

type jobFile struct {
	Jobs []Job `yaml:"jobs"`
}

// ReadJobs loads a batch file. Both a top-level list and a {jobs: [...]}
// document are accepted; JSON parses as YAML.
func ReadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs: %w", err)
	}

	var jobs []Job
	if err := yaml.Unmarshal(data, &jobs); err != nil {
		var wrapped jobFile
		if err2 := yaml.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("parse jobs %s: %w", path, err)
		}
		jobs = wrapped.Jobs
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("jobs file %s contains no jobs", path)
	}
	for i, j := range jobs {
		if err := j.Validate(); err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
	}
	return jobs, nil
}
