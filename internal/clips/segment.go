package clips

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// ErrInvalidSegment marks a segment that cannot be cut from the source.
var ErrInvalidSegment = errors.New("invalid segment")

// Segment is a time range in source coordinates, in seconds.
type Segment struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
}

// Duration returns End - Start
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Contains reports whether t lies in the closed range [Start, End]
func (s Segment) Contains(t float64) bool {
	return t >= s.Start && t <= s.End
}

func (s Segment) String() string {
	return fmt.Sprintf("%.2fs-%.2fs", s.Start, s.End)
}

// SegmentError describes why a segment was dropped
type SegmentError struct {
	Index   int
	Segment Segment
	Reason  string
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d (%s): %s", e.Index+1, e.Segment, e.Reason)
}

func (e *SegmentError) Unwrap() error {
	return ErrInvalidSegment
}

// NormalizeSegments caps every end at sourceDuration-margin and drops segments
// that are empty, start before zero, or carry non-finite bounds. Order is kept.
// A sourceDuration <= 0 disables the cap.
func NormalizeSegments(logger zerolog.Logger, segs []Segment, sourceDuration, margin float64) ([]Segment, []*SegmentError) {
	valid := make([]Segment, 0, len(segs))
	var dropped []*SegmentError

	maxTime := sourceDuration - margin

	for i, seg := range segs {
		drop := func(reason string) {
			err := &SegmentError{Index: i, Segment: seg, Reason: reason}
			logger.Warn().Err(err).Msg("skipping segment")
			dropped = append(dropped, err)
		}

		if math.IsNaN(seg.Start) || math.IsNaN(seg.End) || math.IsInf(seg.Start, 0) || math.IsInf(seg.End, 0) {
			drop("non-finite bound")
			continue
		}
		if seg.Start < 0 {
			drop("negative start")
			continue
		}

		if sourceDuration > 0 && seg.End > maxTime {
			logger.Warn().
				Int("segment", i+1).
				Float64("end", seg.End).
				Float64("capped", maxTime).
				Msg("segment end exceeds video duration, capping")
			seg.End = maxTime
		}

		if seg.Start >= seg.End {
			drop("start is not before end")
			continue
		}

		valid = append(valid, seg)
	}

	return valid, dropped
}
