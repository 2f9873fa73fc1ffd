package transition

import (
	"fmt"
	"math"
	"strings"
)

// Kind is how two adjacent clips are joined
type Kind int

const (
	Cut Kind = iota
	Fade
	Crossfade
	LightLeak
)

// Classification thresholds, all compared with strict less-than
const (
	MinClipDuration   = 1.5
	CrossfadeMaxDiff  = 0.06
	FadeMaxDiff       = 0.18
	MaxBlendDuration  = 1.0
	MaxLeakDuration   = 0.8
	MaxDowngrade      = 0.4
	BoundaryInset     = 0.05
	blendDivisor      = 3.0
	leakDivisor       = 4.0
	downgradeFraction = 0.5
)

func (k Kind) String() string {
	switch k {
	case Cut:
		return "cut"
	case Fade:
		return "fade"
	case Crossfade:
		return "crossfade"
	case LightLeak:
		return "light_leak"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cut":
		return Cut, nil
	case "fade":
		return Fade, nil
	case "crossfade":
		return Crossfade, nil
	case "light_leak", "lightleak":
		return LightLeak, nil
	default:
		return Cut, fmt.Errorf("unknown transition kind %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Decision is the transition chosen for one junction. Duration is zero only
// for Cut.
type Decision struct {
	Kind     Kind    `yaml:"kind" json:"kind"`
	Duration float64 `yaml:"duration" json:"duration"`

	// Analysis inputs, kept for reporting
	Diff       float64 `yaml:"diff" json:"diff"`
	Downgraded bool    `yaml:"downgraded,omitempty" json:"downgraded,omitempty"`
}

func (d Decision) String() string {
	if d.Kind == Cut {
		return "cut"
	}
	return fmt.Sprintf("%s %.2fs", d.Kind, d.Duration)
}

// NeedsFrames reports whether Decide would look at frame content for clips
// of these durations
func NeedsFrames(durA, durB float64) bool {
	return durA >= MinClipDuration && durB >= MinClipDuration
}

// Decide picks a transition from clip durations, the boundary frame
// difference and the light-leak suitability of the boundary frames.
func Decide(durA, durB, diff float64, suitable bool) Decision {
	if !NeedsFrames(durA, durB) {
		return Decision{Kind: Cut}
	}

	blend := math.Min(MaxBlendDuration, math.Min(durA/blendDivisor, durB/blendDivisor))

	if diff < CrossfadeMaxDiff {
		return Decision{Kind: Crossfade, Duration: blend, Diff: diff}
	}
	if diff < FadeMaxDiff {
		return Decision{Kind: Fade, Duration: blend, Diff: diff}
	}

	leak := math.Min(MaxLeakDuration, math.Min(durA/leakDivisor, durB/leakDivisor))
	if suitable {
		return Decision{Kind: LightLeak, Duration: leak, Diff: diff}
	}
	return Decision{
		Kind:       Crossfade,
		Duration:   math.Min(MaxDowngrade, leak*downgradeFraction),
		Diff:       diff,
		Downgraded: true,
	}
}
