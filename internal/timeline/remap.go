package timeline

// Span maps one source range onto the stitched timeline
type Span struct {
	SourceStart   float64 `yaml:"source_start"`
	SourceEnd     float64 `yaml:"source_end"`
	StitchedStart float64 `yaml:"stitched_start"`
}

// Mapping lists spans in placement order
type Mapping []Span

// Remapper projects source timestamps onto the stitched timeline
type Remapper struct {
	mapping Mapping
	offset  float64
}

// NewRemapper creates a remapper that shifts every input by offset first
func NewRemapper(m Mapping, offset float64) *Remapper {
	own := make(Mapping, len(m))
	copy(own, m)
	return &Remapper{mapping: own, offset: offset}
}

// MapToStitched returns the stitched position of source time t. When source
// ranges overlap the first span in placement order wins. ok is false when no
// span contains t.
func (r *Remapper) MapToStitched(t float64) (float64, bool) {
	t += r.offset
	for _, s := range r.mapping {
		if t >= s.SourceStart && t <= s.SourceEnd {
			return s.StitchedStart + (t - s.SourceStart), true
		}
	}
	return 0, false
}
