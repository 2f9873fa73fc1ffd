package clips

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Source describes the long video segments are cut from
type Source struct {
	Path     string
	Duration float64
	Width    int
	Height   int
	FPS      float64
	HasAudio bool
}

// Clip is a materialised subclip on disk
type Clip struct {
	ID       string
	Index    int
	Segment  Segment
	Path     string
	Duration float64
	Width    int
	Height   int
	FPS      float64
	HasAudio bool
}

// Set owns the temp files backing a job's clips
type Set struct {
	mu    sync.Mutex
	dir   string
	clips []*Clip
	next  int
}

// NewSet creates a private working directory under parent
func NewSet(parent string) (*Set, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "zipclip-*")
	if err != nil {
		return nil, fmt.Errorf("create clip dir: %w", err)
	}
	return &Set{
		dir:   dir,
		clips: make([]*Clip, 0),
	}, nil
}

// Dir returns the working directory
func (s *Set) Dir() string {
	return s.dir
}

// Path reserves a fresh file name inside the set's directory
func (s *Set) Path(prefix, ext string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return filepath.Join(s.dir, fmt.Sprintf("%s_%03d%s", prefix, s.next, ext))
}

// Add registers a clip, renumbering it to its position in the set
func (s *Set) Add(clip *Clip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clip.Index = len(s.clips)
	s.clips = append(s.clips, clip)
}

// All returns all clips in insertion order
func (s *Set) All() []*Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Clip, len(s.clips))
	copy(out, s.clips)
	return out
}

// Len returns the number of clips
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
}

// Close removes every file the set produced
func (s *Set) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips = nil
	if s.dir == "" {
		return nil
	}
	err := os.RemoveAll(s.dir)
	s.dir = ""
	return err
}
