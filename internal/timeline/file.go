package timeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteFile saves the timeline as YAML
func WriteFile(path string, tl *Timeline) error {
	data, err := yaml.Marshal(tl)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write timeline: %w", err)
	}
	return nil
}

// ReadFile loads a timeline written by WriteFile
func ReadFile(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	var tl Timeline
	if err := yaml.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("parse timeline %s: %w", path, err)
	}
	if len(tl.Clips) == 0 {
		return nil, fmt.Errorf("timeline %s: %w", path, ErrNoClips)
	}
	return &tl, nil
}
