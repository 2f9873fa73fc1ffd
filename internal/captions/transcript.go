package captions

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Line is one transcribed utterance in source time
type Line struct {
	Text  string  `yaml:"text" json:"text"`
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
}

// UnmarshalYAML accepts both {text, start, end} maps and [text, start, end]
// triples
func (l *Line) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		if len(node.Content) != 3 {
			return fmt.Errorf("line %d: want [text, start, end], got %d items", node.Line, len(node.Content))
		}
		if err := node.Content[0].Decode(&l.Text); err != nil {
			return err
		}
		if err := node.Content[1].Decode(&l.Start); err != nil {
			return err
		}
		return node.Content[2].Decode(&l.End)
	}

	type plain Line
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*l = Line(p)
	return nil
}

// Transcript is an ordered list of lines
type Transcript []Line

// LoadTranscript reads a JSON or YAML transcript. JSON parses as YAML.
func LoadTranscript(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var tr Transcript
	if err := yaml.Unmarshal(data, &tr); err != nil {
		// {"segments": [...]} wrapper
		var wrapped struct {
			Segments Transcript `yaml:"segments"`
		}
		if werr := yaml.Unmarshal(data, &wrapped); werr != nil {
			return nil, fmt.Errorf("parse transcript %s: %w", path, err)
		}
		tr = wrapped.Segments
	}
	return tr, nil
}

// Chunk is a short run of words with estimated timing
type Chunk struct {
	Text  string
	Start float64
	End   float64
}

// SplitWords breaks every line into chunks of wordsPerChunk words, spreading
// the line's duration evenly over its words
func SplitWords(tr Transcript, wordsPerChunk int) []Chunk {
	if wordsPerChunk < 1 {
		wordsPerChunk = 1
	}

	var chunks []Chunk
	for _, line := range tr {
		words := strings.Fields(line.Text)
		if len(words) == 0 {
			continue
		}
		perWord := (line.End - line.Start) / float64(len(words))

		for i := 0; i < len(words); i += wordsPerChunk {
			j := min(i+wordsPerChunk, len(words))
			chunks = append(chunks, Chunk{
				Text:  strings.Join(words[i:j], " "),
				Start: line.Start + float64(i)*perWord,
				End:   line.Start + float64(j)*perWord,
			})
		}
	}
	return chunks
}
