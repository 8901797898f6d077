package parse

import (
	"fmt"
	"os"
	"strings"
)

// PlainTextParser reads a whole text file as a single page-less segment.
type PlainTextParser struct{}

func (p *PlainTextParser) Parse(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []Segment{{Text: text}}, nil
}
