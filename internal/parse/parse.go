// Package parse extracts page-tagged plain text from manifesto source files.
// Each supported format has its own parser; all of them produce a flat
// sequence of segments that the chunker splits further.
package parse

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Segment is a contiguous run of parsed text with location metadata.
type Segment struct {
	Text string
	// Page is the 1-based page number, nil when the format has no pages.
	Page *int
	// Section is the heading path for structured formats, empty otherwise.
	Section string
}

// Parser extracts text segments from a source file.
type Parser interface {
	Parse(path string) ([]Segment, error)
}

// ForPath selects a parser by file extension.
func ForPath(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return &PDFParser{}, nil
	case ".md", ".markdown":
		return NewMarkdownParser(), nil
	case ".txt", "":
		return &PlainTextParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", filepath.Ext(path))
	}
}
