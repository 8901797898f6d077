package parse

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// MarkdownParser extracts sections from markdown manifestos. Markdown has no
// pages, so each H1/H2 section becomes one segment carrying its heading path
// as location metadata instead.
type MarkdownParser struct {
	md goldmark.Markdown
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		md: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

func (p *MarkdownParser) Parse(path string) ([]Segment, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	reader := text.NewReader(source)
	doc := p.md.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect headings in %s: %w", path, err)
	}

	// No headings: the whole file is one segment.
	if len(tree.Items) == 0 {
		body := strings.TrimSpace(string(source))
		if body == "" {
			return nil, nil
		}
		return []Segment{{Text: body}}, nil
	}

	var segments []Segment
	p.collectSections(doc, source, tree.Items, nil, &segments)
	return segments, nil
}

// collectSections walks the heading tree and emits one segment per section,
// bounded by the next heading of the same or higher level.
func (p *MarkdownParser) collectSections(doc ast.Node, source []byte, items toc.Items, ancestors []string, segments *[]Segment) {
	for i, item := range items {
		path := append(ancestors, string(item.Title))

		heading := headingByID(doc, string(item.ID))
		if heading == nil {
			continue
		}

		start := heading.Lines().At(0)
		var end text.Segment
		if i+1 < len(items) {
			if next := headingByID(doc, string(items[i+1].ID)); next != nil {
				end = next.Lines().At(0)
			}
		} else {
			end = nextHeadingBoundary(doc, heading, heading.(*ast.Heading).Level)
		}

		body := sectionBody(source, start, end)
		if body != "" {
			*segments = append(*segments, Segment{
				Text:    body,
				Section: strings.Join(path, " > "),
			})
		}

		if len(item.Items) > 0 {
			p.collectSections(doc, source, item.Items, path, segments)
		}
	}
}

func headingByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			headingID, ok := n.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

func nextHeadingBoundary(root ast.Node, current ast.Node, level int) text.Segment {
	var next ast.Node
	foundCurrent := false

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		if !foundCurrent {
			if n == current {
				foundCurrent = true
			}
			return ast.WalkContinue, nil
		}
		if n.(*ast.Heading).Level <= level {
			next = n
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	if next != nil {
		return next.Lines().At(0)
	}
	return text.Segment{}
}

// sectionBody returns the text between start and end, stripped of the
// heading line itself and its marker characters.
func sectionBody(source []byte, start, end text.Segment) string {
	var raw string
	if end.Start == 0 && end.Stop == 0 {
		raw = string(source[start.Start:])
	} else {
		raw = string(source[start.Start:end.Start])
	}
	// Drop the heading line; the heading survives in Segment.Section.
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		raw = raw[idx+1:]
	} else {
		raw = ""
	}
	return strings.TrimSpace(raw)
}
