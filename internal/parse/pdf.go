package parse

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser extracts text from PDF files, one segment per page.
type PDFParser struct{}

// Parse reads the PDF at path and returns its pages in order. Pages that
// yield no extractable text (scanned images, decorative covers) are skipped
// rather than reported as errors.
func (p *PDFParser) Parse(path string) ([]Segment, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var segments []Segment
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page should not sink the whole document.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pageNum := num
		segments = append(segments, Segment{Text: text, Page: &pageNum})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("pdf %s: no extractable text", path)
	}
	return segments, nil
}
