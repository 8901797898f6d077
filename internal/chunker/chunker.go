// Package chunker splits parsed document text into overlapping pieces, the
// unit of embedding and retrieval. Splitting prefers natural boundaries:
// paragraphs first, sentences when a paragraph is too large, hard character
// cuts only as a last resort.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/wahlkompass/wahlkompass/internal/parse"
)

// Piece is one chunk of text with the location metadata of its segment.
type Piece struct {
	Text    string
	Page    *int
	Section string
}

// Chunker splits segments into pieces of at most roughly maxSize characters
// with overlap characters carried between consecutive pieces.
type Chunker struct {
	maxSize int
	overlap int
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+\s*`)

// New creates a Chunker. Non-positive or inconsistent parameters fall back
// to 1000/200, the tuning the corpus was built with.
func New(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = maxSize / 5
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}
}

// Split chunks all segments in order. Empty input yields no pieces; any
// segment with non-blank text yields at least one. Pieces never span
// segments, so page numbers stay exact.
func (c *Chunker) Split(segments []parse.Segment) []Piece {
	var pieces []Piece
	for _, seg := range segments {
		for _, text := range c.splitText(seg.Text) {
			pieces = append(pieces, Piece{Text: text, Page: seg.Page, Section: seg.Section})
		}
	}
	return pieces
}

// splitText assembles units (paragraphs, sentences, hard cuts) into chunks
// up to maxSize, prepending the tail of the previous chunk as overlap.
func (c *Chunker) splitText(text string) []string {
	units := c.units(text)
	if len(units) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, unit := range units {
		if current.Len() > 0 && current.Len()+1+len(unit) > c.maxSize {
			prev := current.String()
			flush()
			current.WriteString(overlapTail(prev, c.overlap))
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(unit)
	}
	flush()

	return chunks
}

// units breaks text into pieces that each fit within maxSize.
func (c *Chunker) units(text string) []string {
	var units []string
	for _, para := range splitParagraphs(text) {
		if len(para) <= c.maxSize {
			units = append(units, para)
			continue
		}
		for _, sentence := range splitSentences(para) {
			if len(sentence) <= c.maxSize {
				units = append(units, sentence)
				continue
			}
			units = append(units, hardCut(sentence, c.maxSize)...)
		}
	}
	return units
}

func splitParagraphs(text string) []string {
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// splitSentences splits on terminal punctuation. Trailing text without a
// terminator is kept as its own unit so no characters are lost.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[loc[0]:loc[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// hardCut slices text into maxSize-byte pieces, backing each cut up to a
// rune boundary so no piece ends mid-rune.
func hardCut(text string, maxSize int) []string {
	var cuts []string
	for len(text) > maxSize {
		cut := maxSize
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxSize
		}
		cuts = append(cuts, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		cuts = append(cuts, text)
	}
	return cuts
}

// overlapTail returns up to n trailing characters of s, advanced to the next
// word boundary so the carried context starts on a whole word.
func overlapTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	tail := s[start:]
	if idx := strings.IndexAny(tail, " \n"); idx >= 0 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}
