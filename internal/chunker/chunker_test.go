package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wahlkompass/wahlkompass/internal/parse"
)

func TestSplit_EmptyInput(t *testing.T) {
	c := New(1000, 200)
	assert.Empty(t, c.Split(nil))
	assert.Empty(t, c.Split([]parse.Segment{{Text: "   \n\n  "}}))
}

func TestSplit_ShortInputSingleChunk(t *testing.T) {
	c := New(1000, 200)
	pieces := c.Split([]parse.Segment{{Text: "Wir fördern den Ausbau von Elektromobilität."}})
	require.Len(t, pieces, 1)
	assert.Equal(t, "Wir fördern den Ausbau von Elektromobilität.", pieces[0].Text)
}

func TestSplit_ParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("Erster Absatz mit etwas Text. ", 5)
	para2 := strings.Repeat("Zweiter Absatz mit anderem Text. ", 5)
	c := New(200, 40)

	pieces := c.Split([]parse.Segment{{Text: para1 + "\n\n" + para2}})
	require.GreaterOrEqual(t, len(pieces), 2)
	for _, p := range pieces {
		assert.LessOrEqual(t, len(p.Text), 200+40+1, "chunks stay near max size")
	}
}

// Concatenated chunks (allowing for overlap duplication) must cover the
// whole document: every sentence of the input appears in some chunk.
func TestSplit_CoversFullDocument(t *testing.T) {
	var sentences []string
	for _, topic := range []string{"Steuern", "Bildung", "Klima", "Rente", "Mieten", "Verkehr"} {
		sentences = append(sentences, "Unsere Position zum Thema "+topic+" ist eindeutig und ausführlich begründet.")
	}
	doc := strings.Join(sentences, " ")

	c := New(120, 30)
	pieces := c.Split([]parse.Segment{{Text: doc}})
	require.NotEmpty(t, pieces)

	var all strings.Builder
	for _, p := range pieces {
		all.WriteString(p.Text)
		all.WriteByte('\n')
	}
	for _, s := range sentences {
		assert.Contains(t, all.String(), s)
	}
}

func TestSplit_OverlapCarriesContext(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("Satz Nummer mit genug Wörtern für eine Grenze. ")
	}
	c := New(150, 50)

	pieces := c.Split([]parse.Segment{{Text: sb.String()}})
	require.Greater(t, len(pieces), 1)

	for i := 1; i < len(pieces); i++ {
		prefix := strings.SplitN(pieces[i].Text, "\n", 2)[0]
		assert.Contains(t, pieces[i-1].Text, prefix,
			"chunk %d should start with text carried over from chunk %d", i, i-1)
	}
}

func TestSplit_HardCutForUnbrokenText(t *testing.T) {
	// No paragraph or sentence boundaries at all.
	blob := strings.Repeat("x", 2500)
	c := New(1000, 0)

	pieces := c.Split([]parse.Segment{{Text: blob}})
	require.Len(t, pieces, 3)
	assert.Len(t, pieces[0].Text, 1000)
	assert.Len(t, pieces[1].Text, 1000)
	assert.Len(t, pieces[2].Text, 500)
}

func TestSplit_HardCutKeepsRunesIntact(t *testing.T) {
	// 1000 three-byte runes with no boundaries: every cut lands inside a
	// rune unless it backs up to a rune start.
	blob := strings.Repeat("€", 1000)
	c := New(1000, 200)

	pieces := c.Split([]parse.Segment{{Text: blob}})
	require.NotEmpty(t, pieces)

	var rebuilt strings.Builder
	for i, p := range pieces {
		assert.True(t, utf8.ValidString(p.Text), "piece %d is not valid UTF-8", i)
		rebuilt.WriteString(p.Text)
	}
	assert.Equal(t, strings.Count(blob, "€"), strings.Count(rebuilt.String(), "€")-overlapRuneCount(pieces))
}

// overlapRuneCount counts the euro runes duplicated into later pieces by the
// overlap carry, so coverage can be checked exactly.
func overlapRuneCount(pieces []Piece) int {
	n := 0
	for i := 1; i < len(pieces); i++ {
		// Each piece after the first starts with carried overlap followed
		// by a newline separator.
		head := strings.SplitN(pieces[i].Text, "\n", 2)[0]
		n += strings.Count(head, "€")
	}
	return n
}

func TestSplit_CarriesPageAndSection(t *testing.T) {
	page12 := 12
	c := New(1000, 200)

	pieces := c.Split([]parse.Segment{
		{Text: "Inhalt von Seite zwölf.", Page: &page12},
		{Text: "Abschnitt ohne Seite.", Section: "Wirtschaft"},
	})
	require.Len(t, pieces, 2)

	require.NotNil(t, pieces[0].Page)
	assert.Equal(t, 12, *pieces[0].Page)
	assert.Nil(t, pieces[1].Page)
	assert.Equal(t, "Wirtschaft", pieces[1].Section)
}

func TestSplit_PiecesNeverSpanSegments(t *testing.T) {
	p1, p2 := 1, 2
	c := New(1000, 200)

	pieces := c.Split([]parse.Segment{
		{Text: "Kurzer Text auf Seite eins.", Page: &p1},
		{Text: "Kurzer Text auf Seite zwei.", Page: &p2},
	})
	require.Len(t, pieces, 2)
	assert.NotContains(t, pieces[0].Text, "Seite zwei")
	assert.NotContains(t, pieces[1].Text, "Seite eins")
}

func TestNew_FallbackParameters(t *testing.T) {
	c := New(0, -1)
	assert.Equal(t, 1000, c.maxSize)
	assert.Equal(t, 200, c.overlap)

	// Overlap >= max size is inconsistent, fall back.
	c = New(100, 100)
	assert.Equal(t, 100, c.maxSize)
	assert.Equal(t, 20, c.overlap)
}
