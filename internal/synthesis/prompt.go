package synthesis

import (
	"fmt"
	"strings"

	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

// buildPrompt renders the instruction block, the numbered evidence excerpts
// and the statement for one party.
func buildPrompt(p party.Party, statement string, evidence []index.Hit) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `You are an expert in political analysis. Judge how strongly the party %q would agree with the statement below, based ONLY on the manifesto excerpts provided.

Detect the language of the statement and answer in that language (German or English). The excerpts are in German; translate them in your explanation if the statement is in English.

Manifesto excerpts:
`, p.DisplayName())

	for i, hit := range evidence {
		location := hit.Chunk.Source
		if hit.Chunk.Page != nil {
			location = fmt.Sprintf("%s, Seite %d", hit.Chunk.Source, *hit.Chunk.Page)
		} else if hit.Chunk.Section != "" {
			location = fmt.Sprintf("%s, %s", hit.Chunk.Source, hit.Chunk.Section)
		}
		fmt.Fprintf(&sb, "\n[%d] (%s) %s\n", i+1, location, hit.Chunk.Text)
	}

	fmt.Fprintf(&sb, `
Statement: %s

Reply ONLY with a JSON object in this exact format:
{"agreement": 75, "explanation": "...", "citations": [{"text": "...", "page": 12}]}

STRICT REQUIREMENTS:
- "agreement" is an integer from 0 (strong disagreement) to 100 (strong agreement).
- "explanation" is 1-3 sentences grounded only in the excerpts above.
- "citations" quotes passages verbatim from the excerpts, with the page number given for the excerpt, or null if none was given. At most %d citations.
- If the excerpts contain no clear position on the statement, use a low agreement value and say so in the explanation.
- No text outside the JSON object.`, statement, MaxCitations)

	return sb.String()
}
