// Package analysis assembles per-party stance judgments into the result
// object the surrounding web layer consumes, fanning retrieval and synthesis
// out across parties.
package analysis

// Citation is one manifesto excerpt justifying an agreement score.
type Citation struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Page   *int    `json:"page"`
	Link   *string `json:"link"`
}

// PartyAnalysis is one party's judgment on a statement.
type PartyAnalysis struct {
	Agreement   int        `json:"agreement"`
	Explanation string     `json:"explanation"`
	Citations   []Citation `json:"citations"`
}

// Result maps party keys to their analyses. Every tracked party is present;
// a party without relevant evidence gets the no-position default.
type Result map[string]PartyAnalysis

// NoPosition is the analysis for a party whose manifesto yields no relevant
// evidence. No completion call is made for it.
func NoPosition() PartyAnalysis {
	return PartyAnalysis{
		Agreement:   0,
		Explanation: "Keine klare Position im Wahlprogramm gefunden.",
		Citations:   []Citation{},
	}
}

// Unavailable is the analysis for a party whose synthesis failed or timed
// out. It replaces the entry instead of failing the whole request.
func Unavailable() PartyAnalysis {
	return PartyAnalysis{
		Agreement:   0,
		Explanation: "Die Analyse ist für diese Partei derzeit nicht verfügbar.",
		Citations:   []Citation{},
	}
}
