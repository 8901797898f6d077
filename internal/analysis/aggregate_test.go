package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wahlkompass/wahlkompass/internal/party"
)

func TestAggregate_EveryPartyPresent(t *testing.T) {
	in := map[party.Party]PartyAnalysis{
		party.SPD: {Agreement: 80, Explanation: "Starke Zustimmung.", Citations: []Citation{}},
	}

	result := Aggregate(in, nil)

	require.Len(t, result, len(party.All()))
	for _, p := range party.All() {
		assert.Contains(t, result, p.Key())
	}
	assert.Equal(t, 80, result["spd"].Agreement)
	assert.Equal(t, NoPosition(), result["afd"])
}

func TestAggregate_ReplacesOutOfRangeAgreement(t *testing.T) {
	in := map[party.Party]PartyAnalysis{
		party.FDP: {Agreement: 120, Explanation: "Kaputt.", Citations: []Citation{}},
	}

	result := Aggregate(in, nil)
	assert.Equal(t, NoPosition(), result["fdp"])
}

func TestAggregate_ReplacesEmptyExplanation(t *testing.T) {
	in := map[party.Party]PartyAnalysis{
		party.Linke: {Agreement: 50, Explanation: "", Citations: []Citation{}},
	}

	result := Aggregate(in, nil)
	assert.Equal(t, NoPosition(), result["linke"])
}

func TestAggregate_ReplacesEmptyCitationText(t *testing.T) {
	in := map[party.Party]PartyAnalysis{
		party.BSW: {Agreement: 50, Explanation: "Ok.", Citations: []Citation{{Text: ""}}},
	}

	result := Aggregate(in, nil)
	assert.Equal(t, NoPosition(), result["bsw"])
}

func TestAggregate_NormalizesNilCitations(t *testing.T) {
	in := map[party.Party]PartyAnalysis{
		party.CDUCSU: {Agreement: 30, Explanation: "Ablehnung.", Citations: nil},
	}

	result := Aggregate(in, nil)

	got := result["cdu_csu"]
	require.NotNil(t, got.Citations)
	assert.Empty(t, got.Citations)
	assert.Equal(t, 30, got.Agreement)
}
