// Package party defines the closed set of political parties the system
// tracks. The set is fixed configuration, not discovered at runtime: every
// analysis result carries exactly one entry per party listed here.
package party

// Party identifies a tracked political party by its canonical key.
type Party string

const (
	AfD    Party = "afd"
	BSW    Party = "bsw"
	CDUCSU Party = "cdu_csu"
	Linke  Party = "linke"
	FDP    Party = "fdp"
	Gruene Party = "gruene"
	SPD    Party = "spd"
)

// all is ordered; All and result assembly iterate it deterministically.
var all = []Party{AfD, BSW, CDUCSU, Linke, FDP, Gruene, SPD}

var displayNames = map[Party]string{
	AfD:    "Alternative für Deutschland",
	BSW:    "Bündnis Sahra Wagenknecht",
	CDUCSU: "CDU/CSU",
	Linke:  "DIE LINKE",
	FDP:    "Freie Demokratische Partei",
	Gruene: "BÜNDNIS 90/DIE GRÜNEN",
	SPD:    "Sozialdemokratische Partei Deutschlands",
}

// manifestoLinks holds direct links to the official Wahlprogramm PDFs,
// attached to citations so readers can verify quoted passages.
var manifestoLinks = map[Party]string{
	AfD:    "https://www.afd.de/wp-content/uploads/2025/02/AfD_Bundestagswahlprogramm2025_web.pdf",
	BSW:    "https://bsw-vg.de/wp-content/themes/bsw/assets/downloads/BSW%20Wahlprogramm%202025.pdf",
	CDUCSU: "https://www.cdu.de/app/uploads/2025/01/km_btw_2025_wahlprogramm_langfassung_ansicht.pdf",
	Linke:  "https://www.die-linke.de/fileadmin/user_upload/Wahlprogramm_Langfassung_Linke-BTW25_01.pdf",
	FDP:    "https://www.fdp.de/sites/default/files/2024-12/fdp-wahlprogramm_2025.pdf",
	Gruene: "https://cms.gruene.de/uploads/assets/Regierungsprogramm_DIGITAL_DINA5.pdf",
	SPD:    "https://www.spd.de/fileadmin/Dokumente/Beschluesse/Programm/SPD_Programm_bf.pdf",
}

// All returns the full party set in canonical order. The returned slice must
// not be modified.
func All() []Party {
	return all
}

// Valid reports whether p is one of the tracked parties.
func (p Party) Valid() bool {
	_, ok := displayNames[p]
	return ok
}

// Key returns the canonical string key used in boundary JSON.
func (p Party) Key() string {
	return string(p)
}

// DisplayName returns the party's official localized name, or the raw key if
// the party is unknown.
func (p Party) DisplayName() string {
	if name, ok := displayNames[p]; ok {
		return name
	}
	return string(p)
}

// ManifestoLink returns the URL of the party's official manifesto, or empty
// if none is known.
func (p Party) ManifestoLink() string {
	return manifestoLinks[p]
}

// FromKey resolves a string key to a Party. The second return value is false
// for keys outside the tracked set.
func FromKey(key string) (Party, bool) {
	p := Party(key)
	return p, p.Valid()
}
