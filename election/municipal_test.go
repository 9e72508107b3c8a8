package election

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolmap/scolmap/opendata"
)

func munRow(dept, commune, list, nuance, votes, expressed string) opendata.Row {
	return opendata.Row{
		"Code du département":             dept,
		"Code de la commune":              commune,
		"Libellé de liste":                list,
		"Libellé de la nuance de la liste": nuance,
		"Voix":                            votes,
		"Exprimés":                        expressed,
	}
}

func TestParseMunicipalRoundKeepsWinningList(t *testing.T) {
	rows := []opendata.Row{
		munRow("44", "109", "ENSEMBLE NANTES", "LUG", "45678", "76543"),
		munRow("44", "109", "NANTES ENSEMBLE", "LDVD", "30865", "76543"),
	}

	results, skipped := ParseMunicipalRound(rows, 2, testRegion())
	assert.Equal(t, 0, skipped)
	require.Contains(t, results, "44109")

	res := results["44109"]
	assert.Equal(t, "ENSEMBLE NANTES", res.WinningList)
	assert.Equal(t, 2, res.Round)
	assert.Equal(t, 2020, res.Year)
	assert.InDelta(t, 59.7, res.Percentage, 0.05)
	assert.Equal(t, "LUG", res.Party)
}

func TestParseMunicipalRoundBuildsINSEEFromParts(t *testing.T) {
	// Municipal files carry the 3-digit local code; the INSEE code is
	// department + commune here (unlike the legislative export).
	rows := []opendata.Row{
		munRow("44", "001", "ABBARETZ CAP", "LNC", "234", "468"),
	}

	results, _ := ParseMunicipalRound(rows, 1, testRegion())
	assert.Contains(t, results, "44001")
}

func TestParseMunicipalRoundSkipsZeroExpressed(t *testing.T) {
	rows := []opendata.Row{
		munRow("44", "001", "LISTE", "LNC", "100", "0"),
		munRow("44", "002", "LISTE", "LNC", "cent", "200"),
	}

	results, skipped := ParseMunicipalRound(rows, 1, testRegion())
	assert.Empty(t, results)
	assert.Equal(t, 2, skipped)
}

func TestParseMunicipalRoundFallbackListName(t *testing.T) {
	rows := []opendata.Row{
		{
			"Code du département": "44",
			"Code de la commune":  "003",
			"Code Nuance":         "LDVG",
			"Voix":                "120",
			"Exprimés":            "200",
		},
	}

	results, _ := ParseMunicipalRound(rows, 1, testRegion())
	res := results["44003"]
	assert.Equal(t, "LDVG", res.WinningList)
	assert.Equal(t, "LDVG", res.Party)
}

func TestMergeMunicipalRoundsRound2Wins(t *testing.T) {
	r1 := map[string]MunicipalResult{
		"44001": {Year: 2020, Round: 1, WinningList: "Liste A", Percentage: 55.0},
		"44002": {Year: 2020, Round: 1, WinningList: "Liste C", Percentage: 62.0},
	}
	r2 := map[string]MunicipalResult{
		"44001": {Year: 2020, Round: 2, WinningList: "Liste B", Percentage: 60.0},
	}

	merged := MergeMunicipalRounds(r1, r2)

	// Round 2 settles the race where it happened
	assert.Equal(t, 2, merged["44001"].Round)
	assert.Equal(t, "Liste B", merged["44001"].WinningList)

	// A commune decided in round 1 keeps its round-1 result; the missing
	// round-2 entry is expected, not a defect.
	assert.Equal(t, 1, merged["44002"].Round)
}

func TestPartyLabels(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"LDVD", "Divers droite"},
		{"LDVG", "Divers gauche"},
		{"LDVC", "Divers centre"},
		{"LUG", "Union de la gauche"},
		{"LVEC", "Écologiste"},
		{"LREM", "Renaissance (ex-LREM)"},
		{"LNC", "Non classé"},
		{"NC", "Non classé"},
		{"LLR", "Les Républicains"},
		{"LRN", "Rassemblement national"},
		{"LEXG", "Extrême gauche"},
		{"LSOC", "Socialiste"},
		{"XYZ", "XYZ"}, // unknown code passes through
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, PartyLabel(tt.code))
		})
	}

	assert.GreaterOrEqual(t, len(PartyLabels), 20)
}
