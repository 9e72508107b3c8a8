package election

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolmap/scolmap/opendata"
)

func legRow(dept, insee, expressed string, candidates ...[4]string) opendata.Row {
	row := opendata.Row{
		"Code département": dept,
		"Code commune":     insee,
		"Exprimés":         expressed,
	}
	for i, c := range candidates {
		n := i + 1
		row["Nom candidat "+itoa(n)] = c[0]
		row["Prénom candidat "+itoa(n)] = c[1]
		row["Voix "+itoa(n)] = c[2]
		row["Nuance candidat "+itoa(n)] = c[3]
	}
	return row
}

func itoa(n int) string {
	return string(rune('0' + n))
}

func TestParseLegislativeRoundUsesVerbatimCommuneCode(t *testing.T) {
	// The commune code column already holds the full INSEE code.
	// Prefixing it with the department would yield "4444109".
	rows := []opendata.Row{
		legRow("44", "44109", "988",
			[4]string{"RAUX", "Jean-Claude", "345", "UG"},
			[4]string{"PICHON", "Julio", "314", "RN"},
		),
	}

	results, skipped := ParseLegislativeRound(rows, 1, testRegion())
	assert.Equal(t, 0, skipped)
	assert.Contains(t, results, "44109")
	assert.NotContains(t, results, "4444109")
}

func TestParseLegislativeRound1KeepsAllCandidates(t *testing.T) {
	rows := []opendata.Row{
		legRow("44", "44001", "2000",
			[4]string{"ALPHA", "A", "700", "UG"},
			[4]string{"BRAVO", "B", "600", "RN"},
			[4]string{"CHARLIE", "C", "400", "ENS"},
			[4]string{"DELTA", "D", "200", "LR"},
			[4]string{"ECHO", "E", "100", "DIV"},
		),
	}

	results, _ := ParseLegislativeRound(rows, 1, testRegion())
	candidates := results["44001"]

	// Round 1 is never truncated during aggregation; any display cap is
	// the presentation layer's.
	require.Len(t, candidates, 5)
	assert.Equal(t, "A ALPHA", candidates[0].Candidate)
	assert.Equal(t, "Union de la gauche (NFP)", candidates[0].Party)
	assert.InDelta(t, 35.0, candidates[0].Percentage, 0.05)
}

func TestParseLegislativeRound2TruncatesToRunoffField(t *testing.T) {
	rows := []opendata.Row{
		legRow("44", "44001", "3000",
			[4]string{"ALPHA", "A", "1000", "UG"},
			[4]string{"BRAVO", "B", "900", "RN"},
			[4]string{"CHARLIE", "C", "600", "ENS"},
			[4]string{"DELTA", "D", "500", "LR"},
		),
	}

	results, _ := ParseLegislativeRound(rows, 2, testRegion())
	candidates := results["44001"]

	require.Len(t, candidates, 2)
	assert.Equal(t, "A ALPHA", candidates[0].Candidate)
	assert.Equal(t, "B BRAVO", candidates[1].Candidate)
}

func TestParseLegislativeRoundPoolsSplitCommunes(t *testing.T) {
	// A commune split across circonscriptions produces several rows; the
	// candidates pool and sort by votes.
	rows := []opendata.Row{
		legRow("44", "44109", "10000", [4]string{"ALPHA", "A", "4000", "UG"}),
		legRow("44", "44109", "8000", [4]string{"BRAVO", "B", "5000", "RN"}),
	}

	results, _ := ParseLegislativeRound(rows, 1, testRegion())
	candidates := results["44109"]

	require.Len(t, candidates, 2)
	assert.Equal(t, "B BRAVO", candidates[0].Candidate)
}

func TestParseLegislativeRoundStopsAtEmptySlot(t *testing.T) {
	row := legRow("44", "44001", "1000",
		[4]string{"ALPHA", "A", "500", "RN"},
		[4]string{"BRAVO", "B", "400", "UG"},
	)
	// Simulate the trailing empty slot the wide format pads with.
	row["Nom candidat 3"] = ""
	row["Voix 3"] = ""

	results, _ := ParseLegislativeRound([]opendata.Row{row}, 1, testRegion())
	assert.Len(t, results["44001"], 2)
}

func TestParseLegislativeRoundSkipsZeroExpressed(t *testing.T) {
	rows := []opendata.Row{
		legRow("44", "44001", "0", [4]string{"ALPHA", "A", "500", "RN"}),
	}

	results, skipped := ParseLegislativeRound(rows, 1, testRegion())
	assert.Empty(t, results)
	assert.Equal(t, 1, skipped)
}

func TestParseLegislativeRoundUnknownNuanceFallsBack(t *testing.T) {
	rows := []opendata.Row{
		legRow("44", "44001", "1000", [4]string{"ALPHA", "A", "500", ""}),
		legRow("44", "44002", "1000", [4]string{"BRAVO", "B", "500", "ZZZ"}),
	}

	results, _ := ParseLegislativeRound(rows, 1, testRegion())
	assert.Equal(t, "Divers", results["44001"][0].Party)
	assert.Equal(t, "ZZZ", results["44002"][0].Party)
}
