package election

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolmap/scolmap/config"
	"github.com/scolmap/scolmap/opendata"
)

func testRegion() config.Region {
	return config.DefaultConfig().Region
}

func round1Row(dept, commune, first, last, votes, expressed string) opendata.Row {
	return opendata.Row{
		"dep_code":     dept,
		"commune_code": commune,
		"cand_prenom":  first,
		"cand_nom":     last,
		"cand_nb_voix": votes,
		"exprimes_nb":  expressed,
	}
}

func TestParsePresidentialRound1(t *testing.T) {
	rows := []opendata.Row{
		round1Row("44", "109", "Emmanuel", "MACRON", "43386", "146394"),
		round1Row("44", "109", "Jean-Luc", "MÉLENCHON", "48000", "146394"),
		round1Row("44", "109", "Marine", "LE PEN", "20000", "146394"),
	}

	results, skipped := ParsePresidentialRound1(rows, testRegion())
	require.Contains(t, results, "44109")
	assert.Equal(t, 0, skipped)

	candidates := results["44109"]
	require.Len(t, candidates, 3)

	// Sorted by percentage descending
	assert.Equal(t, "Jean-Luc MÉLENCHON", candidates[0].Candidate)
	assert.InDelta(t, 32.8, candidates[0].Percentage, 0.05)
	assert.Equal(t, "Emmanuel MACRON", candidates[1].Candidate)
	assert.InDelta(t, 29.6, candidates[1].Percentage, 0.05)
}

func TestParsePresidentialRound1TotalCapturedOncePerCommune(t *testing.T) {
	// Every candidate row of a commune repeats the same valid-ballot
	// total. Summing it across the 3 rows below would treat the total as
	// 3000 and shrink every percentage threefold.
	rows := []opendata.Row{
		round1Row("44", "001", "A", "ALPHA", "600", "1000"),
		round1Row("44", "001", "B", "BRAVO", "300", "1000"),
		round1Row("44", "001", "C", "CHARLIE", "100", "1000"),
	}

	results, _ := ParsePresidentialRound1(rows, testRegion())
	candidates := results["44001"]
	require.Len(t, candidates, 3)

	var sum float64
	for _, c := range candidates {
		sum += c.Percentage
	}
	// Percentages account for the full field: percentages computed
	// against 3x the real total would sum to ~33.3 instead.
	assert.InDelta(t, 100.0, sum, 0.2)
	assert.InDelta(t, 60.0, candidates[0].Percentage, 0.05)
}

func TestParsePresidentialRound1FiltersRegion(t *testing.T) {
	rows := []opendata.Row{
		round1Row("44", "109", "A", "ALPHA", "600", "1000"),
		round1Row("75", "056", "A", "ALPHA", "600", "1000"),
	}

	results, _ := ParsePresidentialRound1(rows, testRegion())
	assert.Contains(t, results, "44109")
	assert.NotContains(t, results, "75056")
}

func TestParsePresidentialRound1SkipsMalformedVotes(t *testing.T) {
	rows := []opendata.Row{
		round1Row("44", "109", "A", "ALPHA", "abc", "1000"),
		round1Row("44", "109", "B", "BRAVO", "600", "1000"),
	}

	results, skipped := ParsePresidentialRound1(rows, testRegion())
	assert.Equal(t, 1, skipped)
	require.Len(t, results["44109"], 1)
	assert.Equal(t, "B BRAVO", results["44109"][0].Candidate)
}

func round2Row(dept, commune, first, last, votes, expressed string) opendata.Row {
	return opendata.Row{
		"Code du département": dept,
		"Code de la commune":  commune,
		"Prénom":              first,
		"Nom":                 last,
		"Voix":                votes,
		"Exprimés":            expressed,
	}
}

func TestParsePresidentialRound2DerivesOpponent(t *testing.T) {
	rows := []opendata.Row{
		round2Row("44", "109", "Emmanuel", "MACRON", "600", "1000"),
	}

	results, skipped := ParsePresidentialRound2(rows, testRegion())
	assert.Equal(t, 0, skipped)
	require.Contains(t, results, "44109")

	runoff := results["44109"]
	assert.Equal(t, "Emmanuel MACRON", runoff.Candidate)
	assert.Equal(t, 60.0, runoff.Percentage)
	// Opponent derived from the ballot total, not read from a second
	// column that does not exist.
	assert.Equal(t, 40.0, runoff.OpposingPercentage)
}

func TestParsePresidentialRound2PairSumsToHundred(t *testing.T) {
	rows := []opendata.Row{
		round2Row("44", "109", "Emmanuel", "MACRON", "103996", "128159"),
	}

	results, _ := ParsePresidentialRound2(rows, testRegion())
	runoff := results["44109"]

	assert.InDelta(t, 81.1, runoff.Percentage, 0.05)
	assert.InDelta(t, 18.9, runoff.OpposingPercentage, 0.05)
	assert.InDelta(t, 100.0, runoff.Percentage+runoff.OpposingPercentage, 0.1)
}

func TestParsePresidentialRound2SkipsBadRows(t *testing.T) {
	rows := []opendata.Row{
		round2Row("44", "109", "A", "ALPHA", "600", "0"),    // zero total
		round2Row("44", "110", "B", "BRAVO", "600", "500"),  // votes exceed total
		round2Row("44", "111", "C", "CHARLIE", "x", "1000"), // unparsable
	}

	results, skipped := ParsePresidentialRound2(rows, testRegion())
	assert.Empty(t, results)
	assert.Equal(t, 3, skipped)
}
