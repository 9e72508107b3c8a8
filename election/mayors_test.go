package election

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolmap/scolmap/opendata"
)

func rneRow(function, dept, insee, first, last string) opendata.Row {
	return opendata.Row{
		"Nom de la fonction":  function,
		"Code du département": dept,
		"Code de la commune":  insee,
		"Prénom de l'élu·e":   first,
		"Nom de l'élu·e":      last,
	}
}

func TestParseMayors(t *testing.T) {
	rows := []opendata.Row{
		rneRow("Maire", "44", "44109", "Johanna", "ROLLAND"),
		rneRow("Maire", "49", "49007", "Christophe", "BÉCHU"),
	}

	mayors, skipped := ParseMayors(rows, testRegion())
	assert.Equal(t, 0, skipped)
	require.Len(t, mayors, 2)
	assert.Equal(t, "ROLLAND", mayors["44109"].LastName)
	assert.Equal(t, "Johanna", mayors["44109"].FirstName)
	assert.Empty(t, mayors["44109"].Party)
}

func TestParseMayorsExactFunctionMatch(t *testing.T) {
	// The directory lists every official; adjoints and deputies must not
	// match the mayor filter.
	rows := []opendata.Row{
		rneRow("Maire", "44", "44109", "Johanna", "ROLLAND"),
		rneRow("Maire délégué", "44", "44110", "Paul", "MARTIN"),
		rneRow("Adjoint au Maire", "44", "44109", "Anne", "DURAND"),
		rneRow("Conseiller municipal", "44", "44109", "Luc", "PETIT"),
	}

	mayors, _ := ParseMayors(rows, testRegion())
	require.Len(t, mayors, 1)
	assert.Equal(t, "ROLLAND", mayors["44109"].LastName)
}

func TestParseMayorsFiltersRegion(t *testing.T) {
	rows := []opendata.Row{
		rneRow("Maire", "44", "44109", "Johanna", "ROLLAND"),
		rneRow("Maire", "75", "75056", "Anne", "HIDALGO"),
	}

	mayors, _ := ParseMayors(rows, testRegion())
	assert.Contains(t, mayors, "44109")
	assert.NotContains(t, mayors, "75056")
}

func TestParseMayorsSkipsMissingCommuneCode(t *testing.T) {
	rows := []opendata.Row{
		rneRow("Maire", "44", "", "Johanna", "ROLLAND"),
	}

	mayors, skipped := ParseMayors(rows, testRegion())
	assert.Empty(t, mayors)
	assert.Equal(t, 1, skipped)
}
