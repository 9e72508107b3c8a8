package election

import (
	"math"
	"strconv"

	"github.com/scolmap/scolmap/config"
	"github.com/scolmap/scolmap/opendata"
)

// Municipal result column names, shared by both rounds. The rounds differ
// only in delimiter: round 1 ships tab-separated, round 2 semicolon.
const (
	munDepartment = "Code du département"
	munCommune    = "Code de la commune"
	munList       = "Libellé de liste"
	munListAlt    = "Liste"
	munNuance     = "Libellé de la nuance de la liste"
	munNuanceCode = "Code Nuance"
	munVotes      = "Voix"
	munExpressed  = "Exprimés"
)

const municipalYear = 2020

// ParseMunicipalRound extracts the winning list per commune from one
// municipal round file. The commune code here is the 3-digit local code,
// so the INSEE code is department + commune. Rows with zero or unparsable
// ballot counts are skipped and counted.
func ParseMunicipalRound(rows []opendata.Row, round int, region config.Region) (map[string]MunicipalResult, int) {
	results := make(map[string]MunicipalResult)
	skipped := 0

	for _, row := range rows {
		dept := row.Get(munDepartment)
		commune := row.Get(munCommune)
		if !region.HasDepartment(dept) || commune == "" {
			continue
		}
		insee := dept + commune

		votes, err1 := strconv.Atoi(row.Get(munVotes))
		expressed, err2 := strconv.Atoi(row.Get(munExpressed))
		if err1 != nil || err2 != nil || expressed <= 0 {
			skipped++
			continue
		}

		percentage := float64(votes) / float64(expressed) * 100

		list := row.Get(munList)
		if list == "" {
			list = row.Get(munListAlt)
		}
		party := row.Get(munNuance)
		if party == "" {
			party = row.Get(munNuanceCode)
		}
		if list == "" {
			list = party
		}
		if list == "" {
			list = "Liste inconnue"
		}

		if prev, ok := results[insee]; !ok || percentage > prev.Percentage {
			results[insee] = MunicipalResult{
				Year:        municipalYear,
				Round:       round,
				WinningList: list,
				Percentage:  roundTenth(percentage),
				Party:       party,
			}
		}
	}

	return results, skipped
}

// MergeMunicipalRounds combines both rounds into the decisive result per
// commune. A round-2 entry settles the race and replaces the round-1 one;
// communes without a round-2 row were decided outright in round 1, which is
// the common case, not missing data.
func MergeMunicipalRounds(r1, r2 map[string]MunicipalResult) map[string]MunicipalResult {
	merged := make(map[string]MunicipalResult, len(r1)+len(r2))
	for insee, res := range r1 {
		merged[insee] = res
	}
	for insee, res := range r2 {
		merged[insee] = res
	}
	return merged
}

// roundTenth rounds to one decimal place, matching the published artifacts.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
