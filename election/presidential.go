package election

import (
	"sort"
	"strconv"
	"strings"

	"github.com/scolmap/scolmap/config"
	"github.com/scolmap/scolmap/opendata"
)

// Presidential round 1 ships as a comma-separated UTF-8 export with
// lowercase column names; round 2 is a semicolon-separated Latin-1 export
// with the ministry's usual capitalized headers. Same contest, two wire
// formats.
const (
	pr1Department = "dep_code"
	pr1Commune    = "commune_code"
	pr1LastName   = "cand_nom"
	pr1FirstName  = "cand_prenom"
	pr1Votes      = "cand_nb_voix"
	pr1Expressed  = "exprimes_nb"

	pr2Department = "Code du département"
	pr2Commune    = "Code de la commune"
	pr2LastName   = "Nom"
	pr2FirstName  = "Prénom"
	pr2Votes      = "Voix"
	pr2Expressed  = "Exprimés"
)

// ParsePresidentialRound1 aggregates round-1 results per commune. The file
// carries one row per candidate, and every row of a commune repeats the
// same valid-ballot total: the total is captured by assignment, once, and
// must never be accumulated across candidate rows (accumulating multiplies
// it by the candidate count and collapses every percentage).
func ParsePresidentialRound1(rows []opendata.Row, region config.Region) (map[string][]Candidate, int) {
	votes := make(map[string]map[string]int)
	totals := make(map[string]int)
	skipped := 0

	for _, row := range rows {
		dept := row.Get(pr1Department)
		commune := row.Get(pr1Commune)
		if !region.HasDepartment(dept) || commune == "" {
			continue
		}
		insee := dept + commune

		name := candidateName(row.Get(pr1FirstName), row.Get(pr1LastName))
		if name == "" {
			skipped++
			continue
		}

		v, err := strconv.Atoi(row.Get(pr1Votes))
		if err != nil {
			skipped++
			continue
		}

		if votes[insee] == nil {
			votes[insee] = make(map[string]int)
		}
		votes[insee][name] += v

		// Assignment, not accumulation: the commune total repeats on
		// every candidate row.
		if expressed, err := strconv.Atoi(row.Get(pr1Expressed)); err == nil && expressed > 0 {
			totals[insee] = expressed
		}
	}

	results := make(map[string][]Candidate, len(votes))
	for insee, byCandidate := range votes {
		total := totals[insee]
		if total == 0 {
			continue
		}

		candidates := make([]Candidate, 0, len(byCandidate))
		for name, v := range byCandidate {
			candidates = append(candidates, Candidate{
				Candidate:  name,
				Percentage: roundTenth(float64(v) / float64(total) * 100),
			})
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].Percentage != candidates[j].Percentage {
				return candidates[i].Percentage > candidates[j].Percentage
			}
			return candidates[i].Candidate < candidates[j].Candidate
		})
		results[insee] = candidates
	}

	return results, skipped
}

// ParsePresidentialRound2 extracts the runoff per commune. The round-2
// export only carries the leading candidate's vote count; the opponent's
// share is derived from the valid-ballot total, not read from a second
// column that does not exist.
func ParsePresidentialRound2(rows []opendata.Row, region config.Region) (map[string]Runoff, int) {
	results := make(map[string]Runoff)
	skipped := 0

	for _, row := range rows {
		dept := row.Get(pr2Department)
		commune := row.Get(pr2Commune)
		if !region.HasDepartment(dept) || commune == "" {
			continue
		}
		insee := dept + commune

		name := candidateName(row.Get(pr2FirstName), row.Get(pr2LastName))
		votes, err1 := strconv.Atoi(row.Get(pr2Votes))
		expressed, err2 := strconv.Atoi(row.Get(pr2Expressed))
		if name == "" || err1 != nil || err2 != nil || expressed <= 0 || votes > expressed {
			skipped++
			continue
		}

		results[insee] = Runoff{
			Candidate:          name,
			Percentage:         roundTenth(float64(votes) / float64(expressed) * 100),
			OpposingPercentage: roundTenth(float64(expressed-votes) / float64(expressed) * 100),
		}
	}

	return results, skipped
}

func candidateName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
