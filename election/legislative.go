package election

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/scolmap/scolmap/config"
	"github.com/scolmap/scolmap/opendata"
)

// Legislative exports are "wide": one row per commune (or per
// circonscription slice of a commune) with numbered candidate column
// groups. The commune code column already holds the full INSEE code and is
// used verbatim; prefixing it with the department again would corrupt every
// identifier ("44" + "44109" = "4444109").
const (
	legDepartment = "Code département"
	legCommune    = "Code commune"
	legExpressed  = "Exprimés"

	// runoffFieldSize caps legislative round 2: a runoff never fields
	// more than two candidates, whatever the export lists.
	runoffFieldSize = 2
)

type legCandidate struct {
	Candidate
	votes int
}

// ParseLegislativeRound aggregates one legislative round. Candidates from
// every row of a commune are pooled (large communes split across
// circonscriptions produce several rows), ordered by vote count. Round 2 is
// truncated to the runoff field size; round 1 keeps everything.
func ParseLegislativeRound(rows []opendata.Row, round int, region config.Region) (map[string][]Candidate, int) {
	pool := make(map[string][]legCandidate)
	skipped := 0

	for _, row := range rows {
		insee := row.Get(legCommune)
		if insee == "" {
			continue
		}
		dept := row.Get(legDepartment)
		if !region.HasDepartment(dept) {
			continue
		}

		expressed, err := strconv.Atoi(row.Get(legExpressed))
		if err != nil || expressed <= 0 {
			skipped++
			continue
		}

		for n := 1; ; n++ {
			last := row.Get(fmt.Sprintf("Nom candidat %d", n))
			rawVotes := row.Get(fmt.Sprintf("Voix %d", n))
			if last == "" || rawVotes == "" {
				break
			}

			votes, err := strconv.Atoi(rawVotes)
			if err != nil {
				skipped++
				continue
			}

			first := row.Get(fmt.Sprintf("Prénom candidat %d", n))
			nuance := row.Get(fmt.Sprintf("Nuance candidat %d", n))
			party := PartyLabel(nuance)
			if nuance == "" {
				party = "Divers"
			}

			pool[insee] = append(pool[insee], legCandidate{
				Candidate: Candidate{
					Candidate:  candidateName(first, last),
					Party:      party,
					Percentage: roundTenth(float64(votes) / float64(expressed) * 100),
				},
				votes: votes,
			})
		}
	}

	results := make(map[string][]Candidate, len(pool))
	for insee, candidates := range pool {
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].votes != candidates[j].votes {
				return candidates[i].votes > candidates[j].votes
			}
			return candidates[i].Candidate.Candidate < candidates[j].Candidate.Candidate
		})

		if round == 2 && len(candidates) > runoffFieldSize {
			candidates = candidates[:runoffFieldSize]
		}

		out := make([]Candidate, len(candidates))
		for i, c := range candidates {
			out[i] = c.Candidate
		}
		results[insee] = out
	}

	return results, skipped
}
