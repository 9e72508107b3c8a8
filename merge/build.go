package merge

import (
	"sort"

	"github.com/scolmap/scolmap/fetch"
)

// Inputs are the cached datasets the build joins. Everything except the
// directory may be empty; partially populated runs still produce a valid
// output.
type Inputs struct {
	Directory  []fetch.DirectoryRecord
	Social     []fetch.SocialIndexRecord
	Enrollment []fetch.EnrollmentRecord
	Languages  []fetch.LanguageRecord
	Brevet     []fetch.BrevetRecord
	Bac        []fetch.BacRecord
}

// Stats counts what the build kept and dropped.
type Stats struct {
	Total           int
	Primary         int
	Middle          int
	High            int
	Deduplicated    int
	NoCoordinates   int
	WithSocialIndex int
	WithEnrollment  int
	WithExams       int
	WithLanguages   int
}

// Build joins every dataset on the UAI and returns one record per unique
// school, ordered by UAI. Duplicate directory rows (multi-campus listings)
// collapse deterministically: a row with coordinates beats one without,
// otherwise the first row seen wins. Schools without coordinates are
// dropped; they cannot be placed on the map.
func Build(in Inputs) ([]School, Stats) {
	var stats Stats

	directory := dedupeDirectory(in.Directory, &stats)

	social := make(map[string]fetch.SocialIndexRecord, len(in.Social))
	for _, rec := range in.Social {
		social[rec.UAI] = rec
	}
	enrollment := make(map[string]fetch.EnrollmentRecord, len(in.Enrollment))
	for _, rec := range in.Enrollment {
		enrollment[rec.UAI] = rec
	}
	languages := make(map[string]fetch.LanguageRecord, len(in.Languages))
	for _, rec := range in.Languages {
		languages[rec.UAI] = rec
	}
	brevet := make(map[string]fetch.BrevetRecord, len(in.Brevet))
	for _, rec := range in.Brevet {
		brevet[rec.UAI] = rec
	}
	bac := make(map[string]fetch.BacRecord, len(in.Bac))
	for _, rec := range in.Bac {
		bac[rec.UAI] = rec
	}

	schools := make([]School, 0, len(directory))
	for _, dir := range directory {
		if dir.Latitude == nil || dir.Longitude == nil {
			stats.NoCoordinates++
			continue
		}

		school := School{
			UAI:    dir.UAI,
			Name:   dir.Name,
			Tier:   dir.Tier,
			Sector: dir.Sector,
			Address: Address{
				Street:      dir.Street,
				PostalCode:  dir.PostalCode,
				City:        dir.City,
				CommuneCode: dir.CommuneCode,
				Department:  dir.Department,
			},
			Coordinates: Coordinates{
				Latitude:  *dir.Latitude,
				Longitude: *dir.Longitude,
			},
		}
		if dir.Phone != "" || dir.Email != "" || dir.Website != "" {
			school.Contact = &Contact{Phone: dir.Phone, Email: dir.Email, Website: dir.Website}
		}

		joinEnrollment(&school, dir, enrollment, &stats)
		joinSocialIndex(&school, social, &stats)
		joinExams(&school, brevet, bac, &stats)
		joinLanguages(&school, languages, &stats)

		switch school.Tier {
		case fetch.TierPrimary:
			stats.Primary++
		case fetch.TierMiddle:
			stats.Middle++
		case fetch.TierHigh:
			stats.High++
		}

		schools = append(schools, school)
		stats.Total++
	}

	sort.Slice(schools, func(i, j int) bool { return schools[i].UAI < schools[j].UAI })
	return schools, stats
}

// dedupeDirectory collapses rows sharing a UAI to exactly one, preferring
// the row with coordinates, then the first seen. The order of the result
// follows the first appearance of each UAI.
func dedupeDirectory(rows []fetch.DirectoryRecord, stats *Stats) []fetch.DirectoryRecord {
	byUAI := make(map[string]int, len(rows))
	out := make([]fetch.DirectoryRecord, 0, len(rows))

	for _, row := range rows {
		idx, seen := byUAI[row.UAI]
		if !seen {
			byUAI[row.UAI] = len(out)
			out = append(out, row)
			continue
		}

		stats.Deduplicated++
		kept := out[idx]
		if kept.Latitude == nil && row.Latitude != nil {
			out[idx] = row
		}
	}

	return out
}

func joinEnrollment(school *School, dir fetch.DirectoryRecord, enrollment map[string]fetch.EnrollmentRecord, stats *Stats) {
	rec, ok := enrollment[school.UAI]
	if ok && rec.Tier == school.Tier {
		stats.WithEnrollment++
		e := &Enrollment{Year: rec.Year, Students: rec.Students, Classes: rec.Classes}
		if school.Tier == fetch.TierPrimary && rec.Classes != nil && *rec.Classes > 0 && rec.Students > 0 {
			size := float64(rec.Students) / float64(*rec.Classes)
			e.ClassSize = &size
		}
		school.Enrollment = e
		return
	}

	// Fall back to the directory head count when the enrollment dataset has
	// no row. No class size: the class count only exists in that dataset.
	if dir.Enrollment != nil {
		school.Enrollment = &Enrollment{Students: *dir.Enrollment}
	}
}

func joinSocialIndex(school *School, social map[string]fetch.SocialIndexRecord, stats *Stats) {
	rec, ok := social[school.UAI]
	if !ok || rec.Tier != school.Tier {
		return
	}
	stats.WithSocialIndex++
	school.SocialIndex = &SocialIndex{
		Value:          rec.Index.Value,
		NotSignificant: rec.Index.NotSignificant,
		Year:           rec.Year,
		Dispersion:     rec.Dispersion,
		National:       rec.National,
		Academy:        rec.Academy,
		Department:     rec.Department,
	}
}

func joinExams(school *School, brevet map[string]fetch.BrevetRecord, bac map[string]fetch.BacRecord, stats *Stats) {
	switch school.Tier {
	case fetch.TierMiddle:
		rec, ok := brevet[school.UAI]
		if !ok {
			return
		}
		stats.WithExams++
		honors := rec.Honors
		school.ExamResults = &ExamResults{
			Type:        ExamBrevet,
			Year:        rec.Session,
			SuccessRate: rec.SuccessRate,
			Registered:  rec.Registered,
			Present:     rec.Present,
			Admitted:    rec.Admitted,
			Honors:      &honors,
		}

	case fetch.TierHigh:
		rec, ok := bac[school.UAI]
		if !ok {
			return
		}
		stats.WithExams++
		school.ExamResults = &ExamResults{
			Type:              ExamBac,
			Year:              rec.Year,
			SuccessRate:       rec.SuccessRate,
			Present:           rec.Present,
			AccessRate2nde:    rec.AccessRate2nde,
			AccessRate1ere:    rec.AccessRate1ere,
			AccessRateTerm:    rec.AccessRateTerm,
			ValueAddedSuccess: rec.ValueAddedSuccess,
			ValueAddedAccess:  rec.ValueAddedAccess,
		}
	}
}

func joinLanguages(school *School, languages map[string]fetch.LanguageRecord, stats *Stats) {
	// Primary schools have no LV1/LV2 offer; a stray row is source noise.
	if school.Tier == fetch.TierPrimary {
		return
	}
	rec, ok := languages[school.UAI]
	if !ok {
		return
	}
	stats.WithLanguages++
	school.Languages = &Languages{LV1: rec.LV1, LV2: rec.LV2}
}
