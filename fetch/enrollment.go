package fetch

import (
	"context"
	"fmt"
)

// Enrollment also ships per tier, each dataset keying the UAI and the
// department under a different name.
const (
	datasetEnrollEcoles   = "fr-en-ecoles-effectifs-nb_classes"
	datasetEnrollColleges = "fr-en-college-effectifs-niveau-sexe-lv"
	datasetEnrollLycees   = "fr-en-lycee_gt-effectifs-niveau-sexe-lv"
)

const (
	enrollYear = "rentree_scolaire"

	enrollEcoleUAI      = "numero_ecole"
	enrollEcoleStudents = "nombre_total_eleves"
	enrollEcoleClasses  = "nombre_total_classes"

	enrollCollegeUAI      = "numero_college"
	enrollCollegeStudents = "nombre_eleves_total"

	enrollLyceeUAI      = "numero_lycee"
	enrollLyceeStudents = "nombre_d_eleves"
)

// FetchEnrollment downloads student counts for all three tiers, keeping the
// most recent school year per establishment. Class counts only exist in the
// primary dataset.
func (r *Runner) FetchEnrollment(ctx context.Context) ([]EnrollmentRecord, int, error) {
	type tierSource struct {
		dataset  string
		tier     Tier
		where    string
		uai      string
		students string
		classes  string
	}

	sources := []tierSource{
		{
			dataset:  datasetEnrollEcoles,
			tier:     TierPrimary,
			where:    orFilter("departement", r.region.DepartmentNames()),
			uai:      enrollEcoleUAI,
			students: enrollEcoleStudents,
			classes:  enrollEcoleClasses,
		},
		{
			dataset:  datasetEnrollColleges,
			tier:     TierMiddle,
			where:    orFilter("code_dept", r.region.DepartmentCodes()),
			uai:      enrollCollegeUAI,
			students: enrollCollegeStudents,
		},
		{
			dataset:  datasetEnrollLycees,
			tier:     TierHigh,
			where:    orFilter("code_departement_pays", r.region.DepartmentCodes()),
			uai:      enrollLyceeUAI,
			students: enrollLyceeStudents,
		},
	}

	latest := make(map[string]EnrollmentRecord)
	skipped := 0

	for _, src := range sources {
		records, err := r.client.FetchAll(ctx, src.dataset, src.where)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", src.dataset, err)
		}

		for _, rec := range records {
			uai := rec.Str(src.uai)
			if uai == "" {
				skipped++
				continue
			}

			students, ok := rec.Int(src.students)
			if !ok {
				skipped++
				continue
			}

			entry := EnrollmentRecord{
				UAI:      uai,
				Tier:     src.tier,
				Year:     rec.Str(enrollYear),
				Students: students,
			}
			if src.classes != "" {
				entry.Classes = optInt(rec, src.classes)
			}

			if prev, ok := latest[uai]; !ok || entry.Year > prev.Year {
				latest[uai] = entry
			}
		}
	}

	return sortedByUAI(latest), skipped, nil
}
