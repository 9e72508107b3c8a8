package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/scolmap/scolmap/opendata"
)

// The social position index ships as three datasets, one per tier, with
// slightly different schemas: the lycée dataset names the index field
// differently and only the region filter works on the école one.
const (
	datasetIPSEcoles   = "fr-en-ips-ecoles-ap2022"
	datasetIPSColleges = "fr-en-ips-colleges-ap2023"
	datasetIPSLycees   = "fr-en-ips-lycees-ap2023"
)

const (
	ipsUAI           = "uai"
	ipsYear          = "rentree_scolaire"
	ipsValue         = "ips"
	ipsValueLycee    = "ips_ensemble_gt_pro"
	ipsDispersion    = "ecart_type_de_l_ips"
	ipsDispersionAlt = "ecart_type_etablissement"
	ipsNational      = "ips_national"
	ipsAcademy       = "ips_academique"
	ipsDepartment    = "ips_departemental"
)

// FetchSocialIndex downloads the index for all three tiers and keeps the
// most recent year per establishment.
func (r *Runner) FetchSocialIndex(ctx context.Context) ([]SocialIndexRecord, int, error) {
	type tierSource struct {
		dataset string
		tier    Tier
		where   string
		value   string
	}

	deptFilter := orFilter("code_du_departement", r.region.DepartmentCodes())
	sources := []tierSource{
		{datasetIPSEcoles, TierPrimary, fmt.Sprintf("region='%s'", r.region.NameUpper), ipsValue},
		{datasetIPSColleges, TierMiddle, deptFilter, ipsValue},
		{datasetIPSLycees, TierHigh, deptFilter, ipsValueLycee},
	}

	latest := make(map[string]SocialIndexRecord)
	skipped := 0

	for _, src := range sources {
		records, err := r.client.FetchAll(ctx, src.dataset, src.where)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", src.dataset, err)
		}

		for _, rec := range records {
			uai := rec.Str(ipsUAI)
			if uai == "" {
				skipped++
				continue
			}

			value, ok := ParseSocialValue(rec.Str(src.value))
			if !ok {
				skipped++
				continue
			}

			entry := SocialIndexRecord{
				UAI:        uai,
				Tier:       src.tier,
				Index:      value,
				Year:       rec.Str(ipsYear),
				Dispersion: firstFloat(rec, ipsDispersion, ipsDispersionAlt),
				National:   optFloat(rec, ipsNational),
				Academy:    optFloat(rec, ipsAcademy),
				Department: optFloat(rec, ipsDepartment),
			}

			if prev, ok := latest[uai]; !ok || entry.Year > prev.Year {
				latest[uai] = entry
			}
		}
	}

	return sortedByUAI(latest), skipped, nil
}

func firstFloat(rec opendata.Record, names ...string) *float64 {
	for _, name := range names {
		if f, ok := rec.Float(name); ok {
			return &f
		}
	}
	return nil
}

// orFilter builds the records API where clause matching any of the values.
func orFilter(field string, values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%s='%s'", field, v))
	}
	return strings.Join(parts, " OR ")
}
