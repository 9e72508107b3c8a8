package fetch

import (
	"context"
	"strings"
)

const (
	datasetBrevet = "fr-en-dnb-par-etablissement"
	datasetBac    = "fr-en-indicateurs-de-resultat-des-lycees-gt_v2"
)

// Brevet field names. The success rate is a formatted string ("94,20%"),
// not a number.
const (
	brevetUAI        = "numero_d_etablissement"
	brevetSession    = "session"
	brevetRate       = "taux_de_reussite"
	brevetRegistered = "inscrits"
	brevetPresent    = "presents"
	brevetAdmitted   = "admis"
	brevetNoHonors   = "admis_sans_mention"
	brevetFair       = "nombre_d_admis_mention_ab"
	brevetGood       = "admis_mention_bien"
	brevetVeryGood   = "admis_mention_tres_bien"
)

const (
	bacUAI         = "uai"
	bacYear        = "annee"
	bacRate        = "taux_reu_total"
	bacAccess2nde  = "taux_acces_2nde"
	bacAccess1ere  = "taux_acces_1ere"
	bacAccessTerm  = "taux_acces_term"
	bacVASuccess   = "va_reu_total"
	bacVAAccess    = "va_acces_2nde"
	bacEff2nde     = "eff_2nde"
	bacEff1ere     = "eff_1ere"
	bacEffTerm     = "eff_term"
	bacPresentsAll = "presents_total"
)

// FetchBrevet downloads Brevet session outcomes per collège, most recent
// session only. The Brevet dataset filters on zero-padded department codes
// where every other exam dataset takes the short form.
func (r *Runner) FetchBrevet(ctx context.Context) ([]BrevetRecord, int, error) {
	where := orFilter("code_departement", r.region.PaddedDepartmentCodes())
	records, err := r.client.FetchAll(ctx, datasetBrevet, where)
	if err != nil {
		return nil, 0, err
	}

	type keyed struct {
		session string
		rec     BrevetRecord
	}
	latest := make(map[string]keyed)
	skipped := 0

	for _, rec := range records {
		uai := rec.Str(brevetUAI)
		if uai == "" {
			skipped++
			continue
		}
		session := rec.Str(brevetSession)

		entry := BrevetRecord{
			UAI:         uai,
			Session:     session,
			SuccessRate: parsePercent(rec.Str(brevetRate)),
			Registered:  optInt(rec, brevetRegistered),
			Present:     optInt(rec, brevetPresent),
			Admitted:    optInt(rec, brevetAdmitted),
			Honors: Honors{
				None:     optInt(rec, brevetNoHonors),
				Fair:     optInt(rec, brevetFair),
				Good:     optInt(rec, brevetGood),
				VeryGood: optInt(rec, brevetVeryGood),
			},
		}

		if prev, ok := latest[uai]; !ok || session > prev.session {
			latest[uai] = keyed{session: session, rec: entry}
		}
	}

	byUAI := make(map[string]BrevetRecord, len(latest))
	for uai, k := range latest {
		byUAI[uai] = k.rec
	}
	return sortedByUAI(byUAI), skipped, nil
}

// FetchBac downloads the lycée result indicators, most recent year only.
func (r *Runner) FetchBac(ctx context.Context) ([]BacRecord, int, error) {
	where := orFilter("code_departement", r.region.DepartmentCodes())
	records, err := r.client.FetchAll(ctx, datasetBac, where)
	if err != nil {
		return nil, 0, err
	}

	latest := make(map[string]BacRecord)
	skipped := 0

	for _, rec := range records {
		uai := rec.Str(bacUAI)
		if uai == "" {
			skipped++
			continue
		}

		entry := BacRecord{
			UAI:               uai,
			Year:              rec.Str(bacYear),
			SuccessRate:       optFloat(rec, bacRate),
			AccessRate2nde:    optFloat(rec, bacAccess2nde),
			AccessRate1ere:    optFloat(rec, bacAccess1ere),
			AccessRateTerm:    optFloat(rec, bacAccessTerm),
			ValueAddedSuccess: optFloat(rec, bacVASuccess),
			ValueAddedAccess:  optFloat(rec, bacVAAccess),
			Students2nde:      optInt(rec, bacEff2nde),
			Students1ere:      optInt(rec, bacEff1ere),
			StudentsTerm:      optInt(rec, bacEffTerm),
			Present:           optInt(rec, bacPresentsAll),
		}

		if prev, ok := latest[uai]; !ok || entry.Year > prev.Year {
			latest[uai] = entry
		}
	}

	return sortedByUAI(latest), skipped, nil
}

// parsePercent turns "94,20%" style strings into a rate. Returns nil when
// the value is empty or malformed.
func parsePercent(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return nil
	}
	f, ok := parseFloat(s)
	if !ok {
		return nil
	}
	return &f
}
