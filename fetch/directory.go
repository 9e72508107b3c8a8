package fetch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/scolmap/scolmap/opendata"
)

const datasetDirectory = "fr-en-annuaire-education"

// Directory field names in fr-en-annuaire-education.
const (
	dirUAI         = "identifiant_de_l_etablissement"
	dirName        = "nom_etablissement"
	dirType        = "type_etablissement"
	dirNature      = "libelle_nature"
	dirSector      = "statut_public_prive"
	dirStreet      = "adresse_1"
	dirPostalCode  = "code_postal"
	dirCity        = "nom_commune"
	dirCommuneCode = "code_commune"
	dirDepartment  = "libelle_departement"
	dirLatitude    = "latitude"
	dirLongitude   = "longitude"
	dirEnrollment  = "nombre_d_eleves"
	dirPhone       = "telephone"
	dirEmail       = "mail"
	dirWebsite     = "web"
	dirElementary  = "ecole_elementaire"
	dirVoieGeneral = "voie_generale"
	dirVoiePro     = "voie_professionnelle"
)

// FetchDirectory downloads the establishment directory for the region and
// keeps general-curriculum schools only. The filter runs here, before
// caching, so excluded schools never show up in coverage statistics
// downstream.
func (r *Runner) FetchDirectory(ctx context.Context) ([]DirectoryRecord, int, error) {
	where := fmt.Sprintf("libelle_region='%s'", r.region.Name)
	records, err := r.client.FetchAll(ctx, datasetDirectory, where)
	if err != nil {
		return nil, 0, err
	}

	var schools []DirectoryRecord
	skipped := 0
	for _, rec := range records {
		uai := rec.Str(dirUAI)
		if uai == "" {
			skipped++
			continue
		}

		tier, keep := classifyDirectory(rec)
		if !keep {
			continue
		}

		schools = append(schools, DirectoryRecord{
			UAI:         uai,
			Name:        rec.Str(dirName),
			Tier:        tier,
			Sector:      rec.Str(dirSector),
			Street:      rec.Str(dirStreet),
			PostalCode:  rec.Str(dirPostalCode),
			City:        rec.Str(dirCity),
			CommuneCode: rec.Str(dirCommuneCode),
			Department:  rec.Str(dirDepartment),
			Latitude:    optFloat(rec, dirLatitude),
			Longitude:   optFloat(rec, dirLongitude),
			Enrollment:  optInt(rec, dirEnrollment),
			Phone:       rec.Str(dirPhone),
			Email:       rec.Str(dirEmail),
			Website:     rec.Str(dirWebsite),
		})
	}

	return schools, skipped, nil
}

// classifyDirectory assigns the tier and decides whether the establishment
// belongs to the general curriculum:
//   - écoles stay when they have an elementary level (pure pre-schools go),
//   - collèges all stay,
//   - lycées stay with a general track; professional and technical-only
//     establishments go, detected by nature label, name, and the voie
//     flags. Both flags unspecified means the data is silent, and the
//     lycée stays.
func classifyDirectory(rec opendata.Record) (Tier, bool) {
	kind := rec.Str(dirType)
	nature := strings.ToUpper(rec.Str(dirNature))

	switch {
	case strings.Contains(kind, "Ecole") || strings.Contains(nature, "ECOLE"):
		elementary, _ := rec.Int(dirElementary)
		return TierPrimary, elementary == 1

	case strings.Contains(kind, "Collège") || strings.Contains(nature, "COLLEGE"):
		return TierMiddle, true

	case strings.Contains(kind, "Lycée") || strings.Contains(nature, "LYCEE"):
		name := strings.ToLower(rec.Str(dirName))
		if strings.Contains(nature, "PROFESSIONNEL") || strings.Contains(name, "professionnel") {
			return TierHigh, false
		}
		if truthy(rec, dirVoieGeneral) {
			return TierHigh, true
		}
		if !rec.Has(dirVoieGeneral) && !rec.Has(dirVoiePro) {
			return TierHigh, true
		}
		return TierHigh, false
	}

	return "", false
}

// truthy interprets the directory's flag fields, which show up as booleans,
// numbers or strings depending on the dataset vintage.
func truthy(rec opendata.Record, name string) bool {
	if !rec.Has(name) {
		return false
	}
	switch s := rec.Str(name); s {
	case "1", "true", "Oui", "oui":
		return true
	}
	if f, ok := rec.Float(name); ok {
		return f != 0
	}
	return false
}

func optFloat(rec opendata.Record, name string) *float64 {
	if f, ok := rec.Float(name); ok {
		return &f
	}
	return nil
}

func optInt(rec opendata.Record, name string) *int {
	if n, ok := rec.Int(name); ok {
		return &n
	}
	return nil
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
