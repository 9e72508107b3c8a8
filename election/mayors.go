package election

import (
	"github.com/scolmap/scolmap/config"
	"github.com/scolmap/scolmap/opendata"
)

// RNE column names (national directory of elected officials).
const (
	rneFunction   = "Nom de la fonction"
	rneCommune    = "Code de la commune"
	rneDepartment = "Code du département"
	rneFirstName  = "Prénom de l'élu·e"
	rneLastName   = "Nom de l'élu·e"
)

// ParseMayors extracts current mayors from the RNE export. The directory
// lists every elected official; only rows whose function is exactly "Maire"
// count (adjoints carry a longer label and must not match). The commune
// code in this export is already the full INSEE code.
func ParseMayors(rows []opendata.Row, region config.Region) (map[string]Mayor, int) {
	mayors := make(map[string]Mayor)
	skipped := 0

	for _, row := range rows {
		if row.Get(rneFunction) != "Maire" {
			continue
		}

		insee := row.Get(rneCommune)
		dept := row.Get(rneDepartment)
		if insee == "" {
			skipped++
			continue
		}
		if !region.HasDepartment(dept) {
			continue
		}

		mayors[insee] = Mayor{
			FirstName: row.Get(rneFirstName),
			LastName:  row.Get(rneLastName),
		}
	}

	return mayors, skipped
}
