package election

// PartyLabels maps the ministry's short nuance codes to display labels.
// Static lookup data; codes missing here fall through unchanged.
var PartyLabels = map[string]string{
	"LEXG": "Extrême gauche",
	"LCOM": "Communiste",
	"LFI":  "La France insoumise",
	"LSOC": "Socialiste",
	"LUG":  "Union de la gauche",
	"LDVG": "Divers gauche",
	"LVEC": "Écologiste",
	"LECO": "Écologiste",
	"LDIV": "Divers",
	"LREG": "Régionaliste",
	"LREM": "Renaissance (ex-LREM)",
	"LMDM": "Modem",
	"LUDI": "UDI",
	"LUC":  "Union du centre",
	"LDVC": "Divers centre",
	"LLR":  "Les Républicains",
	"LUD":  "Union de la droite",
	"LDVD": "Divers droite",
	"LDLF": "Debout la France",
	"LRN":  "Rassemblement national",
	"LEXD": "Extrême droite",
	"LRDG": "Radical de gauche",
	"LNC":  "Non classé",
	"NC":   "Non classé",

	// Legislative 2024 block codes
	"UG":  "Union de la gauche (NFP)",
	"ENS": "Ensemble (majorité présidentielle)",
	"RN":  "Rassemblement national",
	"LR":  "Les Républicains",
	"UXD": "Union de l'extrême droite",
	"DVD": "Divers droite",
	"DVG": "Divers gauche",
	"DVC": "Divers centre",
	"DIV": "Divers",
	"ECO": "Écologiste",
	"REG": "Régionaliste",
	"UDI": "UDI",
	"EXG": "Extrême gauche",
	"EXD": "Extrême droite",
	"SOC": "Socialiste",
	"COM": "Communiste",
	"FI":  "La France insoumise",
	"HOR": "Horizons",
}

// PartyLabel resolves a nuance code to its display label, falling back to
// the raw code for anything unknown.
func PartyLabel(code string) string {
	if label, ok := PartyLabels[code]; ok {
		return label
	}
	return code
}
