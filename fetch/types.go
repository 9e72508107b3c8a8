// Package fetch retrieves and normalizes the school datasets: the
// establishment directory, the social position index, enrollment figures,
// language offerings and exam results. Each source writes its own cache
// artifact; the merge stage joins them on the UAI identifier.
package fetch

import "strings"

// Tier is the school category derived from the directory.
type Tier string

const (
	TierPrimary Tier = "Primaire"
	TierMiddle  Tier = "Collège"
	TierHigh    Tier = "Lycée"
)

// DirectoryRecord is one establishment from the national directory, already
// restricted to the general curriculum.
type DirectoryRecord struct {
	UAI         string   `json:"uai"`
	Name        string   `json:"name"`
	Tier        Tier     `json:"tier"`
	Sector      string   `json:"sector"`
	Street      string   `json:"street"`
	PostalCode  string   `json:"postal_code"`
	City        string   `json:"city"`
	CommuneCode string   `json:"commune_code"`
	Department  string   `json:"department"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Enrollment  *int     `json:"enrollment,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Email       string   `json:"email,omitempty"`
	Website     string   `json:"website,omitempty"`
}

// SocialValue holds a social position index value. The source publishes
// "NS" for establishments too small to score; that sentinel survives as
// NotSignificant rather than being dropped or zeroed.
type SocialValue struct {
	Value          *float64 `json:"value,omitempty"`
	NotSignificant bool     `json:"not_significant,omitempty"`
}

// ParseSocialValue interprets a raw index field. Returns false for empty or
// unparsable values that are not the sentinel.
func ParseSocialValue(raw string) (SocialValue, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return SocialValue{}, false
	}
	if strings.EqualFold(s, "NS") {
		return SocialValue{NotSignificant: true}, true
	}
	f, ok := parseFloat(s)
	if !ok {
		return SocialValue{}, false
	}
	return SocialValue{Value: &f}, true
}

// SocialIndexRecord is the social position index for one establishment,
// with the comparison baselines the source publishes alongside it.
type SocialIndexRecord struct {
	UAI        string      `json:"uai"`
	Tier       Tier        `json:"tier"`
	Index      SocialValue `json:"index"`
	Year       string      `json:"year"`
	Dispersion *float64    `json:"dispersion,omitempty"`
	National   *float64    `json:"national,omitempty"`
	Academy    *float64    `json:"academy,omitempty"`
	Department *float64    `json:"department,omitempty"`
}

// EnrollmentRecord carries student counts for one establishment. Classes is
// only published for primary schools.
type EnrollmentRecord struct {
	UAI      string `json:"uai"`
	Tier     Tier   `json:"tier"`
	Year     string `json:"year"`
	Students int    `json:"students"`
	Classes  *int   `json:"classes,omitempty"`
}

// LanguageRecord lists the foreign languages an establishment offers,
// deduplicated, in the order the source lists them.
type LanguageRecord struct {
	UAI string   `json:"uai"`
	LV1 []string `json:"lv1"`
	LV2 []string `json:"lv2"`
}

// Honors breaks down Brevet admissions by distinction.
type Honors struct {
	None     *int `json:"sans_mention,omitempty"`
	Fair     *int `json:"assez_bien,omitempty"`
	Good     *int `json:"bien,omitempty"`
	VeryGood *int `json:"tres_bien,omitempty"`
}

// BrevetRecord is one collège's Brevet session outcome.
type BrevetRecord struct {
	UAI         string   `json:"uai"`
	Session     string   `json:"session"`
	SuccessRate *float64 `json:"success_rate,omitempty"`
	Registered  *int     `json:"registered,omitempty"`
	Present     *int     `json:"present,omitempty"`
	Admitted    *int     `json:"admitted,omitempty"`
	Honors      Honors   `json:"honors"`
}

// BacRecord is one lycée's result indicators: completion, the access rates
// from each grade to the diploma, and the value-added scores.
type BacRecord struct {
	UAI               string   `json:"uai"`
	Year              string   `json:"year"`
	SuccessRate       *float64 `json:"success_rate,omitempty"`
	AccessRate2nde    *float64 `json:"access_rate_2nde,omitempty"`
	AccessRate1ere    *float64 `json:"access_rate_1ere,omitempty"`
	AccessRateTerm    *float64 `json:"access_rate_term,omitempty"`
	ValueAddedSuccess *float64 `json:"value_added_success,omitempty"`
	ValueAddedAccess  *float64 `json:"value_added_access,omitempty"`
	Students2nde      *int     `json:"students_2nde,omitempty"`
	Students1ere      *int     `json:"students_1ere,omitempty"`
	StudentsTerm      *int     `json:"students_term,omitempty"`
	Present           *int     `json:"present,omitempty"`
}
