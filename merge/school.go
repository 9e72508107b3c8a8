// Package merge joins the cached school datasets on the UAI identifier and
// produces the final schools output.
package merge

import "github.com/scolmap/scolmap/fetch"

// Address locates a school, including the commune code the presentation
// layer joins on.
type Address struct {
	Street      string `json:"street"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
	CommuneCode string `json:"commune_code"`
	Department  string `json:"department"`
}

// Coordinates is a WGS84 position. Schools without one never reach the
// output; this is a map dataset.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Contact carries the directory's contact fields.
type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// Enrollment is the joined student count, with the derived class size for
// primary schools.
type Enrollment struct {
	Year      string   `json:"year,omitempty"`
	Students  int      `json:"students"`
	Classes   *int     `json:"classes,omitempty"`
	ClassSize *float64 `json:"class_size,omitempty"`
}

// SocialIndex is the joined social position index with its baselines.
type SocialIndex struct {
	Value          *float64 `json:"value,omitempty"`
	NotSignificant bool     `json:"not_significant,omitempty"`
	Year           string   `json:"year,omitempty"`
	Dispersion     *float64 `json:"dispersion,omitempty"`
	National       *float64 `json:"national,omitempty"`
	Academy        *float64 `json:"academy,omitempty"`
	Department     *float64 `json:"department,omitempty"`
}

// Exam result type labels.
const (
	ExamBrevet = "Brevet"
	ExamBac    = "Baccalauréat"
)

// ExamResults summarizes the tier's exam: Brevet fields for collèges, Bac
// fields for lycées.
type ExamResults struct {
	Type        string   `json:"type"`
	Year        string   `json:"year,omitempty"`
	SuccessRate *float64 `json:"success_rate,omitempty"`

	// Brevet
	Registered *int          `json:"registered,omitempty"`
	Present    *int          `json:"present,omitempty"`
	Admitted   *int          `json:"admitted,omitempty"`
	Honors     *fetch.Honors `json:"honors,omitempty"`

	// Baccalauréat
	AccessRate2nde    *float64 `json:"access_rate_2nde,omitempty"`
	AccessRate1ere    *float64 `json:"access_rate_1ere,omitempty"`
	AccessRateTerm    *float64 `json:"access_rate_term,omitempty"`
	ValueAddedSuccess *float64 `json:"value_added_success,omitempty"`
	ValueAddedAccess  *float64 `json:"value_added_access,omitempty"`
}

// Languages lists the foreign-language offer. Only meaningful for collèges
// and lycées.
type Languages struct {
	LV1 []string `json:"lv1"`
	LV2 []string `json:"lv2"`
}

// School is one record of the final output. Built once per unique UAI,
// never mutated afterwards.
type School struct {
	UAI         string       `json:"uai"`
	Name        string       `json:"name"`
	Tier        fetch.Tier   `json:"type"`
	Sector      string       `json:"sector"`
	Address     Address      `json:"address"`
	Coordinates Coordinates  `json:"coordinates"`
	Contact     *Contact     `json:"contact,omitempty"`
	Enrollment  *Enrollment  `json:"enrollment,omitempty"`
	SocialIndex *SocialIndex `json:"social_index,omitempty"`
	ExamResults *ExamResults `json:"exam_results,omitempty"`
	Languages   *Languages   `json:"languages,omitempty"`
}
