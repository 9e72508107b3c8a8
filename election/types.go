// Package election builds per-commune political profiles from the
// interior-ministry election exports. Each contest ships in its own format
// (delimiter, encoding, column names and accumulation semantics differ per
// file and per round); every sub-parser normalizes into the same profile
// fragments keyed by INSEE commune code, and Merge combines them.
package election

// Candidate is one candidate line in a contest round.
type Candidate struct {
	Candidate  string  `json:"candidate"`
	Party      string  `json:"party,omitempty"`
	Percentage float64 `json:"percentage"`
}

// Mayor is the current officeholder of a commune.
type Mayor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// Party is filled from the municipal winning list during merge; the
	// national directory itself carries no affiliation.
	Party string `json:"party,omitempty"`
}

// MunicipalResult is the winning list of the decisive municipal round.
type MunicipalResult struct {
	Year        int     `json:"year"`
	Round       int     `json:"round"`
	WinningList string  `json:"winning_list"`
	Percentage  float64 `json:"percentage"`
	Party       string  `json:"party,omitempty"`
}

// Runoff is a two-way presidential runoff where the source file only
// carries one candidate's count; the opponent is derived from the valid
// ballot total.
type Runoff struct {
	Candidate          string  `json:"candidate"`
	Percentage         float64 `json:"percentage"`
	OpposingPercentage float64 `json:"opposing_percentage"`
}

// PresidentialResult holds both presidential rounds for a commune.
type PresidentialResult struct {
	Round1 []Candidate `json:"round_1,omitempty"`
	Round2 *Runoff     `json:"round_2,omitempty"`
}

// LegislativeResult holds both legislative rounds for a commune. Round 2 is
// capped at the runoff field size of two; round 1 retains every candidate,
// display truncation is the presentation layer's business.
type LegislativeResult struct {
	Round1 []Candidate `json:"round_1,omitempty"`
	Round2 []Candidate `json:"round_2,omitempty"`
}

// Profile is the merged political profile of one commune. A contest absent
// from the source data stays nil; it is never fabricated as zeros.
type Profile struct {
	CommuneName  string              `json:"commune_name"`
	INSEE        string              `json:"insee_code"`
	Mayor        *Mayor              `json:"mayor,omitempty"`
	Municipal    *MunicipalResult    `json:"municipal_2020,omitempty"`
	Presidential *PresidentialResult `json:"presidential_2022,omitempty"`
	Legislative  *LegislativeResult  `json:"legislative_2024,omitempty"`
}
