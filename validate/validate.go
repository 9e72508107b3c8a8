// Package validate checks the final artifacts offline: shape, value
// ranges, and source coverage. It never touches the network; a full run
// takes well under a second.
package validate

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/scolmap/scolmap/artifact"
	"github.com/scolmap/scolmap/election"
	"github.com/scolmap/scolmap/fetch"
	"github.com/scolmap/scolmap/merge"
)

// Report collects validation findings. Errors are contract violations the
// presentation layer cannot absorb; warnings flag suspicious but tolerable
// data, like thin coverage.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the run found no errors. Warnings do not fail a run.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Bounds is the plausible coordinate box for the region.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// DefaultBounds generously covers Pays de la Loire.
func DefaultBounds() Bounds {
	return Bounds{MinLat: 46.0, MaxLat: 48.8, MinLon: -2.8, MaxLon: 1.0}
}

// Value range limits. The index range is deliberately wider than anything
// the source has published.
const (
	indexMin     = 40.0
	indexMax     = 180.0
	classSizeMin = 5.0
	classSizeMax = 40.0

	// sumTolerance absorbs the per-candidate rounding to one decimal.
	sumTolerance = 1.0
	// pairTolerance bounds the runoff pair drift from 100.
	pairTolerance = 0.3

	mayorsCoverageFloor    = 0.8
	municipalCoverageFloor = 0.3
)

var (
	uaiPattern   = regexp.MustCompile(`^[0-9A-Za-z]{8}$`)
	inseePattern = regexp.MustCompile(`^[0-9]{5}$`)
)

// Suite validates the final output artifacts.
type Suite struct {
	out    *artifact.Store
	bounds Bounds
	logger *slog.Logger
}

// New wires a suite onto the output store.
func New(out *artifact.Store, bounds Bounds, logger *slog.Logger) *Suite {
	if logger == nil {
		logger = slog.Default()
	}
	return &Suite{out: out, bounds: bounds, logger: logger}
}

// Run validates whichever final artifacts exist. A missing artifact is an
// error: validation only makes sense after the pipeline produced output.
func (s *Suite) Run() (*Report, error) {
	report := &Report{}

	var schools []merge.School
	if err := s.out.Read(merge.ArtifactSchools, &schools); err != nil {
		if !errors.Is(err, artifact.ErrNotFound) {
			return nil, fmt.Errorf("read schools: %w", err)
		}
		report.errorf("schools artifact missing: %s", merge.ArtifactSchools)
	} else {
		CheckSchools(report, schools, s.bounds)
	}

	var profiles map[string]election.Profile
	if err := s.out.Read(election.ArtifactProfiles, &profiles); err != nil {
		if !errors.Is(err, artifact.ErrNotFound) {
			return nil, fmt.Errorf("read profiles: %w", err)
		}
		report.errorf("political artifact missing: %s", election.ArtifactProfiles)
	} else {
		CheckPolitical(report, profiles)
	}

	s.logger.Info("validation finished",
		"errors", len(report.Errors),
		"warnings", len(report.Warnings))
	return report, nil
}

// CheckSchools validates the schools array shape and value ranges.
func CheckSchools(report *Report, schools []merge.School, bounds Bounds) {
	seen := make(map[string]bool, len(schools))

	for _, school := range schools {
		if !uaiPattern.MatchString(school.UAI) {
			report.errorf("school %q: malformed UAI", school.UAI)
		}
		if seen[school.UAI] {
			report.errorf("school %s: duplicate UAI", school.UAI)
		}
		seen[school.UAI] = true

		switch school.Tier {
		case fetch.TierPrimary, fetch.TierMiddle, fetch.TierHigh:
		default:
			report.errorf("school %s: unknown tier %q", school.UAI, school.Tier)
		}

		switch school.Sector {
		case "Public", "Privé":
		case "":
			report.warnf("school %s: missing sector", school.UAI)
		default:
			report.errorf("school %s: unknown sector %q", school.UAI, school.Sector)
		}

		lat, lon := school.Coordinates.Latitude, school.Coordinates.Longitude
		if lat < bounds.MinLat || lat > bounds.MaxLat || lon < bounds.MinLon || lon > bounds.MaxLon {
			report.errorf("school %s: coordinates (%f, %f) outside region", school.UAI, lat, lon)
		}

		if idx := school.SocialIndex; idx != nil && idx.Value != nil {
			if idx.NotSignificant {
				report.errorf("school %s: social index both numeric and not-significant", school.UAI)
			}
			if *idx.Value < indexMin || *idx.Value > indexMax {
				report.errorf("school %s: social index %.1f out of range", school.UAI, *idx.Value)
			}
		}

		if e := school.Enrollment; e != nil && e.ClassSize != nil {
			if *e.ClassSize < classSizeMin || *e.ClassSize > classSizeMax {
				report.warnf("school %s: class size %.1f implausible", school.UAI, *e.ClassSize)
			}
		}

		if ex := school.ExamResults; ex != nil {
			checkRate(report, school.UAI, "success rate", ex.SuccessRate)
			checkRate(report, school.UAI, "access rate 2nde", ex.AccessRate2nde)
			checkRate(report, school.UAI, "access rate 1ere", ex.AccessRate1ere)
			checkRate(report, school.UAI, "access rate terminale", ex.AccessRateTerm)
		}

		if school.Languages != nil && school.Tier == fetch.TierPrimary {
			report.errorf("school %s: language offer on a primary school", school.UAI)
		}
	}
}

func checkRate(report *Report, uai, label string, rate *float64) {
	if rate == nil {
		return
	}
	if *rate < 0 || *rate > 100 {
		report.errorf("school %s: %s %.1f outside 0-100", uai, label, *rate)
	}
}

// CheckPolitical validates the per-commune profiles.
func CheckPolitical(report *Report, profiles map[string]election.Profile) {
	mayors := 0
	municipal := 0

	for insee, profile := range profiles {
		if !inseePattern.MatchString(insee) {
			report.errorf("profile %q: malformed INSEE code", insee)
		}
		if profile.INSEE != insee {
			report.errorf("profile %s: key and INSEE field disagree (%q)", insee, profile.INSEE)
		}

		if profile.Mayor != nil {
			mayors++
		}
		if profile.Municipal != nil {
			municipal++
			if p := profile.Municipal.Percentage; p < 0 || p > 100 {
				report.errorf("profile %s: municipal percentage %.1f outside 0-100", insee, p)
			}
			if r := profile.Municipal.Round; r != 1 && r != 2 {
				report.errorf("profile %s: municipal round %d", insee, r)
			}
		}

		if pres := profile.Presidential; pres != nil {
			checkRoundShares(report, insee, "presidential round 1", pres.Round1)
			if pres.Round2 != nil {
				sum := pres.Round2.Percentage + pres.Round2.OpposingPercentage
				if sum < 100-pairTolerance || sum > 100+pairTolerance {
					report.errorf("profile %s: runoff pair sums to %.1f", insee, sum)
				}
			}
		}

		if leg := profile.Legislative; leg != nil {
			checkRoundShares(report, insee, "legislative round 1", leg.Round1)
			checkRoundShares(report, insee, "legislative round 2", leg.Round2)
			if len(leg.Round2) > 2 {
				report.errorf("profile %s: %d candidates in a runoff", insee, len(leg.Round2))
			}
		}
	}

	if n := len(profiles); n > 0 {
		if float64(mayors)/float64(n) < mayorsCoverageFloor {
			report.warnf("mayor coverage %d/%d below floor", mayors, n)
		}
		if float64(municipal)/float64(n) < municipalCoverageFloor {
			report.warnf("municipal coverage %d/%d below floor", municipal, n)
		}
	}
}

// checkRoundShares verifies every share is a percentage and that a round's
// shares do not sum past 100 plus rounding slack. Sums well under 100 are
// normal: candidate lists can be truncated for display.
func checkRoundShares(report *Report, insee, label string, candidates []election.Candidate) {
	sum := 0.0
	for _, c := range candidates {
		if c.Percentage < 0 || c.Percentage > 100 {
			report.errorf("profile %s: %s share %.1f outside 0-100", insee, label, c.Percentage)
		}
		sum += c.Percentage
	}
	if sum > 100+sumTolerance {
		report.errorf("profile %s: %s shares sum to %.1f", insee, label, sum)
	}
}
