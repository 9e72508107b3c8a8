package merge

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/scolmap/scolmap/artifact"
	"github.com/scolmap/scolmap/fetch"
)

// ArtifactSchools is the final schools output file.
const ArtifactSchools = "schools.json"

// Merger reads the cached datasets and writes the final schools artifact.
// The output is a plain JSON array, no envelope; that shape is the contract
// with the presentation layer.
type Merger struct {
	cache  *artifact.Store
	out    *artifact.Store
	logger *slog.Logger
}

// NewMerger wires a merger between the school cache and the output store.
func NewMerger(cache, out *artifact.Store, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{cache: cache, out: out, logger: logger}
}

// Run loads whatever cache artifacts exist and regenerates the schools
// output wholesale. The directory is the base dataset and must exist; a
// missing enrichment artifact just means that data is absent this run.
func (m *Merger) Run() (Stats, error) {
	var dir fetch.DirectoryArtifact
	if err := m.cache.Read(fetch.ArtifactDirectory, &dir); err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return Stats{}, fmt.Errorf("directory cache missing, run fetch first: %w", err)
		}
		return Stats{}, fmt.Errorf("read directory cache: %w", err)
	}

	var social fetch.SocialIndexArtifact
	var enrollment fetch.EnrollmentArtifact
	var languages fetch.LanguagesArtifact
	var exams fetch.ExamsArtifact
	m.readOptional(fetch.ArtifactSocialIndex, &social)
	m.readOptional(fetch.ArtifactEnrollment, &enrollment)
	m.readOptional(fetch.ArtifactLanguages, &languages)
	m.readOptional(fetch.ArtifactExams, &exams)

	schools, stats := Build(Inputs{
		Directory:  dir.Schools,
		Social:     social.Records,
		Enrollment: enrollment.Records,
		Languages:  languages.Records,
		Brevet:     exams.Brevet,
		Bac:        exams.Bac,
	})

	if err := m.out.Write(ArtifactSchools, schools); err != nil {
		return stats, fmt.Errorf("write schools: %w", err)
	}

	m.logger.Info("schools merged",
		"total", stats.Total,
		"primary", stats.Primary,
		"middle", stats.Middle,
		"high", stats.High,
		"deduplicated", stats.Deduplicated,
		"no_coordinates", stats.NoCoordinates)
	return stats, nil
}

func (m *Merger) readOptional(name string, v any) {
	if err := m.cache.Read(name, v); err != nil && !errors.Is(err, artifact.ErrNotFound) {
		m.logger.Warn("unreadable cache artifact ignored", "artifact", name, "error", err)
	}
}
