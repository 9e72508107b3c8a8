package fetch

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scolmap/scolmap/artifact"
	"github.com/scolmap/scolmap/config"
	"github.com/scolmap/scolmap/metrics"
	"github.com/scolmap/scolmap/opendata"
)

// Artifact names owned by the school pipeline.
const (
	ArtifactDirectory   = "directory.json"
	ArtifactSocialIndex = "social_index.json"
	ArtifactEnrollment  = "enrollment.json"
	ArtifactLanguages   = "languages.json"
	ArtifactExams       = "exams.json"
)

// SourceStats summarizes one source fetch.
type SourceStats struct {
	Records int
	Skipped int
}

// RunStats summarizes a fetch run. A failed source appears in Failures; its
// previous cache artifact, if any, stays untouched. RunID correlates the
// run's log lines; it never reaches the cache artifacts, which stay
// byte-identical across runs over unchanged source data.
type RunStats struct {
	RunID    string
	Sources  map[string]SourceStats
	Failures map[string]error
}

// Runner drives every school source fetcher. All fetchers share one records
// client, so its rate limiter paces the combined request stream.
type Runner struct {
	client *opendata.Client
	store  *artifact.Store
	region config.Region
	logger *slog.Logger
}

// NewRunner wires a runner onto the school cache store.
func NewRunner(client *opendata.Client, store *artifact.Store, region config.Region, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{client: client, store: store, region: region, logger: logger}
}

// DirectoryArtifact is the cached directory shape.
type DirectoryArtifact struct {
	Meta    artifact.Meta     `json:"meta"`
	Schools []DirectoryRecord `json:"schools"`
}

// SocialIndexArtifact is the cached social index shape.
type SocialIndexArtifact struct {
	Meta    artifact.Meta       `json:"meta"`
	Records []SocialIndexRecord `json:"records"`
}

// EnrollmentArtifact is the cached enrollment shape.
type EnrollmentArtifact struct {
	Meta    artifact.Meta      `json:"meta"`
	Records []EnrollmentRecord `json:"records"`
}

// LanguagesArtifact is the cached language offer shape.
type LanguagesArtifact struct {
	Meta    artifact.Meta    `json:"meta"`
	Records []LanguageRecord `json:"records"`
}

// ExamsArtifact caches both exam sources together; they always join to
// disjoint tiers.
type ExamsArtifact struct {
	Meta   artifact.Meta  `json:"meta"`
	Brevet []BrevetRecord `json:"brevet"`
	Bac    []BacRecord    `json:"bac"`
}

// Run fetches every school source concurrently. Sources are independent: a
// failing one is recorded and the others still refresh their artifacts.
// Zero records from a source is a valid outcome, not a failure.
func (r *Runner) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{
		RunID:    uuid.NewString(),
		Sources:  make(map[string]SourceStats),
		Failures: make(map[string]error),
	}
	logger := r.logger.With("run_id", stats.RunID)

	type outcome struct {
		name string
		stat SourceStats
		err  error
	}
	results := make(chan outcome, 5)

	// Plain group: one dead source must not cancel its siblings.
	var g errgroup.Group

	run := func(name string, fn func() (SourceStats, error)) {
		g.Go(func() error {
			stat, err := fn()
			results <- outcome{name: name, stat: stat, err: err}
			return nil
		})
	}

	run("directory", func() (SourceStats, error) { return r.runDirectory(ctx) })
	run("social_index", func() (SourceStats, error) { return r.runSocialIndex(ctx) })
	run("enrollment", func() (SourceStats, error) { return r.runEnrollment(ctx) })
	run("languages", func() (SourceStats, error) { return r.runLanguages(ctx) })
	run("exams", func() (SourceStats, error) { return r.runExams(ctx) })

	_ = g.Wait()
	close(results)

	for out := range results {
		if out.err != nil {
			metrics.FetchFailures.WithLabelValues(out.name).Inc()
			logger.Error("source fetch failed", "source", out.name, "error", out.err)
			stats.Failures[out.name] = out.err
			continue
		}
		stats.Sources[out.name] = out.stat
		logger.Info("source fetched",
			"source", out.name,
			"records", out.stat.Records,
			"skipped_rows", out.stat.Skipped)
	}

	return stats, nil
}

func (r *Runner) runDirectory(ctx context.Context) (SourceStats, error) {
	schools, skipped, err := r.FetchDirectory(ctx)
	if err != nil {
		return SourceStats{}, err
	}
	metrics.RecordsFetched.WithLabelValues("directory").Add(float64(len(schools)))
	metrics.RowsSkipped.WithLabelValues("directory").Add(float64(skipped))

	art := DirectoryArtifact{
		Meta:    artifact.NewMeta(datasetDirectory, len(schools), skipped),
		Schools: schools,
	}
	if err := r.store.Write(ArtifactDirectory, art); err != nil {
		return SourceStats{}, err
	}
	return SourceStats{Records: len(schools), Skipped: skipped}, nil
}

func (r *Runner) runSocialIndex(ctx context.Context) (SourceStats, error) {
	records, skipped, err := r.FetchSocialIndex(ctx)
	if err != nil {
		return SourceStats{}, err
	}
	metrics.RecordsFetched.WithLabelValues("social_index").Add(float64(len(records)))
	metrics.RowsSkipped.WithLabelValues("social_index").Add(float64(skipped))

	art := SocialIndexArtifact{
		Meta:    artifact.NewMeta("fr-en-ips", len(records), skipped),
		Records: records,
	}
	if err := r.store.Write(ArtifactSocialIndex, art); err != nil {
		return SourceStats{}, err
	}
	return SourceStats{Records: len(records), Skipped: skipped}, nil
}

func (r *Runner) runEnrollment(ctx context.Context) (SourceStats, error) {
	records, skipped, err := r.FetchEnrollment(ctx)
	if err != nil {
		return SourceStats{}, err
	}
	metrics.RecordsFetched.WithLabelValues("enrollment").Add(float64(len(records)))
	metrics.RowsSkipped.WithLabelValues("enrollment").Add(float64(skipped))

	art := EnrollmentArtifact{
		Meta:    artifact.NewMeta("fr-en-effectifs", len(records), skipped),
		Records: records,
	}
	if err := r.store.Write(ArtifactEnrollment, art); err != nil {
		return SourceStats{}, err
	}
	return SourceStats{Records: len(records), Skipped: skipped}, nil
}

func (r *Runner) runLanguages(ctx context.Context) (SourceStats, error) {
	records, skipped, err := r.FetchLanguages(ctx)
	if err != nil {
		return SourceStats{}, err
	}
	metrics.RecordsFetched.WithLabelValues("languages").Add(float64(len(records)))
	metrics.RowsSkipped.WithLabelValues("languages").Add(float64(skipped))

	art := LanguagesArtifact{
		Meta:    artifact.NewMeta(datasetLanguages, len(records), skipped),
		Records: records,
	}
	if err := r.store.Write(ArtifactLanguages, art); err != nil {
		return SourceStats{}, err
	}
	return SourceStats{Records: len(records), Skipped: skipped}, nil
}

func (r *Runner) runExams(ctx context.Context) (SourceStats, error) {
	brevet, skippedB, err := r.FetchBrevet(ctx)
	if err != nil {
		return SourceStats{}, err
	}
	bac, skippedL, err := r.FetchBac(ctx)
	if err != nil {
		return SourceStats{}, err
	}

	total := len(brevet) + len(bac)
	skipped := skippedB + skippedL
	metrics.RecordsFetched.WithLabelValues("exams").Add(float64(total))
	metrics.RowsSkipped.WithLabelValues("exams").Add(float64(skipped))

	art := ExamsArtifact{
		Meta:   artifact.NewMeta("fr-en-exams", total, skipped),
		Brevet: brevet,
		Bac:    bac,
	}
	if err := r.store.Write(ArtifactExams, art); err != nil {
		return SourceStats{}, err
	}
	return SourceStats{Records: total, Skipped: skipped}, nil
}

// sortedByUAI flattens a UAI-keyed map into a deterministically ordered
// slice, keeping artifact output byte-stable across runs.
func sortedByUAI[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
