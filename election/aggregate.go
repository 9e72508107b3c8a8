package election

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scolmap/scolmap/artifact"
	"github.com/scolmap/scolmap/config"
	"github.com/scolmap/scolmap/metrics"
	"github.com/scolmap/scolmap/opendata"
)

// Artifact names owned by the political pipeline.
const (
	ArtifactMayors       = "mayors.json"
	ArtifactMunicipal    = "municipal_2020.json"
	ArtifactPresidential = "presidential_2022.json"
	ArtifactLegislative  = "legislative_2024.json"
	ArtifactProfiles     = "political_data.json"
)

// Sources lists the bulk export URLs per contest. Municipal rounds ship as
// two files each (small and large communes), hence the slices.
type Sources struct {
	MayorsURL             string
	MunicipalRound1URLs   []string
	MunicipalRound2URLs   []string
	PresidentialRound1URL string
	PresidentialRound2URL string
	LegislativeRound1URL  string
	LegislativeRound2URL  string
}

// DefaultSources returns the data.gouv.fr resource URLs for the contests
// the pipeline covers.
func DefaultSources() Sources {
	return Sources{
		MayorsURL:             "https://public.opendatasoft.com/api/explore/v2.1/catalog/datasets/donnees-du-repertoire-national-des-elus/exports/csv/?delimiters=%3B&lang=en&timezone=UTC&use_labels=true",
		MunicipalRound1URLs:   []string{"https://www.data.gouv.fr/api/1/datasets/r/69d9d438-5e5b-4b2b-918c-0a5f9b95b2d3"},
		MunicipalRound2URLs: []string{
			"https://www.data.gouv.fr/api/1/datasets/r/7a5faf5f-7e3b-4de6-9f1d-a8e3ad176476",
			"https://www.data.gouv.fr/api/1/datasets/r/e7cae0aa-5e36-4370-b724-6f233014d0d6",
		},
		PresidentialRound1URL: "https://www.data.gouv.fr/api/1/datasets/r/68b19a8d-5921-4d49-a0c7-b9241ddce9e6",
		PresidentialRound2URL: "https://www.data.gouv.fr/api/1/datasets/r/c700bcf1-5d88-4da6-b998-094587a90444",
		LegislativeRound1URL:  "https://www.data.gouv.fr/api/1/datasets/r/bd32fcd3-53df-47ac-bf1d-8d8003fe23a1",
		LegislativeRound2URL:  "https://www.data.gouv.fr/api/1/datasets/r/5a8088fd-8168-402a-9f40-c48daab88cd1",
	}
}

// ContestStats summarizes one contest's fetch.
type ContestStats struct {
	Communes int
	Skipped  int
}

// RunStats summarizes an aggregator run. A failed contest appears in
// Failures and is simply absent from the merged profiles; the siblings
// still contribute. RunID correlates the run's log lines and stays out of
// the cache artifacts, which remain byte-identical across runs over
// unchanged source data.
type RunStats struct {
	RunID    string
	Contests map[string]ContestStats
	Failures map[string]error
}

// Aggregator fetches every contest, caches per-contest artifacts and
// merges them into commune profiles.
type Aggregator struct {
	bulk    *opendata.BulkClient
	store   *artifact.Store
	region  config.Region
	sources Sources
	logger  *slog.Logger
}

// NewAggregator wires an aggregator onto the political cache store.
func NewAggregator(bulk *opendata.BulkClient, store *artifact.Store, region config.Region, sources Sources, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{bulk: bulk, store: store, region: region, sources: sources, logger: logger}
}

type mayorsArtifact struct {
	Meta   artifact.Meta    `json:"meta"`
	Mayors map[string]Mayor `json:"mayors"`
}

type municipalArtifact struct {
	Meta    artifact.Meta              `json:"meta"`
	Results map[string]MunicipalResult `json:"results"`
}

type presidentialArtifact struct {
	Meta    artifact.Meta                 `json:"meta"`
	Results map[string]PresidentialResult `json:"results"`
}

type legislativeArtifact struct {
	Meta    artifact.Meta                `json:"meta"`
	Results map[string]LegislativeResult `json:"results"`
}

// Run fetches all contests concurrently, each writing its own cache
// artifact. Contests are independent: one unreachable source is recorded
// and the others proceed. Run then merges whatever caches exist (including
// ones from earlier runs) into the profile artifact.
func (a *Aggregator) Run(ctx context.Context, communeNames map[string]string) (*RunStats, error) {
	stats := &RunStats{
		RunID:    uuid.NewString(),
		Contests: make(map[string]ContestStats),
		Failures: make(map[string]error),
	}
	logger := a.logger.With("run_id", stats.RunID)

	type outcome struct {
		name string
		stat ContestStats
		err  error
	}
	results := make(chan outcome, 4)

	// Plain group, not WithContext: an unreachable contest must not cancel
	// its siblings, only lose its own contribution.
	var g errgroup.Group

	run := func(name string, fn func() (ContestStats, error)) {
		g.Go(func() error {
			stat, err := fn()
			results <- outcome{name: name, stat: stat, err: err}
			return nil
		})
	}

	run("mayors", func() (ContestStats, error) { return a.fetchMayors(ctx) })
	run("municipal_2020", func() (ContestStats, error) { return a.fetchMunicipal(ctx) })
	run("presidential_2022", func() (ContestStats, error) { return a.fetchPresidential(ctx) })
	run("legislative_2024", func() (ContestStats, error) { return a.fetchLegislative(ctx) })

	_ = g.Wait()
	close(results)

	for out := range results {
		if out.err != nil {
			metrics.FetchFailures.WithLabelValues(out.name).Inc()
			logger.Error("contest fetch failed", "contest", out.name, "error", out.err)
			stats.Failures[out.name] = out.err
			continue
		}
		stats.Contests[out.name] = out.stat
		logger.Info("contest fetched",
			"contest", out.name,
			"communes", out.stat.Communes,
			"skipped_rows", out.stat.Skipped)
	}

	if err := a.mergeProfiles(communeNames); err != nil {
		return stats, err
	}
	return stats, nil
}

func (a *Aggregator) fetchMayors(ctx context.Context) (ContestStats, error) {
	rows, err := a.bulk.Rows(ctx, a.sources.MayorsURL, opendata.RowOptions{
		Source:    "rne-mayors",
		Delimiter: ';',
		Charset:   opendata.CharsetUTF8,
	})
	if err != nil {
		return ContestStats{}, err
	}

	mayors, skipped := ParseMayors(rows.Rows, a.region)
	skipped += rows.Skipped
	metrics.RowsSkipped.WithLabelValues("rne-mayors").Add(float64(skipped))

	art := mayorsArtifact{
		Meta:   artifact.NewMeta("rne-mayors", len(mayors), skipped),
		Mayors: mayors,
	}
	if err := a.store.Write(ArtifactMayors, art); err != nil {
		return ContestStats{}, err
	}
	return ContestStats{Communes: len(mayors), Skipped: skipped}, nil
}

func (a *Aggregator) fetchMunicipal(ctx context.Context) (ContestStats, error) {
	parseRound := func(urls []string, round int, opts opendata.RowOptions) (map[string]MunicipalResult, int, error) {
		merged := make(map[string]MunicipalResult)
		skipped := 0
		for _, url := range urls {
			rows, err := a.bulk.Rows(ctx, url, opts)
			if err != nil {
				return nil, 0, fmt.Errorf("round %d: %w", round, err)
			}
			results, s := ParseMunicipalRound(rows.Rows, round, a.region)
			skipped += s + rows.Skipped
			for insee, res := range results {
				if prev, ok := merged[insee]; !ok || res.Percentage > prev.Percentage {
					merged[insee] = res
				}
			}
		}
		return merged, skipped, nil
	}

	// Round 1 is tab-separated, round 2 semicolon-separated. Same record
	// shape on the other side.
	r1, skipped1, err := parseRound(a.sources.MunicipalRound1URLs, 1, opendata.RowOptions{
		Source:    "municipales-t1",
		Delimiter: '\t',
		Charset:   opendata.CharsetLatin1,
	})
	if err != nil {
		return ContestStats{}, err
	}
	r2, skipped2, err := parseRound(a.sources.MunicipalRound2URLs, 2, opendata.RowOptions{
		Source:    "municipales-t2",
		Delimiter: ';',
		Charset:   opendata.CharsetLatin1,
	})
	if err != nil {
		return ContestStats{}, err
	}

	merged := MergeMunicipalRounds(r1, r2)
	skipped := skipped1 + skipped2
	metrics.RowsSkipped.WithLabelValues("municipales").Add(float64(skipped))

	art := municipalArtifact{
		Meta:    artifact.NewMeta("municipales-2020", len(merged), skipped),
		Results: merged,
	}
	if err := a.store.Write(ArtifactMunicipal, art); err != nil {
		return ContestStats{}, err
	}
	return ContestStats{Communes: len(merged), Skipped: skipped}, nil
}

func (a *Aggregator) fetchPresidential(ctx context.Context) (ContestStats, error) {
	// Round 1 and round 2 use different encodings and column sets; the
	// charset is per round, not per contest.
	r1rows, err := a.bulk.Rows(ctx, a.sources.PresidentialRound1URL, opendata.RowOptions{
		Source:    "presidentielle-t1",
		Delimiter: ',',
		Charset:   opendata.CharsetUTF8,
	})
	if err != nil {
		return ContestStats{}, fmt.Errorf("round 1: %w", err)
	}
	r2rows, err := a.bulk.Rows(ctx, a.sources.PresidentialRound2URL, opendata.RowOptions{
		Source:    "presidentielle-t2",
		Delimiter: ';',
		Charset:   opendata.CharsetLatin1,
	})
	if err != nil {
		return ContestStats{}, fmt.Errorf("round 2: %w", err)
	}

	r1, skipped1 := ParsePresidentialRound1(r1rows.Rows, a.region)
	r2, skipped2 := ParsePresidentialRound2(r2rows.Rows, a.region)
	skipped := skipped1 + skipped2 + r1rows.Skipped + r2rows.Skipped
	metrics.RowsSkipped.WithLabelValues("presidentielle").Add(float64(skipped))

	merged := make(map[string]PresidentialResult)
	for insee, candidates := range r1 {
		res := merged[insee]
		res.Round1 = candidates
		merged[insee] = res
	}
	for insee, runoff := range r2 {
		res := merged[insee]
		r := runoff
		res.Round2 = &r
		merged[insee] = res
	}

	art := presidentialArtifact{
		Meta:    artifact.NewMeta("presidentielle-2022", len(merged), skipped),
		Results: merged,
	}
	if err := a.store.Write(ArtifactPresidential, art); err != nil {
		return ContestStats{}, err
	}
	return ContestStats{Communes: len(merged), Skipped: skipped}, nil
}

func (a *Aggregator) fetchLegislative(ctx context.Context) (ContestStats, error) {
	r1rows, err := a.bulk.Rows(ctx, a.sources.LegislativeRound1URL, opendata.RowOptions{
		Source:    "legislatives-t1",
		Delimiter: ';',
		Charset:   opendata.CharsetLatin1,
	})
	if err != nil {
		return ContestStats{}, fmt.Errorf("round 1: %w", err)
	}
	r2rows, err := a.bulk.Rows(ctx, a.sources.LegislativeRound2URL, opendata.RowOptions{
		Source:    "legislatives-t2",
		Delimiter: ';',
		Charset:   opendata.CharsetLatin1,
	})
	if err != nil {
		return ContestStats{}, fmt.Errorf("round 2: %w", err)
	}

	r1, skipped1 := ParseLegislativeRound(r1rows.Rows, 1, a.region)
	r2, skipped2 := ParseLegislativeRound(r2rows.Rows, 2, a.region)
	skipped := skipped1 + skipped2 + r1rows.Skipped + r2rows.Skipped
	metrics.RowsSkipped.WithLabelValues("legislatives").Add(float64(skipped))

	merged := make(map[string]LegislativeResult)
	for insee, candidates := range r1 {
		res := merged[insee]
		res.Round1 = candidates
		merged[insee] = res
	}
	for insee, candidates := range r2 {
		res := merged[insee]
		res.Round2 = candidates
		merged[insee] = res
	}

	art := legislativeArtifact{
		Meta:    artifact.NewMeta("legislatives-2024", len(merged), skipped),
		Results: merged,
	}
	if err := a.store.Write(ArtifactLegislative, art); err != nil {
		return ContestStats{}, err
	}
	return ContestStats{Communes: len(merged), Skipped: skipped}, nil
}

// mergeProfiles reads whatever contest artifacts exist and writes the
// merged profile artifact. Missing artifacts leave their field nil on the
// profile; they are never zero-filled.
func (a *Aggregator) mergeProfiles(communeNames map[string]string) error {
	var mayors mayorsArtifact
	var municipal municipalArtifact
	var presidential presidentialArtifact
	var legislative legislativeArtifact

	_ = a.store.Read(ArtifactMayors, &mayors)
	_ = a.store.Read(ArtifactMunicipal, &municipal)
	_ = a.store.Read(ArtifactPresidential, &presidential)
	_ = a.store.Read(ArtifactLegislative, &legislative)

	profiles := Merge(mayors.Mayors, municipal.Results, presidential.Results, legislative.Results, communeNames)
	if err := a.store.Write(ArtifactProfiles, profiles); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}

	a.logger.Info("political profiles merged", "communes", len(profiles))
	return nil
}

// maxRound1Candidates caps the presidential round-1 field on profiles. The
// cache artifact keeps every candidate; profiles only carry the leaders.
const maxRound1Candidates = 4

// Merge combines the per-contest results into one profile per commune. The
// commune universe is the union of every contest's keys; a commune missing
// from a contest simply omits that field. The mayor's affiliation comes
// from the municipal winning list, via the party label table.
func Merge(
	mayors map[string]Mayor,
	municipal map[string]MunicipalResult,
	presidential map[string]PresidentialResult,
	legislative map[string]LegislativeResult,
	communeNames map[string]string,
) map[string]Profile {
	codes := make(map[string]struct{})
	for insee := range mayors {
		codes[insee] = struct{}{}
	}
	for insee := range municipal {
		codes[insee] = struct{}{}
	}
	for insee := range presidential {
		codes[insee] = struct{}{}
	}
	for insee := range legislative {
		codes[insee] = struct{}{}
	}

	sorted := make([]string, 0, len(codes))
	for insee := range codes {
		sorted = append(sorted, insee)
	}
	sort.Strings(sorted)

	profiles := make(map[string]Profile, len(sorted))
	for _, insee := range sorted {
		profile := Profile{INSEE: insee}

		if name, ok := communeNames[insee]; ok && name != "" {
			profile.CommuneName = name
		} else {
			profile.CommuneName = "Commune " + insee
		}

		if m, ok := mayors[insee]; ok {
			mayor := m
			if res, ok := municipal[insee]; ok && res.Party != "" {
				mayor.Party = PartyLabel(res.Party)
			}
			profile.Mayor = &mayor
		}
		if res, ok := municipal[insee]; ok {
			r := res
			r.Party = PartyLabel(r.Party)
			profile.Municipal = &r
		}
		if res, ok := presidential[insee]; ok {
			r := res
			if len(r.Round1) > maxRound1Candidates {
				r.Round1 = r.Round1[:maxRound1Candidates]
			}
			profile.Presidential = &r
		}
		if res, ok := legislative[insee]; ok {
			r := res
			profile.Legislative = &r
		}

		profiles[insee] = profile
	}

	return profiles
}
