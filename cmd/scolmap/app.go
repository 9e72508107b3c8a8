package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/scolmap/scolmap/artifact"
	"github.com/scolmap/scolmap/config"
	"github.com/scolmap/scolmap/election"
	"github.com/scolmap/scolmap/fetch"
	"github.com/scolmap/scolmap/geocode"
	"github.com/scolmap/scolmap/merge"
	"github.com/scolmap/scolmap/metrics"
	"github.com/scolmap/scolmap/opendata"
	"github.com/scolmap/scolmap/validate"
)

// app holds the wiring every stage shares: configuration, logging and the
// three artifact stores.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	cache     *artifact.Store
	political *artifact.Store
	out       *artifact.Store
}

func newApp(configPath, logLevel, metricsAddr string) (*app, error) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cache, err := artifact.NewStore(cfg.Paths.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	political, err := artifact.NewStore(cfg.Paths.PoliticalCacheDir)
	if err != nil {
		return nil, fmt.Errorf("open political cache store: %w", err)
	}
	out, err := artifact.NewStore(cfg.Paths.OutDir)
	if err != nil {
		return nil, fmt.Errorf("open output store: %w", err)
	}

	if metricsAddr != "" {
		metrics.Serve(metricsAddr)
	}

	return &app{cfg: cfg, logger: logger, cache: cache, political: political, out: out}, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM. Artifacts
// are replaced atomically, so an interrupted stage keeps its previous
// caches.
func (a *app) signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func (a *app) runFetch() error {
	ctx, cancel := a.signalContext()
	defer cancel()

	client := opendata.NewClient(a.cfg.HTTP.RecordsBaseURL, a.cfg.HTTP.Timeout, a.cfg.HTTP.RecordsPerSecond)
	runner := fetch.NewRunner(client, a.cache, a.cfg.Region, a.logger)

	stats, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	return failureSummary("source", stats.Failures)
}

func (a *app) runPolitical() error {
	ctx, cancel := a.signalContext()
	defer cancel()

	mapper := geocode.NewMapper(a.cfg.HTTP.GeoBaseURL, a.cfg.HTTP.Timeout, a.cfg.HTTP.GeoPerSecond, a.political, a.logger)
	communeNames := a.resolveCommuneNames(ctx, mapper)

	bulk := opendata.NewBulkClient(a.cfg.HTTP.BulkTimeout)
	agg := election.NewAggregator(bulk, a.political, a.cfg.Region, election.DefaultSources(), a.logger)

	stats, err := agg.Run(ctx, communeNames)
	if err != nil {
		return err
	}

	// Publish the merged profiles as a final output alongside schools.json.
	var profiles map[string]election.Profile
	if err := a.political.Read(election.ArtifactProfiles, &profiles); err != nil {
		return fmt.Errorf("read profiles: %w", err)
	}
	if err := a.out.Write(election.ArtifactProfiles, profiles); err != nil {
		return fmt.Errorf("write profiles output: %w", err)
	}

	return failureSummary("contest", stats.Failures)
}

// resolveCommuneNames maps the directory's postal codes to INSEE codes and
// commune names. The directory cache is optional here: without it the
// profiles fall back to generated names, which the political stage
// tolerates.
func (a *app) resolveCommuneNames(ctx context.Context, mapper *geocode.Mapper) map[string]string {
	var dir fetch.DirectoryArtifact
	if err := a.cache.Read(fetch.ArtifactDirectory, &dir); err != nil {
		a.logger.Warn("directory cache unavailable, commune names will be generated", "error", err)
		return mapper.Names()
	}

	lookupFailures := 0
	for _, school := range dir.Schools {
		if _, err := mapper.Resolve(ctx, school.PostalCode, school.City); err != nil {
			lookupFailures++
			a.logger.Warn("commune lookup failed", "postal_code", school.PostalCode, "error", err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	if err := mapper.Save(); err != nil {
		a.logger.Warn("could not persist commune mapping", "error", err)
	}

	stats := mapper.Stats()
	a.logger.Info("commune resolution finished",
		"resolved", stats.Resolved,
		"ambiguous", stats.Ambiguous,
		"unresolved", stats.Unresolved,
		"cache_hits", stats.CacheHits,
		"lookup_failures", lookupFailures)

	return mapper.Names()
}

func (a *app) runMerge() error {
	_, err := merge.NewMerger(a.cache, a.out, a.logger).Run()
	return err
}

func (a *app) runValidate() error {
	report, err := validate.New(a.out, validate.DefaultBounds(), a.logger).Run()
	if err != nil {
		return err
	}

	for _, w := range report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, e := range report.Errors {
		fmt.Printf("error: %s\n", e)
	}

	if !report.OK() {
		return fmt.Errorf("validation failed: %d errors, %d warnings", len(report.Errors), len(report.Warnings))
	}
	fmt.Printf("validation passed: %d warnings\n", len(report.Warnings))
	return nil
}

// failureSummary turns per-source failures into a non-zero exit with one
// readable line, after the successes already refreshed their artifacts.
func failureSummary(kind string, failures map[string]error) error {
	if len(failures) == 0 {
		return nil
	}
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("%d %s(s) failed: %s", len(failures), kind, strings.Join(names, ", "))
}
