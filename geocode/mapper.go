// Package geocode resolves postal-code/city pairs to INSEE commune codes
// using the geo.api.gouv.fr communes endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/scolmap/scolmap/artifact"
	"github.com/scolmap/scolmap/metrics"
)

// ArtifactMapping is the cache artifact holding candidate communes per
// postal code. It persists across runs so repeat resolutions cost nothing.
const ArtifactMapping = "insee_mapping.json"

const userAgent = "scolmap/1.0 (+https://github.com/scolmap/scolmap)"

// Commune mirrors one entry of the geo API response.
type Commune struct {
	Name string `json:"nom"`
	Code string `json:"code"`
}

// Resolution is the outcome of one postal-code/city lookup. Ambiguous
// marks a fallback pick: several communes share the postal code and none
// matched the requested name.
type Resolution struct {
	INSEE     string
	Name      string
	Ambiguous bool
}

// Stats counts resolution outcomes over a run.
type Stats struct {
	Resolved   int
	Ambiguous  int
	Unresolved int
	CacheHits  int
}

// Mapper resolves INSEE codes with a persistent per-postal-code cache. A
// single Mapper (and its rate limiter) is shared by everything that talks
// to the geo API during a run.
type Mapper struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	store      *artifact.Store
	logger     *slog.Logger

	cache map[string][]Commune
	dirty bool
	stats Stats
}

type mappingArtifact struct {
	Meta        artifact.Meta        `json:"meta"`
	PostalCodes map[string][]Commune `json:"postal_codes"`
}

// NewMapper creates a mapper backed by the given cache store. Previously
// cached postal codes are loaded immediately; a missing artifact just means
// a cold cache.
func NewMapper(baseURL string, timeout time.Duration, requestsPerSecond float64, store *artifact.Store, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mapper{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
			Timeout: timeout,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		store:   store,
		logger:  logger,
		cache:   make(map[string][]Commune),
	}

	var art mappingArtifact
	if err := store.Read(ArtifactMapping, &art); err == nil && art.PostalCodes != nil {
		m.cache = art.PostalCodes
	}
	return m
}

// Resolve maps a postal code and city name to an INSEE code. Several
// communes can share a postal code; the city name disambiguates. When no
// name matches, the first candidate is used and flagged so the caller can
// log it. An empty postal code or a postal code with no communes resolves
// to nothing, never a guess.
func (m *Mapper) Resolve(ctx context.Context, postalCode, city string) (Resolution, error) {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		m.stats.Unresolved++
		return Resolution{}, nil
	}

	candidates, ok := m.cache[postalCode]
	if ok {
		m.stats.CacheHits++
	} else {
		fetched, err := m.lookup(ctx, postalCode)
		if err != nil {
			return Resolution{}, fmt.Errorf("postal code %s: %w", postalCode, err)
		}
		m.cache[postalCode] = fetched
		m.dirty = true
		candidates = fetched
	}

	if len(candidates) == 0 {
		m.stats.Unresolved++
		m.logger.Warn("no commune for postal code", "postal_code", postalCode, "city", city)
		return Resolution{}, nil
	}

	if len(candidates) == 1 {
		m.stats.Resolved++
		return Resolution{INSEE: candidates[0].Code, Name: candidates[0].Name}, nil
	}

	want := normalizeName(city)
	for _, c := range candidates {
		if normalizeName(c.Name) == want {
			m.stats.Resolved++
			return Resolution{INSEE: c.Code, Name: c.Name}, nil
		}
	}

	m.stats.Ambiguous++
	m.logger.Warn("ambiguous postal code, using first commune",
		"postal_code", postalCode,
		"city", city,
		"picked", candidates[0].Name)
	return Resolution{INSEE: candidates[0].Code, Name: candidates[0].Name, Ambiguous: true}, nil
}

// Names returns commune names keyed by INSEE code for every cached
// candidate, resolved or not.
func (m *Mapper) Names() map[string]string {
	names := make(map[string]string)
	for _, candidates := range m.cache {
		for _, c := range candidates {
			if c.Code != "" && c.Name != "" {
				names[c.Code] = c.Name
			}
		}
	}
	return names
}

// Stats reports the resolution counters accumulated so far.
func (m *Mapper) Stats() Stats {
	return m.stats
}

// Save persists the postal-code cache when lookups added to it.
func (m *Mapper) Save() error {
	if !m.dirty {
		return nil
	}
	art := mappingArtifact{
		Meta:        artifact.NewMeta("geo-api-communes", len(m.cache), 0),
		PostalCodes: m.cache,
	}
	if err := m.store.Write(ArtifactMapping, art); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	m.dirty = false
	return nil
}

func (m *Mapper) lookup(ctx context.Context, postalCode string) ([]Commune, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("codePostal", postalCode)
	params.Set("fields", "nom,code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/communes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	metrics.HTTPRequests.WithLabelValues("geo").Inc()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var communes []Commune
	if err := json.Unmarshal(body, &communes); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return communes, nil
}

// normalizeName folds the spelling variants seen across datasets: case,
// hyphen/space interchange and the ST/SAINT abbreviation.
func normalizeName(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "-", " ")
	words := strings.Fields(s)
	for i, w := range words {
		switch w {
		case "ST":
			words[i] = "SAINT"
		case "STE":
			words[i] = "SAINTE"
		}
	}
	return strings.Join(words, " ")
}
