// Package config provides configuration loading and management for scolmap.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete scolmap configuration
type Config struct {
	Region Region      `yaml:"region"`
	HTTP   HTTPConfig  `yaml:"http"`
	Paths  PathsConfig `yaml:"paths"`
}

// Department identifies one French department inside the target region.
type Department struct {
	// Name is the uppercase department name used by enrollment filters
	Name string `yaml:"name"`
	// Code is the two-digit department code (e.g. "44")
	Code string `yaml:"code"`
	// PaddedCode is the zero-padded three-digit form (e.g. "044") used by
	// some exam datasets
	PaddedCode string `yaml:"padded_code"`
}

// Region configures the geographic scope of a pipeline run.
type Region struct {
	// Name as it appears in dataset filters (e.g. "Pays de la Loire")
	Name string `yaml:"name"`
	// NameUpper is the uppercase variant some datasets filter on
	NameUpper string `yaml:"name_upper"`
	// Code is the INSEE region code
	Code string `yaml:"code"`
	// Departments lists every department in scope
	Departments []Department `yaml:"departments"`
}

// HTTPConfig configures the upstream API endpoints and pacing.
type HTTPConfig struct {
	// RecordsBaseURL is the Opendatasoft catalog base URL
	RecordsBaseURL string `yaml:"records_base_url"`
	// GeoBaseURL is the commune lookup service base URL
	GeoBaseURL string `yaml:"geo_base_url"`
	// RecordsPerSecond caps paginated record requests
	RecordsPerSecond float64 `yaml:"records_per_second"`
	// GeoPerSecond caps geocoding requests; the service enforces 50/s,
	// we stay at 45/s
	GeoPerSecond float64 `yaml:"geo_per_second"`
	// Timeout is the per-request timeout
	Timeout time.Duration `yaml:"timeout"`
	// BulkTimeout is the timeout for bulk CSV downloads (large files)
	BulkTimeout time.Duration `yaml:"bulk_timeout"`
}

// PathsConfig configures where cache artifacts and final outputs land.
type PathsConfig struct {
	// CacheDir holds per-source school cache artifacts
	CacheDir string `yaml:"cache_dir"`
	// PoliticalCacheDir holds per-contest political cache artifacts
	PoliticalCacheDir string `yaml:"political_cache_dir"`
	// OutDir holds the final schools and political profile outputs
	OutDir string `yaml:"out_dir"`
}

// DepartmentCodes returns the short department codes in configured order.
func (r Region) DepartmentCodes() []string {
	codes := make([]string, 0, len(r.Departments))
	for _, d := range r.Departments {
		codes = append(codes, d.Code)
	}
	return codes
}

// PaddedDepartmentCodes returns the zero-padded department codes.
func (r Region) PaddedDepartmentCodes() []string {
	codes := make([]string, 0, len(r.Departments))
	for _, d := range r.Departments {
		codes = append(codes, d.PaddedCode)
	}
	return codes
}

// DepartmentNames returns the uppercase department names.
func (r Region) DepartmentNames() []string {
	names := make([]string, 0, len(r.Departments))
	for _, d := range r.Departments {
		names = append(names, d.Name)
	}
	return names
}

// HasDepartment reports whether code is one of the region's short codes.
func (r Region) HasDepartment(code string) bool {
	for _, d := range r.Departments {
		if d.Code == code {
			return true
		}
	}
	return false
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Region: Region{
			Name:      "Pays de la Loire",
			NameUpper: "PAYS DE LA LOIRE",
			Code:      "52",
			Departments: []Department{
				{Name: "LOIRE-ATLANTIQUE", Code: "44", PaddedCode: "044"},
				{Name: "MAINE-ET-LOIRE", Code: "49", PaddedCode: "049"},
				{Name: "MAYENNE", Code: "53", PaddedCode: "053"},
				{Name: "SARTHE", Code: "72", PaddedCode: "072"},
				{Name: "VENDEE", Code: "85", PaddedCode: "085"},
			},
		},
		HTTP: HTTPConfig{
			RecordsBaseURL:   "https://data.education.gouv.fr/api/v2/catalog/datasets",
			GeoBaseURL:       "https://geo.api.gouv.fr",
			RecordsPerSecond: 2,
			GeoPerSecond:     45,
			Timeout:          30 * time.Second,
			BulkTimeout:      5 * time.Minute,
		},
		Paths: PathsConfig{
			CacheDir:          "data/cache",
			PoliticalCacheDir: "data/political_cache",
			OutDir:            "data/out",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Region.Name == "" {
		return fmt.Errorf("region.name is required")
	}
	if c.Region.Code == "" {
		return fmt.Errorf("region.code is required")
	}
	if len(c.Region.Departments) == 0 {
		return fmt.Errorf("region.departments must list at least one department")
	}
	for _, d := range c.Region.Departments {
		if d.Code == "" {
			return fmt.Errorf("department %q has no code", d.Name)
		}
	}
	if c.HTTP.RecordsPerSecond <= 0 {
		return fmt.Errorf("http.records_per_second must be positive")
	}
	if c.HTTP.GeoPerSecond <= 0 {
		return fmt.Errorf("http.geo_per_second must be positive")
	}
	if c.Paths.CacheDir == "" || c.Paths.OutDir == "" {
		return fmt.Errorf("paths.cache_dir and paths.out_dir are required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}
