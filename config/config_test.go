package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Pays de la Loire", cfg.Region.Name)
	assert.Equal(t, "52", cfg.Region.Code)
	assert.Len(t, cfg.Region.Departments, 5)
	assert.Equal(t, []string{"44", "49", "53", "72", "85"}, cfg.Region.DepartmentCodes())
	assert.Equal(t, []string{"044", "049", "053", "072", "085"}, cfg.Region.PaddedDepartmentCodes())
}

func TestRegionHasDepartment(t *testing.T) {
	region := DefaultConfig().Region

	assert.True(t, region.HasDepartment("44"))
	assert.True(t, region.HasDepartment("85"))
	assert.False(t, region.HasDepartment("75"))
	assert.False(t, region.HasDepartment("044"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default config is valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing region name",
			mutate:  func(c *Config) { c.Region.Name = "" },
			wantErr: true,
		},
		{
			name:    "missing region code",
			mutate:  func(c *Config) { c.Region.Code = "" },
			wantErr: true,
		},
		{
			name:    "no departments",
			mutate:  func(c *Config) { c.Region.Departments = nil },
			wantErr: true,
		},
		{
			name:    "department without code",
			mutate:  func(c *Config) { c.Region.Departments[0].Code = "" },
			wantErr: true,
		},
		{
			name:    "zero records rate",
			mutate:  func(c *Config) { c.HTTP.RecordsPerSecond = 0 },
			wantErr: true,
		},
		{
			name:    "negative geo rate",
			mutate:  func(c *Config) { c.HTTP.GeoPerSecond = -1 },
			wantErr: true,
		},
		{
			name:    "missing cache dir",
			mutate:  func(c *Config) { c.Paths.CacheDir = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scolmap.yaml")

	content := `
region:
  name: Bretagne
  name_upper: BRETAGNE
  code: "53"
  departments:
    - name: FINISTERE
      code: "29"
      padded_code: "029"
paths:
  cache_dir: /tmp/cache
  out_dir: /tmp/out
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Bretagne", cfg.Region.Name)
	assert.Equal(t, []string{"29"}, cfg.Region.DepartmentCodes())
	// Unset fields keep defaults
	assert.Equal(t, "https://geo.api.gouv.fr", cfg.HTTP.GeoBaseURL)
	assert.Equal(t, "/tmp/cache", cfg.Paths.CacheDir)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/scolmap.yaml")
	assert.Error(t, err)
}
