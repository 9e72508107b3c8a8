package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

// ProjectConfigFile is the name of the project-level config file
const ProjectConfigFile = "scolmap.yaml"

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. Project config (scolmap.yaml in current or parent directories)
// 3. Explicit path, when given (overrides discovery)
func (l *Loader) Load(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return LoadFromFile(explicitPath)
	}

	config := DefaultConfig()

	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		projectConfig, err := LoadFromFile(projectConfigPath)
		if err != nil {
			l.logger.Warn("Failed to load project config",
				slog.String("path", projectConfigPath),
				slog.String("error", err.Error()))
			return config, nil
		}
		l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
		config = projectConfig
	}

	return config, nil
}

// findProjectConfig walks up from the working directory looking for
// scolmap.yaml. Returns "" when none is found.
func (l *Loader) findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
