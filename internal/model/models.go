package model

import (
	"path/filepath"
	"strings"
)

// DefaultKeyFields identify a publication across tag/subtag files. The same
// paper shows up in several files with different stressor/receptor columns,
// so the key deliberately excludes the payload columns.
var DefaultKeyFields = []string{"title", "date"}

// Workers defines number of workers per stage
type Workers struct {
	Fetch int `json:"fetch"`
}

// ConcurrencyConfig defines worker counts and timeout options
type ConcurrencyConfig struct {
	Workers      Workers `json:"workers"`
	JobTimeout   string  `json:"jobTimeout"`   // e.g., "5m", whole run
	FetchTimeout string  `json:"fetchTimeout"` // e.g., "30s", per remote file
}

// HarvestJobSpec defines one harvest run: where the local dataset lives,
// whether to contact the remote source, and how records are keyed.
type HarvestJobSpec struct {
	FolderPath       string            `json:"folderPath"`                 // local directory for downloaded data
	OutputPath       string            `json:"outputPath,omitempty"`       // defaults under FolderPath
	SuppressDownload bool              `json:"suppressDownload,omitempty"` // reuse already-downloaded files only
	BaseURL          string            `json:"baseUrl,omitempty"`          // remote source root
	KeyFields        []string          `json:"keyFields,omitempty"`        // identifying-key columns
	Concurrency      ConcurrencyConfig `json:"concurrency"`
}

// ResolvedOutputPath returns the consolidated output file location.
func (j HarvestJobSpec) ResolvedOutputPath() string {
	if strings.TrimSpace(j.OutputPath) != "" {
		return j.OutputPath
	}
	return filepath.Join(j.FolderPath, "tethys-merged.tsv")
}

// ResolvedKeyFields returns the configured key columns or the default.
func (j HarvestJobSpec) ResolvedKeyFields() []string {
	if len(j.KeyFields) > 0 {
		return j.KeyFields
	}
	return DefaultKeyFields
}

// FetchWorkers returns the download pool size.
func (j HarvestJobSpec) FetchWorkers() int {
	if j.Concurrency.Workers.Fetch > 0 {
		return j.Concurrency.Workers.Fetch
	}
	return 4 // default
}
