package model

import (
	"sort"
	"time"
)

// DataFile is one locally stored artifact fetched from the remote source.
// Never mutated after creation.
type DataFile struct {
	SourceID  string    `json:"source_id"` // remote identifier, e.g. "stressor-chemicals"
	Path      string    `json:"path"`      // local file path
	FetchedAt time.Time `json:"fetched_at"`
	Size      int64     `json:"size"`
}

// Record is one logical entry extracted from a DataFile.
type Record struct {
	Fields map[string]string `json:"fields"`
	File   *DataFile         `json:"-"` // provenance
	Seq    int               `json:"-"` // position in the global read sequence
}

// DeduplicatedSet maps identifying key to the single surviving Record.
type DeduplicatedSet struct {
	Records         map[string]Record `json:"records"`
	DuplicateCount  int               `json:"duplicate_count"`
	InvalidKeyCount int               `json:"invalid_key_count"`
}

// Keys returns the surviving keys in sorted order, so serialization is
// byte-reproducible across runs with identical input.
func (s *DeduplicatedSet) Keys() []string {
	keys := make([]string, 0, len(s.Records))
	for k := range s.Records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteResult represents the result of committing the consolidated output
type WriteResult struct {
	Path           string    `json:"path"`
	RecordsWritten int       `json:"records_written"`
	WrittenAt      time.Time `json:"written_at"`
}
