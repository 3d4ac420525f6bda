package model

import (
	"fmt"
	"time"
)

// FileError records a single file that failed during fetch or read. Per-file
// errors never abort the run; they are collected here and surfaced in the
// RunSummary.
type FileError struct {
	SourceID string `json:"source_id"`
	Stage    string `json:"stage"` // "fetch" or "read"
	Reason   string `json:"reason"`
}

// RunSummary holds the counts for one pipeline invocation. Created once by
// the orchestrator, read-only afterwards.
type RunSummary struct {
	RunID             string      `json:"run_id"`
	FilesDiscovered   int         `json:"files_discovered"`
	FilesFetched      int         `json:"files_fetched"` // newly downloaded this run
	RecordsRead       int         `json:"records_read"`
	DuplicatesRemoved int         `json:"duplicates_removed"`
	InvalidKeys       int         `json:"invalid_keys"`
	RecordsWritten    int         `json:"records_written"`
	FileErrors        []FileError `json:"file_errors,omitempty"`
	OutputPath        string      `json:"output_path"`
	StartedAt         time.Time   `json:"started_at"`
	FinishedAt        time.Time   `json:"finished_at"`
}

// FailedFileCount returns the number of per-file failures in the run.
func (s *RunSummary) FailedFileCount() int {
	return len(s.FileErrors)
}

func (s *RunSummary) String() string {
	return fmt.Sprintf(
		"run %s: %d files (%d fetched, %d failed), %d records read, %d duplicates removed, %d invalid keys, %d records written to %s in %v",
		s.RunID, s.FilesDiscovered, s.FilesFetched, len(s.FileErrors),
		s.RecordsRead, s.DuplicatesRemoved, s.InvalidKeys, s.RecordsWritten,
		s.OutputPath, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond),
	)
}
