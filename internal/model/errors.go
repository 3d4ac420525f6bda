package model

import "errors"

// Error taxonomy for the pipeline. Per-file failures travel as FileError
// values; these sentinels mark the fatal cases and the per-file categories,
// classified with errors.Is.
var (
	// ErrMissingData means no usable input exists at all.
	ErrMissingData = errors.New("no usable input data")

	// ErrNetwork marks a remote listing or fetch failure.
	ErrNetwork = errors.New("network error")

	// ErrParse marks a local file that could not be parsed.
	ErrParse = errors.New("parse error")

	// ErrWrite means the consolidated output could not be committed.
	ErrWrite = errors.New("write error")
)
