package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// OutputManager answers questions about output files: type, MIME type and
// size. Run specs carry the paths, so it holds no state of its own.
type OutputManager struct{}

// NewOutputManager creates a new output manager
func NewOutputManager() *OutputManager {
	return &OutputManager{}
}

// GetFileType determines the file type based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".tsv":
		return "tsv"
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".txt":
		return "text"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type to serve a file under.
func (om *OutputManager) ContentType(fileName string) string {
	switch om.GetFileType(fileName) {
	case "tsv":
		return "text/tab-separated-values"
	case "csv":
		return "text/csv"
	case "json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// GetFileSize returns the size of a file in bytes
func (om *OutputManager) GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}
