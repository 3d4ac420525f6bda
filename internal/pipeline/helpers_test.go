package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tethys-harvester/internal/model"
)

// paperTSV builds a tab-separated file body with the standard header.
func paperTSV(rows ...[]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(Columns, "\t"))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(strings.Join(r, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

// paperRow fills the full column set for one paper.
func paperRow(title, date, receptor string) []string {
	return []string{title, "Doe, J.", date, "Journal Article", "tidal", "noise", receptor, "https://example.org/" + strings.ReplaceAll(strings.ToLower(title), " ", "-")}
}

// writeDataFile drops a data file into dir and returns its DataFile entry
// with the given fetch timestamp.
func writeDataFile(t *testing.T, dir, sourceID, content string, fetchedAt time.Time) model.DataFile {
	t.Helper()
	path := filepath.Join(dir, sourceID+".csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, fetchedAt, fetchedAt))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return model.DataFile{SourceID: sourceID, Path: path, FetchedAt: fetchedAt, Size: info.Size()}
}

// outputRows reads a written output file back into one map per row, keyed
// by column name.
func outputRows(t *testing.T, path string) []map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.NotEmpty(t, lines)
	headers := strings.Split(lines[0], "\t")

	var rows []map[string]string
	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		row := make(map[string]string)
		for i, h := range headers {
			if i < len(fields) {
				row[h] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}
