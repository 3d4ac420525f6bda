package pipeline

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"tethys-harvester/internal/model"
)

// Columns is the Tethys paper schema, in output order. Files may omit
// trailing columns (older downloads have no paper_url).
var Columns = []string{
	"title", "authors", "date", "content_type",
	"technology_type", "stressor", "receptor", "paper_url",
}

// Delim separates fields in the data files and the consolidated output.
const Delim = '\t'

// ReadAll parses every DataFile into one ordered Record sequence: file
// order first, in-file order second. A file that fails to parse becomes a
// FileError and contributes no records; it never aborts the run.
func ReadAll(dataFiles []model.DataFile, log *zap.SugaredLogger) ([]model.Record, []model.FileError) {
	var records []model.Record
	var fileErrors []model.FileError

	for i := range dataFiles {
		df := &dataFiles[i]
		n := 0
		err := readFile(df, func(rec model.Record) {
			rec.Seq = len(records)
			records = append(records, rec)
			n++
		})
		if err != nil {
			log.Warnf("⚠️ Skipping %s: %v", df.SourceID, err)
			// Drop any rows already taken from the broken file.
			records = records[:len(records)-n]
			fileErrors = append(fileErrors, model.FileError{
				SourceID: df.SourceID,
				Stage:    "read",
				Reason:   err.Error(),
			})
			continue
		}
		log.Debugf("📄 Read %d records from %s", n, df.SourceID)
	}

	log.Infof("📄 Reading done: %d records from %d files (%d failed)",
		len(records), len(dataFiles)-len(fileErrors), len(fileErrors))
	return records, fileErrors
}

// readFile streams one DataFile's records through fn, single pass. Returns
// an ErrParse-classified error when the file is corrupt or truncated.
func readFile(df *model.DataFile, fn func(model.Record)) error {
	f, err := os.Open(df.Path)
	if err != nil {
		return errors.Wrapf(model.ErrParse, "open %s: %v", df.Path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = Delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return errors.Wrapf(model.ErrParse, "read header of %s: %v", df.SourceID, err)
	}
	for i, h := range headers {
		// Clean header names: trim whitespace and remove all quotes
		clean := strings.TrimSpace(h)
		clean = strings.ReplaceAll(clean, `"`, "")
		headers[i] = clean
	}
	if !containsHeader(headers, "title") {
		return errors.Wrapf(model.ErrParse, "%s: no title column, not a paper table", df.SourceID)
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(model.ErrParse, "read row of %s: %v", df.SourceID, err)
		}

		fields := make(map[string]string, len(headers))
		empty := true
		for i, h := range headers {
			if i >= len(row) {
				break
			}
			v := strings.TrimSpace(row[i])
			fields[h] = v
			if v != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		fn(model.Record{Fields: fields, File: df})
	}
}

func containsHeader(headers []string, name string) bool {
	for _, h := range headers {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}
