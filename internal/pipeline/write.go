package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"tethys-harvester/internal/model"
)

// Write serializes the deduplicated set to outputPath as a tab-separated
// file, rows sorted by identifying key so identical input always yields
// byte-identical output. The data goes to a temp file in the same directory
// and is renamed into place, so a reader of outputPath only ever sees a
// complete file.
func Write(set *model.DeduplicatedSet, outputPath string, log *zap.SugaredLogger) (model.WriteResult, error) {
	var res model.WriteResult

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return res, errors.Wrapf(model.ErrWrite, "create output directory: %v", err)
	}

	tmp := outputPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return res, errors.Wrapf(model.ErrWrite, "create temp file: %v", err)
	}
	defer os.Remove(tmp) // no-op after a successful rename

	w := csv.NewWriter(f)
	w.Comma = Delim

	if err := w.Write(Columns); err != nil {
		f.Close()
		return res, errors.Wrapf(model.ErrWrite, "write header: %v", err)
	}

	count := 0
	for _, key := range set.Keys() {
		rec := set.Records[key]
		row := make([]string, len(Columns))
		for i, col := range Columns {
			row[i] = rec.Fields[col]
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return res, errors.Wrapf(model.ErrWrite, "write record %s: %v", key, err)
		}
		count++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return res, errors.Wrapf(model.ErrWrite, "flush output: %v", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return res, errors.Wrapf(model.ErrWrite, "sync output: %v", err)
	}
	if err := f.Close(); err != nil {
		return res, errors.Wrapf(model.ErrWrite, "close output: %v", err)
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		return res, errors.Wrapf(model.ErrWrite, "commit output: %v", err)
	}

	log.Infof("💾 Wrote %d records to %s", count, outputPath)
	return model.WriteResult{
		Path:           outputPath,
		RecordsWritten: count,
		WrittenAt:      time.Now().UTC(),
	}, nil
}
