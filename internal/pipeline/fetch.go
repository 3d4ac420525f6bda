package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tethys-harvester/internal/model"
	"tethys-harvester/internal/tethys"
	"tethys-harvester/pkg/utils"
)

// dataFileExt is the extension downloaded data files are stored under.
// The consolidated output is a .tsv, so folder scans never pick it up.
const dataFileExt = ".csv"

// FetchResult is what the Fetching stage hands to the orchestrator.
type FetchResult struct {
	Files      []model.DataFile  // complete local set, sorted by source identifier
	Errors     []model.FileError // per-file download failures, skipped not fatal
	NewFetches int               // files actually downloaded this run
}

// EnsureLocalCopy makes sure the target folder holds a complete local copy
// of the remote dataset and returns it as DataFiles. With suppressDownload
// set it only scans the folder and never contacts the source. Existing
// files are never overwritten, so re-running with a stable remote listing
// leaves the folder unchanged.
func EnsureLocalCopy(ctx context.Context, src tethys.Source, job model.HarvestJobSpec, log *zap.SugaredLogger) (*FetchResult, error) {
	folder := job.FolderPath

	if job.SuppressDownload {
		files, err := scanFolder(folder)
		if err != nil {
			return nil, err
		}
		log.Infof("📂 Download suppressed: found %d local data files in %s", len(files), folder)
		return &FetchResult{Files: files}, nil
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, errors.Wrapf(err, "create data folder %s", folder)
	}

	listing, err := src.ListAvailable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list remote files")
	}
	log.Infof("🌐 Remote listing: %d files available", len(listing))

	fetchTimeout := utils.ParseDurationOr(job.Concurrency.FetchTimeout, 30*time.Second)

	type outcome struct {
		file    *model.DataFile
		fileErr *model.FileError
		fetched bool
	}
	outcomes := make([]outcome, len(listing))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(job.FetchWorkers())
	for i, rf := range listing {
		g.Go(func() error {
			path := filepath.Join(folder, rf.ID+dataFileExt)

			// Compare by source identifier, not wall-clock: a file that is
			// already present is trusted and never re-downloaded.
			if info, err := os.Stat(path); err == nil {
				outcomes[i].file = &model.DataFile{
					SourceID:  rf.ID,
					Path:      path,
					FetchedAt: info.ModTime(),
					Size:      info.Size(),
				}
				return nil
			}

			df, err := downloadFile(gctx, src, rf.ID, path, fetchTimeout)
			if err != nil {
				log.Warnf("⚠️ Skipping %s: %v", rf.ID, err)
				outcomes[i].fileErr = &model.FileError{SourceID: rf.ID, Stage: "fetch", Reason: err.Error()}
				return nil // one file's failure must not cancel the others
			}
			log.Infof("⬇️ Fetched %s (%d bytes)", rf.ID, df.Size)
			outcomes[i].file = df
			outcomes[i].fetched = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &FetchResult{}
	for _, o := range outcomes {
		if o.file != nil {
			res.Files = append(res.Files, *o.file)
			if o.fetched {
				res.NewFetches++
			}
		}
		if o.fileErr != nil {
			res.Errors = append(res.Errors, *o.fileErr)
		}
	}
	// Listing order is already deterministic, but normalize anyway so the
	// dedup tie-break never depends on download completion order.
	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].SourceID < res.Files[j].SourceID })

	if len(res.Files) == 0 {
		return nil, errors.Wrap(model.ErrMissingData, "no remote files could be fetched")
	}
	return res, nil
}

// downloadFile fetches one remote file into place via a temp file and
// rename, so a cancelled or failed download never leaves a partial
// DataFile behind.
func downloadFile(ctx context.Context, src tethys.Source, id, path string, timeout time.Duration) (*model.DataFile, error) {
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := src.Fetch(fctx, id)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, errors.Wrapf(err, "create temp file for %s", id)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, errors.Wrapf(model.ErrNetwork, "download %s: %v", id, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return nil, errors.Wrapf(err, "close temp file for %s", id)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, errors.Wrapf(err, "commit %s", id)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	// Fetch timestamp is the file mtime, so a later suppressed-download run
	// sees the same timestamps and breaks duplicate ties the same way.
	return &model.DataFile{
		SourceID:  id,
		Path:      path,
		FetchedAt: info.ModTime(),
		Size:      info.Size(),
	}, nil
}

// scanFolder discovers pre-existing data files for a suppressed-download
// run. Fails with ErrMissingData when the folder is absent or holds none.
func scanFolder(folder string) ([]model.DataFile, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, errors.Wrapf(model.ErrMissingData, "data folder %s: %v", folder, err)
	}

	var files []model.DataFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), dataFileExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, model.DataFile{
			SourceID:  strings.TrimSuffix(entry.Name(), dataFileExt),
			Path:      filepath.Join(folder, entry.Name()),
			FetchedAt: info.ModTime(),
			Size:      info.Size(),
		})
	}
	if len(files) == 0 {
		return nil, errors.Wrap(model.ErrMissingData, fmt.Sprintf("no data files in %s", folder))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].SourceID < files[j].SourceID })
	return files, nil
}
