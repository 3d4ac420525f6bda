package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"tethys-harvester/internal/model"
	"tethys-harvester/internal/store"
	"tethys-harvester/internal/tethys"
	"tethys-harvester/pkg/utils"
)

// Stages of one harvest run. Strictly sequential; Failed is reachable from
// any of them.
const (
	StageFetching      = "fetching"
	StageReading       = "reading"
	StageDeduplicating = "deduplicating"
	StageWriting       = "writing"
)

// Run drives one harvest: fetch (unless suppressed) → read → deduplicate →
// write. Per-file failures are collected into the RunSummary; a fatal error
// at any stage aborts without touching already-downloaded files or the
// previous output.
func Run(ctx context.Context, runID string, job model.HarvestJobSpec, src tethys.Source, log *zap.SugaredLogger) (summary *model.RunSummary, err error) {
	start := time.Now().UTC()
	log.Infof("🚀 Starting harvest run %s (suppressDownload=%v)", runID, job.SuppressDownload)

	store.UpdateRunStatus(runID, "running")
	defer func() {
		if err != nil {
			store.UpdateRunStatus(runID, "failed")
			store.SaveRunError(runID, err)
			log.Errorf("❌ Run %s failed: %v", runID, err)
		}
	}()

	timeout := utils.ParseDurationOr(job.Concurrency.JobTimeout, 5*time.Minute)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	summary = &model.RunSummary{
		RunID:      runID,
		OutputPath: job.ResolvedOutputPath(),
		StartedAt:  start,
	}

	// --- FETCHING STAGE ---
	// The suppressed branch is the same state machine with this stage
	// skipped, not a separate code path.
	fetchStart := time.Now().UTC()
	store.UpdateRunStatus(runID, StageFetching)
	fetchRes, err := EnsureLocalCopy(ctx, src, job, log)
	fetchEnd := time.Now().UTC()
	if err != nil {
		store.SaveStageProgress(runID, StageFetching, "failed", &fetchStart, &fetchEnd, 0, 1)
		return nil, err
	}
	fetchStatus := "completed"
	if job.SuppressDownload {
		fetchStatus = "skipped"
	}
	store.SaveStageProgress(runID, StageFetching, fetchStatus, &fetchStart, &fetchEnd, len(fetchRes.Files), len(fetchRes.Errors))
	store.SavePipelineLog(runID, StageFetching, "info", "Fetching stage done", map[string]interface{}{
		"files":       len(fetchRes.Files),
		"new_fetches": fetchRes.NewFetches,
		"failures":    len(fetchRes.Errors),
	})
	summary.FilesDiscovered = len(fetchRes.Files)
	summary.FilesFetched = fetchRes.NewFetches
	summary.FileErrors = append(summary.FileErrors, fetchRes.Errors...)

	// --- READING STAGE ---
	readStart := time.Now().UTC()
	store.UpdateRunStatus(runID, StageReading)
	records, readErrors := ReadAll(fetchRes.Files, log)
	readEnd := time.Now().UTC()
	store.SaveStageProgress(runID, StageReading, "completed", &readStart, &readEnd, len(records), len(readErrors))
	summary.RecordsRead = len(records)
	summary.FileErrors = append(summary.FileErrors, readErrors...)

	if len(records) == 0 && len(readErrors) == len(fetchRes.Files) {
		return nil, errors.Wrap(model.ErrMissingData, "every local data file failed to parse")
	}

	if cerr := ctx.Err(); cerr != nil {
		return nil, errors.Wrap(cerr, "run cancelled before deduplication")
	}

	// --- DEDUPLICATION STAGE ---
	dedupStart := time.Now().UTC()
	store.UpdateRunStatus(runID, StageDeduplicating)
	set := Deduplicate(records, job.ResolvedKeyFields(), log)
	dedupEnd := time.Now().UTC()
	store.SaveStageProgress(runID, StageDeduplicating, "completed", &dedupStart, &dedupEnd, len(set.Records), set.InvalidKeyCount)
	summary.DuplicatesRemoved = set.DuplicateCount
	summary.InvalidKeys = set.InvalidKeyCount

	// --- WRITING STAGE ---
	writeStart := time.Now().UTC()
	store.UpdateRunStatus(runID, StageWriting)
	writeRes, err := Write(set, job.ResolvedOutputPath(), log)
	writeEnd := time.Now().UTC()
	if err != nil {
		store.SaveStageProgress(runID, StageWriting, "failed", &writeStart, &writeEnd, 0, 1)
		return nil, err
	}
	store.SaveStageProgress(runID, StageWriting, "completed", &writeStart, &writeEnd, writeRes.RecordsWritten, 0)
	summary.RecordsWritten = writeRes.RecordsWritten
	summary.FinishedAt = time.Now().UTC()

	store.SaveFileErrors(runID, summary.FileErrors)
	store.SaveRunSummary(runID, summary)
	store.UpdateRunStatus(runID, "completed")

	log.Infof("🏁 %s", summary)
	log.Infof("Full time elapsed: %v", summary.FinishedAt.Sub(start))
	return summary, nil
}
