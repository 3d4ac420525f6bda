package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tethys-harvester/internal/model"
	"tethys-harvester/internal/pipeline"
	"tethys-harvester/internal/store"
	"tethys-harvester/internal/tethys"
	"tethys-harvester/pkg/router"
	"tethys-harvester/pkg/utils"
)

// Handler serves the harvest API. The logger and the source factory are
// injected so handlers stay testable without a network.
type Handler struct {
	Log       *zap.SugaredLogger
	NewSource func(job model.HarvestJobSpec) tethys.Source
	Output    *utils.OutputManager
}

func New(log *zap.SugaredLogger) *Handler {
	return &Handler{Log: log, Output: utils.NewOutputManager()}
}

func (h *Handler) source(job model.HarvestJobSpec) tethys.Source {
	if h.NewSource != nil {
		return h.NewSource(job)
	}
	fetchTimeout := utils.ParseDurationOr(job.Concurrency.FetchTimeout, 30*time.Second)
	return tethys.NewClient(job.BaseURL, fetchTimeout, h.Log)
}

// CreateHarvest starts a new harvest run
// @Summary Create a new harvest run
// @Description Create and start a harvest run with the provided configuration
// @Tags harvests
// @Accept json
// @Produce json
// @Param harvest body model.HarvestJobSpec true "Harvest configuration"
// @Success 200 {object} map[string]interface{} "Harvest run created"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /harvests [post]
func (h *Handler) CreateHarvest(w http.ResponseWriter, r *http.Request) {
	var job model.HarvestJobSpec
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if job.FolderPath == "" {
		http.Error(w, "folderPath is required", http.StatusBadRequest)
		return
	}

	runID := uuid.New().String()

	if err := store.SaveRun(runID, job); err != nil {
		http.Error(w, "Failed to save run", http.StatusInternalServerError)
		return
	}

	// Run asynchronously; progress and summary are queryable while it runs.
	ctx, cancel := context.WithTimeout(context.Background(),
		utils.ParseDurationOr(job.Concurrency.JobTimeout, 5*time.Minute))
	go func() {
		defer cancel()
		if _, err := pipeline.Run(ctx, runID, job, h.source(job), h.Log); err != nil {
			h.Log.Errorw("harvest run failed", "runID", runID, "error", err)
		}
	}()

	resp := map[string]interface{}{
		"message":   "Harvest run created",
		"runID":     runID,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	}
	writeJSON(w, resp)
}

// ListHarvests retrieves all harvest runs
// @Summary List all harvest runs
// @Description Get a list of all harvest runs with their current status
// @Tags harvests
// @Produce json
// @Success 200 {array} map[string]interface{} "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /harvests [get]
func (h *Handler) ListHarvests(w http.ResponseWriter, r *http.Request) {
	runs, err := store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []map[string]interface{}{}
	}
	writeJSON(w, runs)
}

// GetHarvest retrieves a specific harvest run
// @Summary Get harvest run
// @Description Retrieve details of a specific harvest run
// @Tags harvests
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run details"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /harvests/{id} [get]
func (h *Handler) GetHarvest(w http.ResponseWriter, r *http.Request) {
	runID := router.PathParam(r.URL.Path, "/api/v1/harvests/*")
	if runID == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	run, err := store.GetRun(runID)
	if err == sql.ErrNoRows {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

// GetHarvestSummary retrieves the summary of a finished run
// @Summary Get run summary
// @Description Retrieve the record counts of a finished harvest run
// @Tags harvests
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.RunSummary "Run summary"
// @Failure 404 {object} map[string]interface{} "Run not found or not finished"
// @Router /harvests/{id}/summary [get]
func (h *Handler) GetHarvestSummary(w http.ResponseWriter, r *http.Request) {
	runID := router.PathParam(r.URL.Path, "/api/v1/harvests/*/summary")

	summary, err := store.GetRunSummary(runID)
	if err == sql.ErrNoRows {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch summary", http.StatusInternalServerError)
		return
	}
	if summary == nil {
		http.Error(w, "Run has no summary yet", http.StatusNotFound)
		return
	}
	writeJSON(w, summary)
}

// GetHarvestErrors retrieves per-file failures of a run
// @Summary Get run file errors
// @Description Retrieve the files that failed to download or parse during a run
// @Tags harvests
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} model.FileError "File errors"
// @Router /harvests/{id}/errors [get]
func (h *Handler) GetHarvestErrors(w http.ResponseWriter, r *http.Request) {
	runID := router.PathParam(r.URL.Path, "/api/v1/harvests/*/errors")

	fileErrors, err := store.GetRunFileErrors(runID)
	if err != nil {
		http.Error(w, "Failed to fetch file errors", http.StatusInternalServerError)
		return
	}
	if fileErrors == nil {
		fileErrors = []model.FileError{}
	}
	writeJSON(w, fileErrors)
}

// GetHarvestProgress retrieves per-stage progress of a run
// @Summary Get run progress
// @Description Retrieve the stage transitions recorded for a run
// @Tags harvests
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{} "Stage progress"
// @Router /harvests/{id}/progress [get]
func (h *Handler) GetHarvestProgress(w http.ResponseWriter, r *http.Request) {
	runID := router.PathParam(r.URL.Path, "/api/v1/harvests/*/progress")

	stages, err := store.GetStageProgress(runID)
	if err != nil {
		http.Error(w, "Failed to fetch progress", http.StatusInternalServerError)
		return
	}
	if stages == nil {
		stages = []map[string]interface{}{}
	}
	writeJSON(w, stages)
}

// DownloadOutput serves the consolidated output file of a run
// @Summary Download run output
// @Description Download the consolidated deduplicated output file
// @Tags harvests
// @Produce text/tab-separated-values
// @Param id path string true "Run ID"
// @Success 200 {file} file "Consolidated output"
// @Failure 404 {object} map[string]interface{} "Run or output not found"
// @Router /harvests/{id}/download [get]
func (h *Handler) DownloadOutput(w http.ResponseWriter, r *http.Request) {
	runID := router.PathParam(r.URL.Path, "/api/v1/harvests/*/download")

	spec, err := store.GetRunSpec(runID)
	if err == sql.ErrNoRows {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return
	}

	outputPath := spec.ResolvedOutputPath()
	if _, err := h.Output.GetFileSize(outputPath); err != nil {
		http.Error(w, "Output file not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", h.Output.ContentType(outputPath))
	http.ServeFile(w, r, outputPath)
}

// GetCatalog lists the remote files the source can serve
// @Summary List the remote catalog
// @Description List the tag/subtag data files available from the remote source
// @Tags catalog
// @Produce json
// @Success 200 {array} tethys.RemoteFile "Remote files"
// @Router /catalog [get]
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, tethys.Catalog(r.URL.Query().Get("baseUrl")))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
