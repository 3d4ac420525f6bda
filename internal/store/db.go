package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tethys-harvester/internal/model"
)

// Run tracking for the harvester. The store is optional: when InitDB was
// never called (library use, unit tests) every call is a no-op, so the
// pipeline works without a database on disk.
var db *sql.DB

// InitDB opens the sqlite database and creates the schema.
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			spec TEXT,
			status TEXT,
			summary TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			error_message TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS file_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			source_id TEXT,
			stage TEXT,
			reason TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS stage_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			stage TEXT,
			status TEXT,
			started_at DATETIME,
			ended_at DATETIME,
			records INTEGER,
			errors INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS pipeline_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			stage TEXT,
			level TEXT,
			message TEXT,
			details TEXT,
			created_at DATETIME
		);`,
	}
	for _, stmt := range tables {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CloseDB closes the database if one was opened.
func CloseDB() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// SaveRun stores a new harvest run
func SaveRun(runID string, spec model.HarvestJobSpec) error {
	if db == nil {
		return nil
	}
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO runs (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, specJSON, "pending", now, now)
	return err
}

// UpdateRunStatus updates run status
func UpdateRunStatus(runID string, status string) error {
	if db == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// SaveRunError records a fatal error for a run
func SaveRunError(runID string, err error) error {
	if db == nil || err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, err.Error(), now)
	return e
}

// SaveRunSummary stores the finished run's summary alongside the run row.
func SaveRunSummary(runID string, summary *model.RunSummary) error {
	if db == nil || summary == nil {
		return nil
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(`UPDATE runs SET summary = ?, updated_at = ? WHERE id = ?`, summaryJSON, now, runID)
	return err
}

// SaveFileErrors records per-file failures for a run
func SaveFileErrors(runID string, fileErrors []model.FileError) error {
	if db == nil {
		return nil
	}
	now := time.Now().UTC()
	for _, fe := range fileErrors {
		if _, err := db.Exec(`INSERT INTO file_errors (run_id, source_id, stage, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
			runID, fe.SourceID, fe.Stage, fe.Reason, now); err != nil {
			return err
		}
	}
	return nil
}

// SaveStageProgress records a stage transition for a run
func SaveStageProgress(runID, stage, status string, startedAt, endedAt *time.Time, records, errCount int) error {
	if db == nil {
		return nil
	}
	_, err := db.Exec(`INSERT INTO stage_progress (run_id, stage, status, started_at, ended_at, records, errors) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, stage, status, startedAt, endedAt, records, errCount)
	return err
}

// SavePipelineLog records a structured log line for a run stage
func SavePipelineLog(runID, stage, level, message string, details map[string]interface{}) error {
	if db == nil {
		return nil
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO pipeline_logs (run_id, stage, level, message, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, level, message, detailsJSON, now)
	return err
}

// ListRuns returns all runs with basic info
func ListRuns() ([]map[string]interface{}, error) {
	if db == nil {
		return nil, nil
	}
	rows, err := db.Query(`SELECT id, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":        id,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return runs, rows.Err()
}

// GetRun fetches full run spec and status
func GetRun(runID string) (map[string]interface{}, error) {
	if db == nil {
		return nil, sql.ErrNoRows
	}
	var specJSON string
	var summaryJSON sql.NullString
	var status string
	var createdAt, updatedAt time.Time

	err := db.QueryRow(`SELECT spec, status, summary, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&specJSON, &status, &summaryJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var spec model.HarvestJobSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return nil, err
	}

	run := map[string]interface{}{
		"id":        runID,
		"spec":      spec,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		var summary model.RunSummary
		if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err == nil {
			run["summary"] = summary
		}
	}
	return run, nil
}

// GetRunSpec returns just the stored job spec for a run.
func GetRunSpec(runID string) (model.HarvestJobSpec, error) {
	var spec model.HarvestJobSpec
	if db == nil {
		return spec, sql.ErrNoRows
	}
	var specJSON string
	if err := db.QueryRow(`SELECT spec FROM runs WHERE id = ?`, runID).Scan(&specJSON); err != nil {
		return spec, err
	}
	err := json.Unmarshal([]byte(specJSON), &spec)
	return spec, err
}

// GetRunSummary returns the stored summary, or nil when the run has none yet.
func GetRunSummary(runID string) (*model.RunSummary, error) {
	if db == nil {
		return nil, sql.ErrNoRows
	}
	var summaryJSON sql.NullString
	if err := db.QueryRow(`SELECT summary FROM runs WHERE id = ?`, runID).Scan(&summaryJSON); err != nil {
		return nil, err
	}
	if !summaryJSON.Valid || summaryJSON.String == "" {
		return nil, nil
	}
	var summary model.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetRunFileErrors returns per-file failures recorded for a run
func GetRunFileErrors(runID string) ([]model.FileError, error) {
	if db == nil {
		return nil, nil
	}
	rows, err := db.Query(`SELECT source_id, stage, reason FROM file_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fileErrors []model.FileError
	for rows.Next() {
		var fe model.FileError
		if err := rows.Scan(&fe.SourceID, &fe.Stage, &fe.Reason); err != nil {
			return nil, err
		}
		fileErrors = append(fileErrors, fe)
	}
	return fileErrors, rows.Err()
}

// GetStageProgress returns the stage transitions recorded for a run
func GetStageProgress(runID string) ([]map[string]interface{}, error) {
	if db == nil {
		return nil, nil
	}
	rows, err := db.Query(`SELECT stage, status, started_at, ended_at, records, errors FROM stage_progress WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []map[string]interface{}
	for rows.Next() {
		var stage, status string
		var startedAt, endedAt sql.NullTime
		var records, errCount int
		if err := rows.Scan(&stage, &status, &startedAt, &endedAt, &records, &errCount); err != nil {
			return nil, err
		}
		entry := map[string]interface{}{
			"stage":   stage,
			"status":  status,
			"records": records,
			"errors":  errCount,
		}
		if startedAt.Valid {
			entry["startedAt"] = startedAt.Time
		}
		if endedAt.Valid {
			entry["endedAt"] = endedAt.Time
		}
		stages = append(stages, entry)
	}
	return stages, rows.Err()
}
