// Package store is the audit-run tracking database: which runs happened,
// how they ended, what they logged, and which events their sqlite store
// rows carry.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jaibhageria/cloudmarker/internal/model"
)

var db *sql.DB

// InitDB opens the tracking database and creates its tables.
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	runTable := `
	CREATE TABLE IF NOT EXISTS audit_runs (
		id TEXT PRIMARY KEY,
		audit_name TEXT,
		spec TEXT,
		status TEXT,
		metrics TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage TEXT,
		worker TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	logTable := `
	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage TEXT,
		level TEXT,
		message TEXT,
		details TEXT,
		created_at DATETIME
	);
	`

	// Shared with the sqlitestore plugin, which writes into the same
	// database when configured without its own db path.
	recordTable := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		record_type TEXT,
		cloud_type TEXT,
		reference TEXT,
		description TEXT,
		recommendation TEXT,
		buckets TEXT,
		created_at DATETIME
	);
	`

	for _, table := range []string{runTable, errorTable, logTable, recordTable} {
		if _, err := db.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores a new audit run in "pending" state.
func SaveRun(runID, auditName string, spec model.AuditSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(
		`INSERT INTO audit_runs (id, audit_name, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, auditName, specJSON, "pending", now, now)
	return err
}

// UpdateRunStatus moves a run through pending → running → completed/failed.
func UpdateRunStatus(runID, status string) error {
	_, err := db.Exec(`UPDATE audit_runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID)
	return err
}

// SaveRunMetrics attaches the final metrics to a run.
func SaveRunMetrics(runID string, metrics model.AuditMetrics) error {
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	_, err = db.Exec(`UPDATE audit_runs SET metrics = ?, updated_at = ? WHERE id = ?`,
		metricsJSON, time.Now().UTC(), runID)
	return err
}

// SaveRunError records one worker or setup failure for a run.
func SaveRunError(runID string, detail model.ErrorDetail) error {
	_, err := db.Exec(
		`INSERT INTO run_errors (run_id, stage, worker, error_message, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, detail.Stage, detail.Worker, detail.Message, time.Now().UTC())
	return err
}

// SaveRunLog records one structured progress entry for a run.
func SaveRunLog(runID, stage, level, message string, details map[string]interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO run_logs (run_id, stage, level, message, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, level, message, detailsJSON, time.Now().UTC())
	return err
}

// ListRuns returns all audit runs, newest first.
func ListRuns() ([]map[string]interface{}, error) {
	rows, err := db.Query(
		`SELECT id, audit_name, status, created_at, updated_at FROM audit_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, name, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &name, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":        id,
			"audit":     name,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return runs, rows.Err()
}

// GetRun fetches one run with its spec and metrics.
func GetRun(runID string) (map[string]interface{}, error) {
	var name, specJSON, status string
	var metricsJSON sql.NullString
	var createdAt, updatedAt time.Time

	err := db.QueryRow(
		`SELECT audit_name, spec, status, metrics, created_at, updated_at FROM audit_runs WHERE id = ?`, runID).
		Scan(&name, &specJSON, &status, &metricsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var spec model.AuditSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return nil, err
	}
	run := map[string]interface{}{
		"id":        runID,
		"audit":     name,
		"spec":      spec,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}
	if metricsJSON.Valid {
		var metrics model.AuditMetrics
		if err := json.Unmarshal([]byte(metricsJSON.String), &metrics); err == nil {
			run["metrics"] = metrics
		}
	}
	return run, nil
}

// GetRunErrors returns the recorded failures of a run.
func GetRunErrors(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(
		`SELECT stage, worker, error_message, created_at FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []map[string]interface{}
	for rows.Next() {
		var stage, worker, message string
		var createdAt time.Time
		if err := rows.Scan(&stage, &worker, &message, &createdAt); err != nil {
			return nil, err
		}
		errs = append(errs, map[string]interface{}{
			"stage":     stage,
			"worker":    worker,
			"message":   message,
			"createdAt": createdAt,
		})
	}
	return errs, rows.Err()
}

// GetRunLogs returns the structured progress entries of a run.
func GetRunLogs(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(
		`SELECT stage, level, message, details, created_at FROM run_logs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []map[string]interface{}
	for rows.Next() {
		var stage, level, message, detailsJSON string
		var createdAt time.Time
		if err := rows.Scan(&stage, &level, &message, &detailsJSON, &createdAt); err != nil {
			return nil, err
		}
		entry := map[string]interface{}{
			"stage":     stage,
			"level":     level,
			"message":   message,
			"createdAt": createdAt,
		}
		var details map[string]interface{}
		if json.Unmarshal([]byte(detailsJSON), &details) == nil && len(details) > 0 {
			entry["details"] = details
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// GetRunEvents returns the event records a run's sqlite store persisted.
func GetRunEvents(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(
		`SELECT record_type, cloud_type, reference, description, recommendation, buckets, created_at
		 FROM records WHERE run_id = ? AND record_type LIKE '%\_event' ESCAPE '\' ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []map[string]interface{}
	for rows.Next() {
		var recordType, cloudType, reference, description, recommendation, bucketsJSON string
		var createdAt time.Time
		if err := rows.Scan(&recordType, &cloudType, &reference, &description,
			&recommendation, &bucketsJSON, &createdAt); err != nil {
			return nil, err
		}
		event := map[string]interface{}{
			"recordType":     recordType,
			"cloudType":      cloudType,
			"reference":      reference,
			"description":    description,
			"recommendation": recommendation,
			"createdAt":      createdAt,
		}
		var buckets model.Record
		if json.Unmarshal([]byte(bucketsJSON), &buckets) == nil {
			event["record"] = buckets
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// GetRunSummary returns event counts grouped by cloud and record type.
func GetRunSummary(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(
		`SELECT cloud_type, record_type, COUNT(*)
		 FROM records WHERE run_id = ? AND record_type LIKE '%\_event' ESCAPE '\'
		 GROUP BY cloud_type, record_type ORDER BY cloud_type, record_type`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summary []map[string]interface{}
	for rows.Next() {
		var cloudType, recordType string
		var count int64
		if err := rows.Scan(&cloudType, &recordType, &count); err != nil {
			return nil, err
		}
		summary = append(summary, map[string]interface{}{
			"cloudType":  cloudType,
			"recordType": recordType,
			"count":      count,
		})
	}
	return summary, rows.Err()
}
