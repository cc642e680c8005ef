package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jaibhageria/cloudmarker/internal/manager"
	"github.com/jaibhageria/cloudmarker/internal/model"
	"github.com/jaibhageria/cloudmarker/internal/store"
)

var mgr *manager.Manager

// Setup wires the manager the handlers trigger audit runs through.
func Setup(m *manager.Manager) { mgr = m }

// TriggerAudit starts a new audit run
// @Summary Trigger an audit run
// @Description Start an asynchronous audit run from the posted audit spec
// @Tags audits
// @Accept json
// @Produce json
// @Param audit body model.AuditSpec true "Audit specification"
// @Success 200 {object} map[string]interface{} "Run accepted"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Router /audits [post]
func TriggerAudit(w http.ResponseWriter, r *http.Request) {
	var spec model.AuditSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if len(spec.Clouds) == 0 {
		http.Error(w, "At least one cloud is required", http.StatusBadRequest)
		return
	}
	if len(spec.Stores) == 0 {
		http.Error(w, "At least one store is required", http.StatusBadRequest)
		return
	}
	if spec.Name == "" {
		spec.Name = "adhoc"
	}

	// The run itself is asynchronous; its ID is handed back right away
	// and progress is visible through the run endpoints.
	runID, err := mgr.StartAudit(spec)
	if err != nil {
		writeJSON(w, map[string]interface{}{
			"message": "Audit run could not be started",
			"runID":   runID,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, map[string]interface{}{
		"message":   "Audit run started",
		"runID":     runID,
		"createdAt": time.Now().UTC(),
	})
}

// ListRuns retrieves all audit runs
// @Summary List audit runs
// @Description Get all audit runs with their current status
// @Tags audits
// @Produce json
// @Success 200 {array} map[string]interface{}
// @Router /audits [get]
func ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, orEmpty(runs))
}

// GetRun retrieves one audit run
// @Summary Get an audit run
// @Description Get a run's spec, status and metrics
// @Tags audits
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /audits/{id} [get]
func GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := store.GetRun(runID(r))
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, run)
}

// GetRunErrors retrieves the failures of a run
// @Summary Get run errors
// @Tags audits
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{}
// @Router /audits/{id}/errors [get]
func GetRunErrors(w http.ResponseWriter, r *http.Request) {
	errs, err := store.GetRunErrors(runID(r))
	if err != nil {
		http.Error(w, "Failed to fetch errors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, orEmpty(errs))
}

// GetRunLogs retrieves the progress log of a run
// @Summary Get run logs
// @Tags audits
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{}
// @Router /audits/{id}/logs [get]
func GetRunLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := store.GetRunLogs(runID(r))
	if err != nil {
		http.Error(w, "Failed to fetch logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, orEmpty(logs))
}

// GetRunEvents retrieves the event records of a run
// @Summary Get run events
// @Description Event records persisted by the run's sqlite store
// @Tags audits
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{}
// @Router /audits/{id}/events [get]
func GetRunEvents(w http.ResponseWriter, r *http.Request) {
	events, err := store.GetRunEvents(runID(r))
	if err != nil {
		http.Error(w, "Failed to fetch events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, orEmpty(events))
}

// GetRunSummary retrieves event counts for a run
// @Summary Get run event summary
// @Description Event counts grouped by cloud type and record type
// @Tags audits
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{}
// @Router /audits/{id}/summary [get]
func GetRunSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := store.GetRunSummary(runID(r))
	if err != nil {
		http.Error(w, "Failed to fetch summary", http.StatusInternalServerError)
		return
	}
	writeJSON(w, orEmpty(summary))
}

// runID extracts the run ID segment from /api/v1/audits/<id>[/...].
func runID(r *http.Request) string {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) >= 4 {
		return segments[3]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// orEmpty keeps empty result sets as [] instead of null in responses.
func orEmpty(items []map[string]interface{}) []map[string]interface{} {
	if items == nil {
		return []map[string]interface{}{}
	}
	return items
}
