package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaibhageria/cloudmarker/internal/config"
	"github.com/jaibhageria/cloudmarker/internal/manager"
	"github.com/jaibhageria/cloudmarker/internal/store"
)

func setupAPI(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DB = filepath.Join(dir, "tracking.db")
	cfg.OutputDir = filepath.Join(dir, "output")
	require.NoError(t, store.InitDB(cfg.DB))
	Setup(manager.New(cfg, zap.NewNop()))
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func getPath(t *testing.T, h http.HandlerFunc, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestTriggerAuditRejectsBadPayloads(t *testing.T) {
	setupAPI(t)

	rec := postJSON(t, TriggerAudit, "/api/v1/audits", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, TriggerAudit, "/api/v1/audits",
		`{"stores": [{"type": "sqlitestore"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cloud")

	rec = postJSON(t, TriggerAudit, "/api/v1/audits",
		`{"clouds": [{"type": "mockcloud"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "store")
}

func TestTriggerAuditRunsToCompletion(t *testing.T) {
	setupAPI(t)

	rec := postJSON(t, TriggerAudit, "/api/v1/audits", `{
		"name": "tls-audit",
		"clouds": [{"type": "mockcloud", "params": {"record_count": 4}}],
		"checks": [{"type": "webapptls"}],
		"stores": [{"type": "sqlitestore"}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	id, _ := resp["runID"].(string)
	require.NotEmpty(t, id)

	deadline := time.Now().Add(5 * time.Second)
	var status interface{}
	for {
		run, err := store.GetRun(id)
		require.NoError(t, err)
		status = run["status"]
		if status == "completed" || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.Equal(t, "completed", status)

	rec = getPath(t, GetRun, "/api/v1/audits/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	var run map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "tls-audit", run["audit"])
	assert.Equal(t, "completed", run["status"])

	rec = getPath(t, GetRunEvents, "/api/v1/audits/"+id+"/events")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.NotEmpty(t, events)

	rec = getPath(t, GetRunSummary, "/api/v1/audits/"+id+"/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.NotEmpty(t, summary)
	assert.Equal(t, "mock", summary[0]["cloudType"])
}

func TestListRunsEmptyIsArray(t *testing.T) {
	setupAPI(t)

	rec := getPath(t, ListRuns, "/api/v1/audits")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetRunUnknownID(t *testing.T) {
	setupAPI(t)

	rec := getPath(t, GetRun, "/api/v1/audits/no-such-run")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
