package stores

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_WriteAndQuery(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	store, err := NewSQLiteStore(dbPath, "run-1")
	require.NoError(t, err)

	require.NoError(t, store.Write(eventRecord("app1")))
	require.NoError(t, store.Write(eventRecord("app2")))
	require.NoError(t, store.Done())

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM records WHERE run_id = ? AND record_type = ?`,
		"run-1", "web_app_tls_event").Scan(&count))
	assert.Equal(t, 2, count)

	var reference, buckets string
	require.NoError(t, db.QueryRow(
		`SELECT reference, buckets FROM records WHERE run_id = ? ORDER BY id LIMIT 1`,
		"run-1").Scan(&reference, &buckets))
	assert.Equal(t, "app1", reference)
	assert.Contains(t, buckets, `"web_app_tls_event"`)
}

func TestSQLiteStore_EmptyRunStillCleansUp(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "audit.db"), "run-2")
	require.NoError(t, err)
	require.NoError(t, store.Done())
}

func TestIsEventType(t *testing.T) {
	assert.True(t, IsEventType("web_app_tls_event"))
	assert.False(t, IsEventType("web_app_config"))
	assert.False(t, IsEventType(""))
}
