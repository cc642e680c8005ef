package stores

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jaibhageria/cloudmarker/internal/model"
)

// SQLiteStore persists records to a sqlite database, one row per record
// with the normalized com fields as columns and the full bucket map as
// JSON. Event rows (record_type ending in "_event") can then be queried
// by the audit API.
type SQLiteStore struct {
	db      *sql.DB
	runID   string
	written int
}

const recordsTable = `
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

// NewSQLiteStore opens (creating if needed) the records table in the
// database at dbPath and tags every row it writes with runID.
func NewSQLiteStore(dbPath, runID string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	if _, err := db.Exec(recordsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating records table: %w", err)
	}
	return &SQLiteStore{db: db, runID: runID}, nil
}

// Write inserts one record row.
func (s *SQLiteStore) Write(rec model.Record) error {
	buckets, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	com := rec.Bucket("com")
	recordType := com.String("record_type")
	if recordType == "" {
		recordType = rec.Bucket("ext").String("record_type")
	}

	_, err = s.db.Exec(
		`INSERT INTO records (run_id, record_type, cloud_type, reference, description, recommendation, buckets, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, recordType, com.String("cloud_type"), com.String("reference"),
		com.String("description"), com.String("recommendation"), string(buckets), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	s.written++
	return nil
}

// Done closes the database connection.
func (s *SQLiteStore) Done() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing sqlite store: %w", err)
	}
	return nil
}

// IsEventType reports whether a record_type discriminator names an event
// record rather than a raw one.
func IsEventType(recordType string) bool {
	return strings.HasSuffix(recordType, "_event")
}
