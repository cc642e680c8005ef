// Package stores holds the consumer plugins: each one persists the
// records and event records a run produces.
package stores

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jaibhageria/cloudmarker/internal/model"
	"github.com/jaibhageria/cloudmarker/pkg/utils"
)

// csvColumns is the fixed header written by CSV output; the open-schema
// ext/raw buckets only fit the JSON format.
var csvColumns = []string{"cloud_type", "record_type", "reference", "description", "recommendation"}

// FileStore persists records to a per-run output file, JSON lines or CSV
// depending on the file extension.
type FileStore struct {
	path    string
	format  string
	file    *os.File
	buf     *bufio.Writer
	csvw    *csv.Writer
	written int
}

// NewFileStore creates the run's output directory under outputDir and
// opens fileName inside it for writing.
func NewFileStore(outputDir, runID, fileName string) (*FileStore, error) {
	if fileName == "" {
		fileName = "records.jsonl"
	}
	om := utils.NewOutputManager(outputDir)
	path, err := om.RunFilePath(runID, fileName)
	if err != nil {
		return nil, err
	}

	format := om.FileType(fileName)
	if format == "unknown" {
		return nil, fmt.Errorf("unsupported output file type: %s", fileName)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}

	fs := &FileStore{path: path, format: format, file: file, buf: bufio.NewWriter(file)}
	if format == "csv" {
		fs.csvw = csv.NewWriter(fs.buf)
		if err := fs.csvw.Write(csvColumns); err != nil {
			file.Close()
			return nil, fmt.Errorf("writing CSV header: %w", err)
		}
	}
	return fs, nil
}

// Path returns where the store writes.
func (s *FileStore) Path() string { return s.path }

// Write appends one record to the output file.
func (s *FileStore) Write(rec model.Record) error {
	switch s.format {
	case "csv":
		com := rec.Bucket("com")
		row := make([]string, len(csvColumns))
		for i, col := range csvColumns {
			row[i] = com.String(col)
		}
		if err := s.csvw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	default:
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		if _, err := s.buf.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	s.written++
	return nil
}

// Done flushes and closes the output file.
func (s *FileStore) Done() error {
	if s.csvw != nil {
		s.csvw.Flush()
		if err := s.csvw.Error(); err != nil {
			s.file.Close()
			return fmt.Errorf("flushing CSV output: %w", err)
		}
	}
	if err := s.buf.Flush(); err != nil {
		s.file.Close()
		return fmt.Errorf("flushing output: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}
