package clouds

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jaibhageria/cloudmarker/internal/model"
	"github.com/jaibhageria/cloudmarker/pkg/utils"
)

// FileCloud reads records from a CSV or JSON source, either a local file
// or an HTTP endpoint. It exists so audits can run against exported
// inventory dumps instead of live provider APIs.
//
// JSON sources are arrays of objects. An object whose keys are all bucket
// maps (com/ext/raw) is taken as an already-bucketed record; any other
// object becomes the ext bucket of a new record. CSV rows always become
// ext buckets, with cell values parsed into int/float/string.
type FileCloud struct {
	source    string // path or http(s) URL
	format    string // "csv" or "json"
	cloudType string
	retry     RetryConfig

	readErr error
}

// NewFileCloud returns a file cloud for the given source. Format is
// inferred from the source extension when empty.
func NewFileCloud(source, format, cloudType string, retry RetryConfig) (*FileCloud, error) {
	if source == "" {
		return nil, fmt.Errorf("file cloud requires a source path or URL")
	}
	if format == "" {
		switch {
		case strings.HasSuffix(source, ".csv"):
			format = "csv"
		case strings.HasSuffix(source, ".json"):
			format = "json"
		default:
			return nil, fmt.Errorf("cannot infer format of source %s", source)
		}
	}
	if format != "csv" && format != "json" {
		return nil, fmt.Errorf("unknown source format: %s", format)
	}
	if cloudType == "" {
		cloudType = "file"
	}
	return &FileCloud{source: source, format: format, cloudType: cloudType, retry: retry}, nil
}

// Read streams the source's records and closes the channel at EOF or on
// the first read error. The stream itself carries no errors; a failure is
// remembered and surfaced by Done.
func (c *FileCloud) Read() <-chan model.Record {
	ch := make(chan model.Record)
	go func() {
		defer close(ch)

		reader, err := c.open()
		if err != nil {
			c.readErr = err
			return
		}
		defer reader.Close()

		switch c.format {
		case "csv":
			c.readErr = c.readCSV(reader, ch)
		case "json":
			c.readErr = c.readJSON(reader, ch)
		}
	}()
	return ch
}

// Done reports any failure the record stream could not carry.
func (c *FileCloud) Done() error {
	if c.readErr != nil {
		return fmt.Errorf("reading %s: %w", c.source, c.readErr)
	}
	return nil
}

func (c *FileCloud) open() (io.ReadCloser, error) {
	if strings.HasPrefix(c.source, "http://") || strings.HasPrefix(c.source, "https://") {
		return fetchWithRetry(c.source, c.retry)
	}
	return os.Open(c.source)
}

func (c *FileCloud) readCSV(r io.Reader, out chan<- model.Record) error {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true

	headers, err := csvReader.Read()
	if err != nil {
		return fmt.Errorf("reading CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}

	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading CSV row: %w", err)
		}
		ext := make(model.Bucket, len(headers))
		for i, h := range headers {
			if i < len(row) {
				ext[h] = utils.ParseValue(row[i])
			}
		}
		out <- c.wrap(ext)
	}
}

func (c *FileCloud) readJSON(r io.Reader, out chan<- model.Record) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading JSON body: %w", err)
	}
	var raw []map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}

	for _, obj := range raw {
		if rec, ok := bucketed(obj); ok {
			out <- rec
			continue
		}
		out <- c.wrap(model.Bucket(obj))
	}
	return nil
}

// wrap turns a flat field map into a record, promoting conventional
// identity fields into the com bucket.
func (c *FileCloud) wrap(ext model.Bucket) model.Record {
	reference := ext.String("reference")
	if reference == "" {
		reference = ext.String("id")
	}
	if reference == "" {
		reference = ext.String("name")
	}
	return model.Record{
		"ext": ext,
		"com": {
			"cloud_type":  c.cloudType,
			"record_type": ext.String("record_type"),
			"reference":   reference,
		},
	}
}

// bucketed reports whether obj is already a bucketed record, i.e. every
// value is itself a map keyed by a conventional bucket name.
func bucketed(obj map[string]interface{}) (model.Record, bool) {
	if len(obj) == 0 {
		return nil, false
	}
	rec := make(model.Record, len(obj))
	for name, v := range obj {
		if name != "com" && name != "ext" && name != "raw" {
			return nil, false
		}
		sub, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		rec[name] = model.Bucket(sub)
	}
	return rec, true
}
