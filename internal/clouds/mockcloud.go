// Package clouds holds the producer plugins: each one reads raw records
// from a cloud provider or a local source and streams them into the
// pipeline.
package clouds

import (
	"fmt"

	"github.com/jaibhageria/cloudmarker/internal/model"
)

// defaultMockVersions is the min_tls_version rotation used when none is
// configured; it mixes secure and insecure values so the TLS check has
// something to flag.
var defaultMockVersions = []string{"1.0", "1.1", "1.2", "1.3"}

// MockCloud synthesizes web app config records without talking to any
// cloud provider. Useful for local runs and tests.
type MockCloud struct {
	recordCount int
	versions    []string
}

// NewMockCloud returns a mock cloud producing recordCount records, cycling
// min_tls_version over versions (or a default mix if versions is empty).
func NewMockCloud(recordCount int, versions []string) *MockCloud {
	if recordCount < 0 {
		recordCount = 0
	}
	if len(versions) == 0 {
		versions = defaultMockVersions
	}
	return &MockCloud{recordCount: recordCount, versions: versions}
}

// Read streams the synthesized records and closes the channel when done.
func (c *MockCloud) Read() <-chan model.Record {
	ch := make(chan model.Record)
	go func() {
		defer close(ch)
		for i := 0; i < c.recordCount; i++ {
			ch <- c.record(i)
		}
	}()
	return ch
}

// Done performs cleanup work. The mock cloud holds no resources.
func (c *MockCloud) Done() error { return nil }

func (c *MockCloud) record(i int) model.Record {
	reference := fmt.Sprintf("web-app-%d", i)
	return model.Record{
		"raw": {
			"record_num": i,
		},
		"ext": {
			"record_type":     "web_app_config",
			"record_num":      i,
			"min_tls_version": c.versions[i%len(c.versions)],
			"https_only":      i%2 == 0,
		},
		"com": {
			"cloud_type":  "mock",
			"record_type": "web_app_config",
			"reference":   reference,
		},
	}
}
