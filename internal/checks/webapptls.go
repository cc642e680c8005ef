// Package checks holds the transform plugins: each one evaluates raw
// records into derived event records flagging an insecure configuration.
package checks

import (
	"fmt"
	"strconv"

	"github.com/jaibhageria/cloudmarker/internal/model"
	"github.com/jaibhageria/cloudmarker/pkg/utils"
)

// DefaultMinTLSVersion is the required minimum TLS version when the plugin
// is configured without one.
const DefaultMinTLSVersion = 1.2

// WebAppTLS flags web apps whose minimum TLS version is lower than the
// required one. It works on records whose ext bucket carries
// record_type "web_app_config". Stateless apart from the fixed threshold;
// Eval may be called repeatedly and in any sequence.
type WebAppTLS struct {
	minTLSVersion float64
}

// NewWebAppTLS returns a check requiring at least minTLSVersion; a zero or
// negative threshold selects the default (1.2).
func NewWebAppTLS(minTLSVersion float64) *WebAppTLS {
	if minTLSVersion <= 0 {
		minTLSVersion = DefaultMinTLSVersion
	}
	return &WebAppTLS{minTLSVersion: minTLSVersion}
}

// Eval yields one web_app_tls_event record if rec is a web app config with
// a minimum TLS version strictly below the required one. Records without
// an ext bucket, or of another record type, are not applicable and yield
// nothing. A min_tls_version that cannot be read as a number is an error.
func (c *WebAppTLS) Eval(rec model.Record) ([]model.Record, error) {
	ext := rec.Bucket("ext")
	if ext == nil {
		return nil, nil
	}
	if ext.String("record_type") != "web_app_config" {
		return nil, nil
	}

	version, err := toFloat(ext["min_tls_version"])
	if err != nil {
		return nil, fmt.Errorf("parsing min_tls_version: %w", err)
	}
	if version >= c.minTLSVersion {
		return nil, nil
	}
	return []model.Record{c.event(rec.Bucket("com"), ext)}, nil
}

// Done performs cleanup work. Currently nothing to release.
func (c *WebAppTLS) Done() error { return nil }

// event builds the web_app_tls_event record. The source ext bucket is
// preserved (merged, not mutated) because it locates the web app that led
// to the event.
func (c *WebAppTLS) event(com, ext model.Bucket) model.Record {
	cloudType := com.String("cloud_type")
	friendly := utils.FriendlyString(cloudType)
	reference := com.String("reference")
	required := strconv.FormatFloat(c.minTLSVersion, 'g', -1, 64)

	return model.Record{
		"ext": ext.Merge(model.Bucket{
			"record_type": "web_app_tls_event",
		}),
		"com": {
			"cloud_type":  cloudType,
			"record_type": "web_app_tls_event",
			"reference":   reference,
			"description": fmt.Sprintf("%s web app %s has insecure minimum TLS version.",
				friendly, reference),
			"recommendation": fmt.Sprintf("Check %s web app %s and ensure the minimum TLS version is set to %s.",
				friendly, reference, required),
		},
	}
}

// toFloat reads a bucket value as a float, accepting the numeric types
// JSON and YAML decoding produce as well as numeric strings.
func toFloat(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, err
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %v (%T)", v, v)
	}
}
