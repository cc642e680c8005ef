package model

// PluginSpec names a plugin implementation and carries its free-form
// construction parameters, e.g. {type: webapptls, params: {min_tls_version: 1.2}}.
type PluginSpec struct {
	Type   string                 `json:"type" yaml:"type"`
	Params map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`
}

// AuditSpec defines one audit: which clouds to read records from, which
// checks to evaluate them with, and which stores to persist records and
// events to. This is the struct for POST /api/v1/audits and the per-audit
// section of the config file.
type AuditSpec struct {
	Name    string       `json:"name,omitempty" yaml:"name,omitempty"`
	Clouds  []PluginSpec `json:"clouds" yaml:"clouds"`
	Checks  []PluginSpec `json:"checks,omitempty" yaml:"checks,omitempty"`
	Stores  []PluginSpec `json:"stores" yaml:"stores"`
	Timeout string       `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "5m"
}
