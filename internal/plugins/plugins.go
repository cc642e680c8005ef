// Package plugins builds plugin instances from their config specs. Each
// spec names a plugin type and carries free-form params; unknown types and
// malformed params fail the build, not the run.
package plugins

import (
	"fmt"

	"github.com/jaibhageria/cloudmarker/internal/checks"
	"github.com/jaibhageria/cloudmarker/internal/clouds"
	"github.com/jaibhageria/cloudmarker/internal/model"
	"github.com/jaibhageria/cloudmarker/internal/pipeline"
	"github.com/jaibhageria/cloudmarker/internal/stores"
	"github.com/jaibhageria/cloudmarker/pkg/utils"
)

// Options carries the run context plugin construction may need: where
// file stores write and which database sqlite stores default to.
type Options struct {
	RunID     string
	OutputDir string
	DBPath    string
}

// BuildCloud constructs a producer plugin from its spec.
func BuildCloud(spec model.PluginSpec, opts Options) (pipeline.Cloud, error) {
	switch spec.Type {
	case "mockcloud":
		count := intParam(spec.Params, "record_count", 10)
		return clouds.NewMockCloud(count, stringListParam(spec.Params, "min_tls_versions")), nil
	case "filecloud":
		retry := clouds.DefaultRetryConfig()
		if n, ok := spec.Params["max_retries"]; ok {
			retry.MaxRetries = int(utils.Numeric(n))
		}
		return clouds.NewFileCloud(
			stringParam(spec.Params, "source", ""),
			stringParam(spec.Params, "format", ""),
			stringParam(spec.Params, "cloud_type", ""),
			retry,
		)
	default:
		return nil, fmt.Errorf("unknown cloud plugin: %q", spec.Type)
	}
}

// BuildCheck constructs a transform plugin from its spec.
func BuildCheck(spec model.PluginSpec, opts Options) (pipeline.Check, error) {
	switch spec.Type {
	case "webapptls":
		return checks.NewWebAppTLS(floatParam(spec.Params, "min_tls_version", 0)), nil
	case "webapphttps":
		return checks.NewWebAppHTTPS(), nil
	default:
		return nil, fmt.Errorf("unknown check plugin: %q", spec.Type)
	}
}

// BuildStore constructs a consumer plugin from its spec.
func BuildStore(spec model.PluginSpec, opts Options) (pipeline.Store, error) {
	switch spec.Type {
	case "filestore":
		dir := stringParam(spec.Params, "dir", opts.OutputDir)
		return stores.NewFileStore(dir, opts.RunID, stringParam(spec.Params, "file", ""))
	case "sqlitestore":
		dbPath := stringParam(spec.Params, "db", opts.DBPath)
		if dbPath == "" {
			return nil, fmt.Errorf("sqlitestore requires a db path")
		}
		return stores.NewSQLiteStore(dbPath, opts.RunID)
	default:
		return nil, fmt.Errorf("unknown store plugin: %q", spec.Type)
	}
}

// BuildAudit assembles a runnable audit from its spec: one worker-named
// plugin instance per spec entry. Worker names follow
// "<audit>-<stage>-<type>-<n>".
func BuildAudit(spec model.AuditSpec, opts Options) (*pipeline.Audit, error) {
	name := spec.Name
	if name == "" {
		name = "audit"
	}
	audit := &pipeline.Audit{Name: name}

	for i, ps := range spec.Clouds {
		cloud, err := BuildCloud(ps, opts)
		if err != nil {
			return nil, fmt.Errorf("building cloud %d: %w", i, err)
		}
		audit.Clouds = append(audit.Clouds, pipeline.NamedCloud{
			Name:  workerName(name, "cloud", ps.Type, i),
			Cloud: cloud,
		})
	}
	for i, ps := range spec.Checks {
		check, err := BuildCheck(ps, opts)
		if err != nil {
			return nil, fmt.Errorf("building check %d: %w", i, err)
		}
		audit.Checks = append(audit.Checks, pipeline.NamedCheck{
			Name:  workerName(name, "check", ps.Type, i),
			Check: check,
		})
	}
	for i, ps := range spec.Stores {
		store, err := BuildStore(ps, opts)
		if err != nil {
			return nil, fmt.Errorf("building store %d: %w", i, err)
		}
		audit.Stores = append(audit.Stores, pipeline.NamedStore{
			Name:  workerName(name, "store", ps.Type, i),
			Store: store,
		})
	}

	if len(audit.Clouds) == 0 {
		return nil, fmt.Errorf("audit %s has no clouds", name)
	}
	return audit, nil
}

func workerName(audit, stage, pluginType string, i int) string {
	return fmt.Sprintf("%s-%s-%s-%d", audit, stage, pluginType, i)
}

func stringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	return int(utils.Numeric(v))
}

func floatParam(params map[string]interface{}, key string, fallback float64) float64 {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	if s, isStr := v.(string); isStr {
		if f, isNum := utils.ParseValue(s).(float64); isNum {
			return f
		}
		if i, isInt := utils.ParseValue(s).(int); isInt {
			return float64(i)
		}
		return fallback
	}
	return utils.Numeric(v)
}

func stringListParam(params map[string]interface{}, key string) []string {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
