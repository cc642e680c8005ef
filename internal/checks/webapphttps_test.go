package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaibhageria/cloudmarker/internal/model"
)

func httpsRecord(httpsOnly interface{}) model.Record {
	return model.Record{
		"ext": {
			"record_type": "web_app_config",
			"https_only":  httpsOnly,
		},
		"com": {
			"cloud_type": "azure",
			"reference":  "app2",
		},
	}
}

func TestWebAppHTTPS_FlagsPlainHTTP(t *testing.T) {
	check := NewWebAppHTTPS()
	events, err := check.Eval(httpsRecord(false))
	require.NoError(t, err)
	require.Len(t, events, 1)

	com := events[0]["com"]
	assert.Equal(t, "web_app_https_event", com.String("record_type"))
	assert.Equal(t, "app2", com.String("reference"))
	assert.Contains(t, com.String("description"), "plain HTTP")
	assert.Equal(t, "web_app_https_event", events[0]["ext"].String("record_type"))
}

func TestWebAppHTTPS_EnforcedYieldsNothing(t *testing.T) {
	check := NewWebAppHTTPS()
	events, err := check.Eval(httpsRecord(true))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWebAppHTTPS_NotApplicable(t *testing.T) {
	check := NewWebAppHTTPS()

	events, err := check.Eval(model.Record{"com": {"reference": "x"}})
	require.NoError(t, err)
	assert.Empty(t, events, "missing ext bucket is a skip, not an error")

	events, err = check.Eval(httpsRecord("no"))
	require.NoError(t, err)
	assert.Empty(t, events, "non-boolean flag is treated as not applicable")

	rec := httpsRecord(false)
	rec["ext"]["record_type"] = "storage_account_config"
	events, err = check.Eval(rec)
	require.NoError(t, err)
	assert.Empty(t, events)
}
