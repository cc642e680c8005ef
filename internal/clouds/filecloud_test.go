package clouds

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileCloud_CSV(t *testing.T) {
	path := writeFixture(t, "apps.csv",
		"record_type,name,min_tls_version\nweb_app_config,app1,1.0\nweb_app_config,app2,1.2\n")

	cloud, err := NewFileCloud(path, "", "azure", DefaultRetryConfig())
	require.NoError(t, err)

	recs := collect(cloud.Read())
	require.NoError(t, cloud.Done())
	require.Len(t, recs, 2)

	assert.Equal(t, "web_app_config", recs[0]["ext"].String("record_type"))
	assert.Equal(t, "app1", recs[0]["com"].String("reference"))
	assert.Equal(t, "azure", recs[0]["com"].String("cloud_type"))
	assert.Equal(t, 1.0, recs[0]["ext"]["min_tls_version"], "numeric cells are parsed")
}

func TestFileCloud_JSONFlatObjects(t *testing.T) {
	path := writeFixture(t, "apps.json",
		`[{"record_type":"web_app_config","id":"app9","min_tls_version":"1.1"}]`)

	cloud, err := NewFileCloud(path, "", "gcp", DefaultRetryConfig())
	require.NoError(t, err)

	recs := collect(cloud.Read())
	require.NoError(t, cloud.Done())
	require.Len(t, recs, 1)
	assert.Equal(t, "app9", recs[0]["com"].String("reference"))
	assert.Equal(t, "1.1", recs[0]["ext"].String("min_tls_version"))
}

func TestFileCloud_JSONBucketedRecords(t *testing.T) {
	path := writeFixture(t, "recs.json",
		`[{"ext":{"record_type":"web_app_config","min_tls_version":"1.0"},"com":{"cloud_type":"azure","reference":"app1"}}]`)

	cloud, err := NewFileCloud(path, "json", "", DefaultRetryConfig())
	require.NoError(t, err)

	recs := collect(cloud.Read())
	require.NoError(t, cloud.Done())
	require.Len(t, recs, 1)
	assert.Equal(t, "azure", recs[0]["com"].String("cloud_type"),
		"bucketed records pass through untouched")
}

func TestFileCloud_HTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"record_type":"web_app_config","name":"remote","min_tls_version":"1.0"}]`))
	}))
	defer srv.Close()

	cloud, err := NewFileCloud(srv.URL, "json", "azure", DefaultRetryConfig())
	require.NoError(t, err)

	recs := collect(cloud.Read())
	require.NoError(t, cloud.Done())
	require.Len(t, recs, 1)
	assert.Equal(t, "remote", recs[0]["com"].String("reference"))
}

func TestFileCloud_ReadErrorSurfacesInDone(t *testing.T) {
	cloud, err := NewFileCloud("/nonexistent/apps.json", "json", "", DefaultRetryConfig())
	require.NoError(t, err)

	assert.Empty(t, collect(cloud.Read()))
	err = cloud.Done()
	require.Error(t, err, "stream carries no errors, Done reports the failure")
	assert.Contains(t, err.Error(), "/nonexistent/apps.json")
}

func TestFileCloud_BadConstruction(t *testing.T) {
	_, err := NewFileCloud("", "", "", DefaultRetryConfig())
	assert.Error(t, err)

	_, err = NewFileCloud("data.xml", "", "", DefaultRetryConfig())
	assert.Error(t, err, "format cannot be inferred")

	_, err = NewFileCloud("data.bin", "yaml", "", DefaultRetryConfig())
	assert.Error(t, err)
}
