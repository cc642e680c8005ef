package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, ParseDuration("5m", time.Hour))
	assert.Equal(t, time.Hour, ParseDuration("", time.Hour))
	assert.Equal(t, time.Hour, ParseDuration("soon", time.Hour))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 42, ParseValue("42"))
	assert.Equal(t, 1.2, ParseValue(" 1.2 "))
	assert.Equal(t, "latest", ParseValue("latest"))
	assert.Equal(t, "", ParseValue(""))
}

func TestNumeric(t *testing.T) {
	assert.Equal(t, 3.0, Numeric(3))
	assert.Equal(t, 3.0, Numeric(int64(3)))
	assert.Equal(t, 1.2, Numeric(1.2))
	assert.Equal(t, 0.0, Numeric("1.2"))
	assert.Equal(t, 0.0, Numeric(nil))
}

func TestFriendlyString(t *testing.T) {
	assert.Equal(t, "Azure", FriendlyString("azure"))
	assert.Equal(t, "Mock", FriendlyString("mock"))
	assert.Equal(t, "Web App Config", FriendlyString("web_app_config"))
	assert.Equal(t, "", FriendlyString(""))
}

func TestOutputManagerRunDir(t *testing.T) {
	om := NewOutputManager(t.TempDir())

	dir, err := om.CreateRunDir("run-1")
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Creating again is fine.
	again, err := om.CreateRunDir("run-1")
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestOutputManagerRunFilePath(t *testing.T) {
	om := NewOutputManager(t.TempDir())

	path, err := om.RunFilePath("run-1", "records.jsonl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(om.BaseOutputDir, "run-1", "records.jsonl"), path)

	// Path separators in the file name are stripped.
	path, err = om.RunFilePath("run-1", "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(om.BaseOutputDir, "run-1", "passwd"), path)
}

func TestOutputManagerFileType(t *testing.T) {
	om := NewOutputManager("")
	assert.Equal(t, "csv", om.FileType("events.CSV"))
	assert.Equal(t, "json", om.FileType("records.jsonl"))
	assert.Equal(t, "json", om.FileType("records.json"))
	assert.Equal(t, "unknown", om.FileType("records.txt"))
}
