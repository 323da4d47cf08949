package runtimeconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "postgres"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresSQLitePath(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = BackendSQLite
	assert.Error(t, cfg.Validate())

	cfg.Storage.SQLitePath = "data.db"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnorderedThresholds(t *testing.T) {
	cfg := Default()
	cfg.Compaction.SoftThreshold = 100
	cfg.Compaction.HardThreshold = 50
	assert.Error(t, cfg.Validate())
}

func TestParseYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Storage.Backend = BackendSQLite
	cfg.Storage.SQLitePath = "runtime.db"
	require.NoError(t, cfg.Save(path))

	got, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *got)
}

func TestParseJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	require.NoError(t, cfg.Save(path))

	got, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *got)
}

func TestParseYAMLRejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML([]byte("storage:\n  backend: memory\nbogusField: true\n"))
	assert.Error(t, err)
}

func TestParseFileUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, Default().Save(filepath.Join(dir, "config.json")))
	_, err := ParseFile(path)
	assert.Error(t, err)
}
