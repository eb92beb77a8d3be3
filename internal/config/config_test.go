package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "DataExtract.csv", cfg.Data.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Segmentation.DefaultK)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "airq.yaml")
	yaml := []byte("server:\n  addr: \":9000\"\ndata:\n  path: /data/extract.csv\nsegmentation:\n  default_k: 4\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("AIRQ_DATA_PATH", "/override.csv")
	t.Setenv("AIRQ_LOG_FORMAT", "console")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "/override.csv", cfg.Data.Path)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Segmentation.DefaultK)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:       ServerConfig{Addr: ":8080"},
		Data:         DataConfig{Path: "x.csv"},
		Segmentation: SegmentationConfig{DefaultK: 3},
	}
	cfg.Log.Format = "json"
	require.NoError(t, cfg.Validate())

	cfg.Segmentation.DefaultK = 7
	cfg.Log.Format = "xml"
	cfg.Data.Path = " "
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_k")
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "data.path")
}
