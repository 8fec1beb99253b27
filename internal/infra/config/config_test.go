package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "estateledger.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "fs", cfg.Blob.Driver)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.IsProduction())
}

func TestLoadReadsTomlFile(t *testing.T) {
	dir := chdirTemp(t)
	content := `
[app]
env = "production"

[storage]
driver = "blob"

[blob]
driver = "s3"
s3_bucket = "ledger-snapshots"
s3_path_style = true

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "estateledger.toml"), []byte(content), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "blob", cfg.Storage.Driver)
	assert.Equal(t, "s3", cfg.Blob.Driver)
	assert.Equal(t, "ledger-snapshots", cfg.Blob.S3Bucket)
	assert.True(t, cfg.Blob.S3PathStyle)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "estateledger.toml"), []byte("[storage]\ndriver = \"sqlite\"\n"), 0o600))
	t.Setenv("ESTATELEDGER_STORAGE_DRIVER", "memory")
	t.Setenv("ESTATELEDGER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateRejectsUnknownDrivers(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ESTATELEDGER_STORAGE_DRIVER", "mongo")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}

func TestValidateRequiresS3Bucket(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ESTATELEDGER_BLOB_DRIVER", "s3")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3_bucket")
}

func TestValidateRequiresPostgresDSN(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ESTATELEDGER_STORAGE_DRIVER", "postgres")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("ESTATELEDGER_STORAGE_POSTGRES_DSN", "postgres://db/ledger")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/ledger", cfg.Storage.PostgresDSN)
}

func TestLoadFileMissingExplicitPath(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "stderr", cfg.Log.Output)
}
