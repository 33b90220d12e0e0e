package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "syncstored.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/syncstorage
pool_max_size: 25
quota_enabled: true
quota_bytes_per_user: 1048576
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/syncstorage", cfg.DataDir)
	require.Equal(t, 25, cfg.PoolMaxSize)
	require.True(t, cfg.QuotaEnabled)
	require.Equal(t, 1048576, cfg.QuotaBytesPerUser)
	// Untouched fields keep their defaults.
	require.Equal(t, Default().MaxPayloadBytes, cfg.MaxPayloadBytes)
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = ""
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositivePoolSize(t *testing.T) {
	cfg := Default()
	cfg.PoolMaxSize = 0
	require.Error(t, cfg.Validate())
}
