package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	FileEnv, "LISTEN_ADDR", "STORAGE_DRIVER", "DB_PATH", "IMAGE_BACKEND", "IMAGE_LOCAL_PATH",
	"IMAGE_S3_BUCKET", "IMAGE_S3_REGION", "IMAGE_S3_ENDPOINT", "IMAGE_S3_PATH_STYLE",
	"IMAGE_S3_ACCESS_KEY_ID", "IMAGE_S3_SECRET_ACCESS_KEY",
	"LOG_LEVEL", "LOG_FILE", "RUN_LEGACY_MIGRATION",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Equal(t, "local", cfg.ImageBackend)
	assert.True(t, cfg.RunLegacyMigration)
}

func TestLoadCustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("IMAGE_BACKEND", "s3")
	t.Setenv("IMAGE_S3_BUCKET", "glass-photos")
	t.Setenv("IMAGE_S3_PATH_STYLE", "true")
	t.Setenv("IMAGE_S3_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("RUN_LEGACY_MIGRATION", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, "glass-photos", cfg.S3.Bucket)
	assert.True(t, cfg.S3.PathStyle)
	assert.Equal(t, "AKIATEST", cfg.S3.AccessKeyID)
	assert.False(t, cfg.RunLegacyMigration)
}

func TestLoadFileOverlay_EnvWins(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "glassinv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":7000"
db_path: /srv/glass.db
log_level: debug
s3:
  bucket: from-file
  region: eu-west-1
`), 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "/srv/glass.db", cfg.DBPath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "from-file", cfg.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.S3.Region)
	assert.Equal(t, "local", cfg.ImageBackend)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing file", env: map[string]string{FileEnv: "/does/not/exist.yaml"}},
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "postgres"}},
		{name: "sqlite without path", env: map[string]string{"DB_PATH": ""}},
		{name: "unknown image backend", env: map[string]string{"IMAGE_BACKEND": "ftp"}},
		{name: "s3 without bucket", env: map[string]string{"IMAGE_BACKEND": "s3"}},
		{name: "bad bool", env: map[string]string{"RUN_LEGACY_MIGRATION": "sometimes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
