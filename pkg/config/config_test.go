package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(old)
	})
}

func TestLoadWithoutEnvFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "./db.json", cfg.Store.File)
	assert.True(t, cfg.Export.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "PORT=4545\nLOG_FORMAT=console\nALLOWED_ORIGINS=http://a.local, http://b.local\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644))
	chdir(t, dir)

	// godotenv copies the file's keys into the process environment.
	t.Cleanup(func() {
		for _, key := range []string{"PORT", "LOG_FORMAT", "ALLOWED_ORIGINS"} {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4545, cfg.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORS.AllowedOrigins)
}

func TestLoadEnvironmentOverridesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("API_PREFIX", "/v2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/v2", cfg.APIPrefix)
}
