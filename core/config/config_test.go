package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "mysql", cfg.Database.Driver)
		assert.Equal(t, 30, cfg.Database.TimeoutSeconds)
		assert.Equal(t, "catalog/", cfg.Storage.CatalogPrefix)
		assert.Equal(t, "info", cfg.Log.Level)

		assert.Equal(t, "ID", cfg.Mapping.IdentityField)
		assert.Equal(t, "ConcurrencyToken", cfg.Mapping.ConcurrencyTokenField)
		assert.False(t, cfg.Mapping.DeleteOnRemoved)
		assert.False(t, cfg.Mapping.KeepUnmatched)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("MAPPING_DELETE_ON_REMOVED", "true")
		t.Setenv("DATABASE_DRIVER", "sqlite")
		t.Setenv("SERVER_BODY_LIMIT_MB", "8")

		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.True(t, cfg.Mapping.DeleteOnRemoved)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, 8, cfg.Server.BodyLimitMB)
	})

	t.Run("Dotenv file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MAPPING_IDENTITY_FIELD=Key\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("MAPPING_IDENTITY_FIELD") })

		cfg, err := LoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "Key", cfg.Mapping.IdentityField)
	})
}
