package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimoire-backend/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "grimoire", cfg.Database.Database)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "images", cfg.Upload.Dir)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, int64(1048576), cfg.Upload.MaxBytes)
}

func TestValidate_ProductionGuards(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	// Default secret and empty DB password must not reach production.
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = config.Load()
	assert.Error(t, err)

	t.Setenv("DB_PASSWORD", "a-real-password")
	_, err = config.Load()
	assert.NoError(t, err)
}

func TestValidate_StorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "s3")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "minio")
	_, err = config.Load()
	assert.NoError(t, err)
}

func TestValidate_UploadLimit(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "-1")
	_, err := config.Load()
	assert.Error(t, err)
}
