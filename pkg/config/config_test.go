package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.True(t, cfg.SeedOnStart)
	assert.False(t, cfg.Auth.Enforce)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1, cfg.Exports.WorkerConcurrency)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ENV", EnvProduction)
	v.Set("API_PREFIX", "portal/")
	v.Set("STORAGE_DRIVER", "POSTGRES")
	v.Set("JWT_EXPIRATION", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	v.Set("EXPORTS_WORKER_CONCURRENCY", 0)
	v.Set("AUTH_ENFORCE", true)

	cfg := fromViper(v)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/portal", cfg.APIPrefix)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 1, cfg.Exports.WorkerConcurrency)
	assert.True(t, cfg.Auth.Enforce)
}

func TestUnknownStorageDriverFallsBackToMemory(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORAGE_DRIVER", "sqlite")

	assert.Equal(t, StorageMemory, fromViper(v).StorageDriver)
}
