package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WEEKLYMENU_AUTH_JWTSECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/weekly-menu.db", cfg.Database.Path)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 1440, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, 10, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.Empty(t, cfg.Storage.Bucket)
	assert.Equal(t, "recipe-images", cfg.Storage.KeyPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WEEKLYMENU_AUTH_JWTSECRET", "secret")
	t.Setenv("WEEKLYMENU_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("WEEKLYMENU_PAGINATION_DEFAULTPAGESIZE", "25")
	t.Setenv("WEEKLYMENU_STORAGE_BUCKET", "images")
	t.Setenv("WEEKLYMENU_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 25, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, "images", cfg.Storage.Bucket)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WEEKLYMENU_AUTH_JWTSECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Auth.JWTSecret = "secret"
		c.Auth.TokenTTLMinutes = 60
		c.Pagination.DefaultPageSize = 10
		c.Pagination.MaxPageSize = 100
		return c
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.Pagination.DefaultPageSize = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Pagination.MaxPageSize = 5
	assert.Error(t, c.Validate())

	c = valid()
	c.Storage.Bucket = "images"
	assert.Error(t, c.Validate(), "storage needs a url ttl")
	c.Storage.URLTTLMinutes = 15
	assert.NoError(t, c.Validate())
}
